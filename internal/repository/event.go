package repository

import (
	"context"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// EventRepository defines persistence operations for community events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.Event, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.Event, error)
}

type eventRepository struct {
	store *resourceStore[models.Event]
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{store: &resourceStore[models.Event]{
		db:           db,
		kind:         models.ResourceEvent,
		table:        "events",
		searchFields: []string{"title", "description", "prize"},
		filterFields: []filterField{
			{column: "event_type", value: func(f ResourceFilter) string { return f.EventType }},
			{column: "status", value: func(f ResourceFilter) string { return f.Status }},
		},
	}}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.store.create(ctx, event, "Event already exists")
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	return r.store.getByID(ctx, id)
}

func (r *eventRepository) List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.Event, int64, error) {
	return r.store.list(ctx, filter, page)
}

func (r *eventRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.Event, error) {
	return r.store.updateFields(ctx, id, fields, "Event already exists")
}
