package service

import (
	"context"
	"strings"
	"time"

	"tradehub/internal/models"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
)

// EventService manages giveaways, tournaments and other scheduled events.
type EventService struct {
	events     repository.EventRepository
	engagement *Engagement
	lifecycle  *LifecycleService
}

type CreateEventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	EventType   string     `json:"event_type" validate:"required,oneof=giveaway tournament trade-fair community"`
	Prize       string     `json:"prize" validate:"max=200"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Images      []string   `json:"images"`
}

type UpdateEventInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	EventType   *string    `json:"event_type" validate:"omitempty,oneof=giveaway tournament trade-fair community"`
	Prize       *string    `json:"prize" validate:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Status      *string    `json:"status" validate:"omitempty,oneof=upcoming active ended cancelled"`
	Images      *[]string  `json:"images"`
}

func NewEventService(events repository.EventRepository, engagement *Engagement, lifecycle *LifecycleService) *EventService {
	return &EventService{events: events, engagement: engagement, lifecycle: lifecycle}
}

func checkSchedule(startsAt time.Time, endsAt *time.Time) error {
	if endsAt != nil && !endsAt.After(startsAt) {
		return models.NewValidationError("ends_at must be after starts_at")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, caller models.CallerIdentity, in CreateEventInput) (*models.Event, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	title, err := requireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	if err := checkSchedule(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	images, err := s.lifecycle.cleanImages(caller.UserID, in.Images)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		UserID:      caller.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		EventType:   models.EventType(in.EventType),
		Prize:       strings.TrimSpace(in.Prize),
		StartsAt:    in.StartsAt.UTC(),
		Status:      models.EventStatusUpcoming,
		Images:      models.ImageList(images),
	}
	if in.EndsAt != nil {
		endsAt := in.EndsAt.UTC()
		event.EndsAt = &endsAt
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	event.SetEngagement(models.ReactionSummary{State: models.ReactionStateNone}, 0)
	return event, nil
}

func (s *EventService) Get(ctx context.Context, viewerID, id uint) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceEvent, viewerID, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context, viewerID uint, filter repository.ResourceFilter, page models.PageRequest) (models.Page[*models.Event], error) {
	events, total, err := s.events.List(ctx, filter, page)
	if err != nil {
		return models.Page[*models.Event]{}, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceEvent, viewerID, events...); err != nil {
		return models.Page[*models.Event]{}, err
	}
	return models.NewPage(events, page, total), nil
}

// Update applies a patch. The schedule is checked against the merged
// start and end times so a patch of either side cannot invert them.
func (s *EventService) Update(ctx context.Context, caller models.CallerIdentity, id uint, in UpdateEventInput) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, event, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title, err := requireText("title", *in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.EventType != nil {
		fields["event_type"] = models.EventType(*in.EventType)
	}
	if in.Prize != nil {
		fields["prize"] = strings.TrimSpace(*in.Prize)
	}

	startsAt, endsAt := event.StartsAt, event.EndsAt
	if in.StartsAt != nil {
		startsAt = in.StartsAt.UTC()
		fields["starts_at"] = startsAt
	}
	if in.EndsAt != nil {
		e := in.EndsAt.UTC()
		endsAt = &e
		fields["ends_at"] = e
	}
	if in.StartsAt != nil || in.EndsAt != nil {
		if err := checkSchedule(startsAt, endsAt); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		fields["status"] = models.EventStatus(*in.Status)
	}
	if in.Images != nil {
		images, err := s.lifecycle.cleanImages(event.UserID, *in.Images)
		if err != nil {
			return nil, err
		}
		fields["images"] = models.ImageList(images)
	}

	updated, err := s.events.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceEvent, caller.UserID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, caller models.CallerIdentity, id uint) error {
	_, err := s.lifecycle.Delete(ctx, caller, models.ResourceEvent, id)
	return err
}
