package repository

import (
	"context"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// TradeRepository defines persistence operations for trade listings.
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByID(ctx context.Context, id uint) (*models.Trade, error)
	List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.Trade, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.Trade, error)
}

type tradeRepository struct {
	store *resourceStore[models.Trade]
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{store: &resourceStore[models.Trade]{
		db:           db,
		kind:         models.ResourceTrade,
		table:        "trades",
		searchFields: []string{"item_offered", "item_requested", "description"},
		filterFields: []filterField{
			{column: "category", value: func(f ResourceFilter) string { return f.Category }},
			{column: "status", value: func(f ResourceFilter) string { return f.Status }},
		},
	}}
}

func (r *tradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	return r.store.create(ctx, trade, "Trade already exists")
}

func (r *tradeRepository) GetByID(ctx context.Context, id uint) (*models.Trade, error) {
	return r.store.getByID(ctx, id)
}

func (r *tradeRepository) List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.Trade, int64, error) {
	return r.store.list(ctx, filter, page)
}

func (r *tradeRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.Trade, error) {
	return r.store.updateFields(ctx, id, fields, "Trade already exists")
}
