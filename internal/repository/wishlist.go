package repository

import (
	"context"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

const wishlistConflictMessage = "You already have this item on your wishlist"

// WishlistRepository defines persistence operations for wishlist items.
type WishlistRepository interface {
	Create(ctx context.Context, item *models.WishlistItem) error
	GetByID(ctx context.Context, id uint) (*models.WishlistItem, error)
	List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.WishlistItem, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.WishlistItem, error)
	// NameTaken reports whether userID already owns a live item with nameKey,
	// ignoring excludeID (0 to ignore nothing).
	NameTaken(ctx context.Context, userID uint, nameKey string, excludeID uint) (bool, error)
}

type wishlistRepository struct {
	db    *gorm.DB
	store *resourceStore[models.WishlistItem]
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{
		db: db,
		store: &resourceStore[models.WishlistItem]{
			db:           db,
			kind:         models.ResourceWishlistItem,
			table:        "wishlist_items",
			searchFields: []string{"item_name", "description"},
			filterFields: []filterField{
				{column: "priority", value: func(f ResourceFilter) string { return f.Priority }},
				{column: "status", value: func(f ResourceFilter) string { return f.Status }},
			},
		},
	}
}

func (r *wishlistRepository) Create(ctx context.Context, item *models.WishlistItem) error {
	return r.store.create(ctx, item, wishlistConflictMessage)
}

func (r *wishlistRepository) GetByID(ctx context.Context, id uint) (*models.WishlistItem, error) {
	return r.store.getByID(ctx, id)
}

func (r *wishlistRepository) List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.WishlistItem, int64, error) {
	return r.store.list(ctx, filter, page)
}

func (r *wishlistRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.WishlistItem, error) {
	return r.store.updateFields(ctx, id, fields, wishlistConflictMessage)
}

func (r *wishlistRepository) NameTaken(ctx context.Context, userID uint, nameKey string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND name_key = ?", userID, nameKey)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
