package repository

import (
	"context"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// ForumRepository defines persistence operations for forum threads.
type ForumRepository interface {
	Create(ctx context.Context, post *models.ForumPost) error
	GetByID(ctx context.Context, id uint) (*models.ForumPost, error)
	List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.ForumPost, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.ForumPost, error)
}

type forumRepository struct {
	store *resourceStore[models.ForumPost]
}

// NewForumRepository creates a new forum repository. Pinned threads list first.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{store: &resourceStore[models.ForumPost]{
		db:           db,
		kind:         models.ResourceForumPost,
		table:        "forum_posts",
		searchFields: []string{"title", "content"},
		filterFields: []filterField{
			{column: "category", value: func(f ResourceFilter) string { return f.Category }},
			{column: "status", value: func(f ResourceFilter) string { return f.Status }},
		},
		pinnedFirst: true,
	}}
}

func (r *forumRepository) Create(ctx context.Context, post *models.ForumPost) error {
	return r.store.create(ctx, post, "Forum post already exists")
}

func (r *forumRepository) GetByID(ctx context.Context, id uint) (*models.ForumPost, error) {
	return r.store.getByID(ctx, id)
}

func (r *forumRepository) List(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*models.ForumPost, int64, error) {
	return r.store.list(ctx, filter, page)
}

func (r *forumRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.ForumPost, error) {
	return r.store.updateFields(ctx, id, fields, "Forum post already exists")
}
