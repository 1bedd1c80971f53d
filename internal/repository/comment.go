package repository

import (
	"context"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID uint, page models.PageRequest) ([]*models.Comment, int64, error)
	CountByResources(ctx context.Context, resourceType models.ResourceType, resourceIDs []uint) (map[uint]int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return r.db.WithContext(ctx).Preload("Owner").First(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Owner").First(&comment, id).Error; err != nil {
		return nil, translateReadError(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID uint, page models.PageRequest) ([]*models.Comment, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []*models.Comment
	err := query.Preload("Owner").
		Order("created_at ASC").
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) CountByResources(ctx context.Context, resourceType models.ResourceType, resourceIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(resourceIDs))
	if len(resourceIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ResourceID uint
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("resource_id, COUNT(*) AS count").
		Where("resource_type = ? AND resource_id IN ?", resourceType, resourceIDs).
		Group("resource_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.ResourceID] = row.Count
	}
	return counts, nil
}
