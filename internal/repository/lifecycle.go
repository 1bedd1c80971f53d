package repository

import (
	"context"
	"errors"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// DeleteResult reports what a cascade removed.
type DeleteResult struct {
	Comments  int64
	Reactions int64
}

// LifecycleRepository owns operations that span resource kinds: resolving a
// target's owner and deleting a resource together with its dependents.
type LifecycleRepository interface {
	// OwnerOf returns the owner of a live resource, or the user id itself for user targets.
	OwnerOf(ctx context.Context, resourceType models.ResourceType, id uint) (uint, error)
	// DeleteWithDependents removes the resource's comments and reactions and
	// then the resource itself as one unit of work.
	DeleteWithDependents(ctx context.Context, resourceType models.ResourceType, id uint) (DeleteResult, error)
}

type lifecycleRepository struct {
	db *gorm.DB
}

// NewLifecycleRepository creates a new lifecycle repository
func NewLifecycleRepository(db *gorm.DB) LifecycleRepository {
	return &lifecycleRepository{db: db}
}

func modelFor(resourceType models.ResourceType) (any, error) {
	switch resourceType {
	case models.ResourceTrade:
		return &models.Trade{}, nil
	case models.ResourceForumPost:
		return &models.ForumPost{}, nil
	case models.ResourceWishlistItem:
		return &models.WishlistItem{}, nil
	case models.ResourceEvent:
		return &models.Event{}, nil
	case models.ResourceComment:
		return &models.Comment{}, nil
	case models.ResourceUser:
		return &models.User{}, nil
	default:
		return nil, models.NewValidationError("Unknown resource type")
	}
}

func (r *lifecycleRepository) OwnerOf(ctx context.Context, resourceType models.ResourceType, id uint) (uint, error) {
	model, err := modelFor(resourceType)
	if err != nil {
		return 0, err
	}

	column := "user_id"
	if resourceType == models.ResourceUser {
		column = "id"
	}

	var owner struct{ OwnerID uint }
	result := r.db.WithContext(ctx).Model(model).
		Select(column+" AS owner_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&owner)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, models.NewNotFoundError(resourceType.Label(), id)
	}
	return owner.OwnerID, nil
}

func (r *lifecycleRepository) DeleteWithDependents(ctx context.Context, resourceType models.ResourceType, id uint) (DeleteResult, error) {
	model, err := modelFor(resourceType)
	if err != nil {
		return DeleteResult{}, err
	}
	if resourceType == models.ResourceUser {
		return DeleteResult{}, models.NewValidationError("Users cannot be deleted")
	}

	var result DeleteResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if resourceType != models.ResourceComment {
			comments := tx.Where("resource_type = ? AND resource_id = ?", resourceType, id).Delete(&models.Comment{})
			if comments.Error != nil {
				return comments.Error
			}
			result.Comments = comments.RowsAffected
		}

		reactions := tx.Where("resource_type = ? AND resource_id = ?", resourceType, id).Delete(&models.Reaction{})
		if reactions.Error != nil {
			return reactions.Error
		}
		result.Reactions = reactions.RowsAffected

		parent := tx.Where("id = ?", id).Delete(model)
		if parent.Error != nil {
			return parent.Error
		}
		if parent.RowsAffected == 0 {
			return models.NewNotFoundError(resourceType.Label(), id)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return DeleteResult{}, err
		}
		return DeleteResult{}, models.NewInternalError(err)
	}
	return result, nil
}
