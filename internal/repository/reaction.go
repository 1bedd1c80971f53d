package repository

import (
	"context"
	"errors"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository stores votes and likes. Every mutation targets the
// single (resource, user) row guarded by idx_reaction_target_user.
type ReactionRepository interface {
	Find(ctx context.Context, resourceType models.ResourceType, resourceID, userID uint) (*models.Reaction, error)
	Insert(ctx context.Context, reaction *models.Reaction) error
	UpdateKind(ctx context.Context, reaction *models.Reaction, kind models.ReactionKind) error
	Remove(ctx context.Context, reaction *models.Reaction) error
	Summary(ctx context.Context, resourceType models.ResourceType, resourceID, userID uint) (models.ReactionSummary, error)
	Summaries(ctx context.Context, resourceType models.ResourceType, resourceIDs []uint, userID uint) (map[uint]models.ReactionSummary, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Find returns the caller's current reaction, or nil when there is none.
func (r *reactionRepository) Find(ctx context.Context, resourceType models.ResourceType, resourceID, userID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND user_id = ?", resourceType, resourceID, userID).
		Take(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *reactionRepository) Insert(ctx context.Context, reaction *models.Reaction) error {
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewReactionConflictError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateKind switches the vote in place. The previous kind is part of the
// predicate so a concurrent change is reported as a conflict.
func (r *reactionRepository) UpdateKind(ctx context.Context, reaction *models.Reaction, kind models.ReactionKind) error {
	result := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("id = ? AND kind = ?", reaction.ID, reaction.Kind).
		Update("kind", kind)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewReactionConflictError(nil)
	}
	reaction.Kind = kind
	return nil
}

func (r *reactionRepository) Remove(ctx context.Context, reaction *models.Reaction) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", reaction.ID, reaction.Kind).
		Delete(&models.Reaction{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewReactionConflictError(nil)
	}
	return nil
}

type reactionCountRow struct {
	ResourceID uint
	Kind       models.ReactionKind
	Count      int64
}

func (r *reactionRepository) Summary(ctx context.Context, resourceType models.ResourceType, resourceID, userID uint) (models.ReactionSummary, error) {
	summaries, err := r.Summaries(ctx, resourceType, []uint{resourceID}, userID)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	return summaries[resourceID], nil
}

// Summaries recounts reactions for each resource; userID 0 skips the caller state.
func (r *reactionRepository) Summaries(ctx context.Context, resourceType models.ResourceType, resourceIDs []uint, userID uint) (map[uint]models.ReactionSummary, error) {
	summaries := make(map[uint]models.ReactionSummary, len(resourceIDs))
	for _, id := range resourceIDs {
		summaries[id] = models.ReactionSummary{State: models.ReactionStateNone}
	}
	if len(resourceIDs) == 0 {
		return summaries, nil
	}

	var rows []reactionCountRow
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("resource_id, kind, COUNT(*) AS count").
		Where("resource_type = ? AND resource_id IN ?", resourceType, resourceIDs).
		Group("resource_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		s := summaries[row.ResourceID]
		switch row.Kind {
		case models.ReactionUp:
			s.Up = row.Count
		case models.ReactionDown:
			s.Down = row.Count
		case models.ReactionLike:
			s.Likes = row.Count
		}
		s.Score = s.Up - s.Down + s.Likes
		summaries[row.ResourceID] = s
	}

	if userID != 0 {
		var mine []models.Reaction
		err := r.db.WithContext(ctx).
			Where("resource_type = ? AND resource_id IN ? AND user_id = ?", resourceType, resourceIDs, userID).
			Find(&mine).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for _, reaction := range mine {
			s := summaries[reaction.ResourceID]
			s.State = models.StateFor(reaction.Kind)
			summaries[reaction.ResourceID] = s
		}
	}
	return summaries, nil
}
