package service

import (
	"context"
	"log/slog"

	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/observability"
	"tradehub/internal/repository"
)

// ReactionService implements the vote and like toggles. There is no
// transaction: the unique index on (resource, user) and the kind predicate
// on updates turn a racing toggle into a REACTION_CONFLICT.
type ReactionService struct {
	reactions repository.ReactionRepository
	lifecycle *LifecycleService
}

type VoteInput struct {
	Direction string `json:"vote_type" validate:"required,oneof=up down"`
}

func NewReactionService(reactions repository.ReactionRepository, lifecycle *LifecycleService) *ReactionService {
	return &ReactionService{reactions: reactions, lifecycle: lifecycle}
}

// Vote toggles an up or down vote on a trade or forum thread. Repeating the
// current vote retracts it; the opposite vote flips it in place.
func (s *ReactionService) Vote(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, id uint, in VoteInput) (models.ReactionSummary, error) {
	if kind != models.ResourceTrade && kind != models.ResourceForumPost {
		return models.ReactionSummary{}, models.NewValidationError("Votes are not supported on this resource")
	}
	if err := validatePayload(in); err != nil {
		return models.ReactionSummary{}, err
	}
	return s.toggle(ctx, caller, kind, id, models.ReactionKind(in.Direction))
}

// Like toggles a like on an event.
func (s *ReactionService) Like(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, id uint) (models.ReactionSummary, error) {
	if kind != models.ResourceEvent {
		return models.ReactionSummary{}, models.NewValidationError("Likes are not supported on this resource")
	}
	return s.toggle(ctx, caller, kind, id, models.ReactionLike)
}

func (s *ReactionService) toggle(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, id uint, want models.ReactionKind) (models.ReactionSummary, error) {
	if _, err := s.lifecycle.OwnerOf(ctx, kind, id); err != nil {
		return models.ReactionSummary{}, err
	}

	current, err := s.reactions.Find(ctx, kind, id, caller.UserID)
	if err != nil {
		return models.ReactionSummary{}, err
	}

	switch {
	case current == nil:
		err = s.reactions.Insert(ctx, &models.Reaction{
			ResourceType: kind,
			ResourceID:   id,
			UserID:       caller.UserID,
			Kind:         want,
		})
	case current.Kind == want:
		err = s.reactions.Remove(ctx, current)
	default:
		err = s.reactions.UpdateKind(ctx, current, want)
	}
	if err != nil {
		if models.IsCode(err, models.CodeReactionConflict) {
			observability.ReactionConflicts.WithLabelValues(string(kind)).Inc()
			middleware.Logger.WarnContext(ctx, "reaction toggle conflict",
				slog.String("resource_type", string(kind)),
				slog.Uint64("resource_id", uint64(id)))
		}
		return models.ReactionSummary{}, err
	}

	summary, err := s.reactions.Summary(ctx, kind, id, caller.UserID)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	observability.ReactionToggles.WithLabelValues(string(kind), string(summary.State)).Inc()
	return summary, nil
}
