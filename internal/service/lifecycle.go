package service

import (
	"context"
	"errors"
	"log/slog"

	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/observability"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
	"tradehub/internal/storage"

	"golang.org/x/sync/errgroup"
)

const attachmentCleanupConcurrency = 4

// LifecycleService deletes resources together with their comments and
// reactions, then releases their attachments.
type LifecycleService struct {
	repo     repository.LifecycleRepository
	trades   repository.TradeRepository
	posts    repository.ForumRepository
	wishlist repository.WishlistRepository
	events   repository.EventRepository
	comments repository.CommentRepository
	storage  storage.Storage
}

// NewLifecycleService wires the cascade to every resource store. A nil
// storage skips attachment cleanup.
func NewLifecycleService(
	repo repository.LifecycleRepository,
	trades repository.TradeRepository,
	posts repository.ForumRepository,
	wishlist repository.WishlistRepository,
	events repository.EventRepository,
	comments repository.CommentRepository,
	store storage.Storage,
) *LifecycleService {
	return &LifecycleService{
		repo:     repo,
		trades:   trades,
		posts:    posts,
		wishlist: wishlist,
		events:   events,
		comments: comments,
		storage:  store,
	}
}

// load fetches a live resource as an owned value.
func (s *LifecycleService) load(ctx context.Context, kind models.ResourceType, id uint) (models.Owned, error) {
	switch kind {
	case models.ResourceTrade:
		return s.trades.GetByID(ctx, id)
	case models.ResourceForumPost:
		return s.posts.GetByID(ctx, id)
	case models.ResourceWishlistItem:
		return s.wishlist.GetByID(ctx, id)
	case models.ResourceEvent:
		return s.events.GetByID(ctx, id)
	case models.ResourceComment:
		return s.comments.GetByID(ctx, id)
	default:
		return nil, models.NewValidationError("This resource type cannot be deleted")
	}
}

// Delete removes a resource the caller owns or may moderate.
func (s *LifecycleService) Delete(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, id uint) (repository.DeleteResult, error) {
	resource, err := s.load(ctx, kind, id)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	if err := policy.Authorize(caller, resource, policy.ActionDelete); err != nil {
		return repository.DeleteResult{}, err
	}
	return s.remove(ctx, kind, id, resource)
}

// ForceDelete removes a resource on behalf of moderation regardless of owner.
func (s *LifecycleService) ForceDelete(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, id uint) (repository.DeleteResult, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return repository.DeleteResult{}, err
	}
	resource, err := s.load(ctx, kind, id)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	return s.remove(ctx, kind, id, resource)
}

func (s *LifecycleService) remove(ctx context.Context, kind models.ResourceType, id uint, resource models.Owned) (repository.DeleteResult, error) {
	result, err := s.repo.DeleteWithDependents(ctx, kind, id)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	observability.CascadeDeletes.WithLabelValues(string(kind)).Inc()
	middleware.Logger.InfoContext(ctx, "resource deleted",
		slog.String("resource_type", string(kind)),
		slog.Uint64("resource_id", uint64(id)),
		slog.Int64("comments", result.Comments),
		slog.Int64("reactions", result.Reactions))

	if attached, ok := resource.(models.Attached); ok {
		s.releaseAttachments(ctx, resource.OwnerID(), attached.Attachments())
	}
	return result, nil
}

// attachable reports whether ref may be attached to a resource owned by
// ownerID. References the store does not manage are always allowed.
func (s *LifecycleService) attachable(ownerID uint, ref string) bool {
	if s == nil || s.storage == nil {
		return true
	}
	key, err := s.storage.Key(ref)
	if err != nil {
		return true
	}
	owner, ok := storage.KeyOwner(key)
	return ok && owner == ownerID
}

// releaseAttachments deletes stored files after the cascade committed.
// Failures are logged and counted only. External URLs and uploads of other
// users are skipped.
func (s *LifecycleService) releaseAttachments(ctx context.Context, ownerID uint, refs []string) {
	if s.storage == nil || len(refs) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(attachmentCleanupConcurrency)
	for _, ref := range refs {
		key, err := s.storage.Key(ref)
		if err != nil {
			continue
		}
		if owner, ok := storage.KeyOwner(key); !ok || owner != ownerID {
			middleware.Logger.WarnContext(ctx, "skipping attachment of another owner",
				slog.String("ref", ref),
				slog.Uint64("owner_id", uint64(ownerID)))
			continue
		}
		g.Go(func() error {
			err := s.storage.Delete(gctx, ref)
			if errors.Is(err, storage.ErrUnknownReference) {
				return nil
			}
			if err != nil {
				observability.AttachmentCleanupFailures.Inc()
				middleware.Logger.WarnContext(gctx, "attachment cleanup failed",
					slog.String("ref", ref),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// OwnerOf resolves the owner of a live target, reporting NotFound when it is
// missing or soft-deleted. For user targets the id itself is returned.
func (s *LifecycleService) OwnerOf(ctx context.Context, kind models.ResourceType, id uint) (uint, error) {
	return s.repo.OwnerOf(ctx, kind, id)
}
