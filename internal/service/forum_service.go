package service

import (
	"context"
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/notifications"
	"tradehub/internal/observability"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
)

// ForumService manages discussion threads and their moderation flags.
type ForumService struct {
	posts      repository.ForumRepository
	engagement *Engagement
	lifecycle  *LifecycleService
	notifier   *notifications.Notifier
}

type CreateForumPostInput struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required,max=20000"`
	Category string   `json:"category" validate:"omitempty,oneof=general trading news help off-topic"`
	Images   []string `json:"images"`
}

type UpdateForumPostInput struct {
	Title    *string   `json:"title" validate:"omitempty,max=200"`
	Content  *string   `json:"content" validate:"omitempty,max=20000"`
	Category *string   `json:"category" validate:"omitempty,oneof=general trading news help off-topic"`
	Images   *[]string `json:"images"`
}

func NewForumService(posts repository.ForumRepository, engagement *Engagement, lifecycle *LifecycleService, notifier *notifications.Notifier) *ForumService {
	return &ForumService{posts: posts, engagement: engagement, lifecycle: lifecycle, notifier: notifier}
}

func (s *ForumService) Create(ctx context.Context, caller models.CallerIdentity, in CreateForumPostInput) (*models.ForumPost, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	title, err := requireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content)
	if err != nil {
		return nil, err
	}
	images, err := s.lifecycle.cleanImages(caller.UserID, in.Images)
	if err != nil {
		return nil, err
	}

	category := models.ForumCategory(in.Category)
	if category == "" {
		category = models.ForumCategoryGeneral
	}

	post := &models.ForumPost{
		UserID:   caller.UserID,
		Title:    title,
		Content:  content,
		Category: category,
		Status:   models.ForumStatusOpen,
		Images:   models.ImageList(images),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.SetEngagement(models.ReactionSummary{State: models.ReactionStateNone}, 0)
	return post, nil
}

func (s *ForumService) Get(ctx context.Context, viewerID, id uint) (*models.ForumPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceForumPost, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ForumService) List(ctx context.Context, viewerID uint, filter repository.ResourceFilter, page models.PageRequest) (models.Page[*models.ForumPost], error) {
	posts, total, err := s.posts.List(ctx, filter, page)
	if err != nil {
		return models.Page[*models.ForumPost]{}, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceForumPost, viewerID, posts...); err != nil {
		return models.Page[*models.ForumPost]{}, err
	}
	return models.NewPage(posts, page, total), nil
}

func (s *ForumService) Update(ctx context.Context, caller models.CallerIdentity, id uint, in UpdateForumPostInput) (*models.ForumPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, post, policy.ActionUpdate); err != nil {
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
	if in.Content != nil {
		content, err := requireText("content", *in.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if in.Category != nil {
		fields["category"] = models.ForumCategory(strings.TrimSpace(*in.Category))
	}
	if in.Images != nil {
		images, err := s.lifecycle.cleanImages(post.UserID, *in.Images)
		if err != nil {
			return nil, err
		}
		fields["images"] = models.ImageList(images)
	}

	return s.updated(ctx, caller.UserID, id, fields)
}

func (s *ForumService) Delete(ctx context.Context, caller models.CallerIdentity, id uint) error {
	_, err := s.lifecycle.Delete(ctx, caller, models.ResourceForumPost, id)
	return err
}

// SetPinned pins or unpins a thread. Requires moderation authority.
func (s *ForumService) SetPinned(ctx context.Context, caller models.CallerIdentity, id uint, pinned bool) (*models.ForumPost, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	post, err := s.updated(ctx, caller.UserID, id, map[string]any{"pinned": pinned})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionPin, id, map[string]any{"pinned": pinned})
	return post, nil
}

// SetLocked locks or reopens a thread. Requires moderation authority.
func (s *ForumService) SetLocked(ctx context.Context, caller models.CallerIdentity, id uint, locked bool) (*models.ForumPost, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	status := models.ForumStatusOpen
	if locked {
		status = models.ForumStatusLocked
	}
	post, err := s.updated(ctx, caller.UserID, id, map[string]any{"status": status})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionLock, id, map[string]any{"locked": locked})
	return post, nil
}

func (s *ForumService) updated(ctx context.Context, viewerID, id uint, fields map[string]any) (*models.ForumPost, error) {
	post, err := s.posts.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceForumPost, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ForumService) audit(ctx context.Context, caller models.CallerIdentity, action string, id uint, detail map[string]any) {
	observability.ModerationActions.WithLabelValues(action).Inc()
	s.notifier.Audit(ctx, notifications.AuditEvent{
		Action:     action,
		ActorID:    caller.UserID,
		ActorRole:  caller.Role,
		TargetType: models.ResourceForumPost,
		TargetID:   id,
		Detail:     detail,
	})
}
