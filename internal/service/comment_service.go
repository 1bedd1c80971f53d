package service

import (
	"context"
	"unicode/utf8"

	"tradehub/internal/models"
	"tradehub/internal/repository"
)

// CommentService manages replies on trades, forum threads and events.
type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.ForumRepository
	lifecycle *LifecycleService
}

type CreateCommentInput struct {
	Content string `json:"content" validate:"required"`
}

func NewCommentService(comments repository.CommentRepository, posts repository.ForumRepository, lifecycle *LifecycleService) *CommentService {
	return &CommentService{comments: comments, posts: posts, lifecycle: lifecycle}
}

func commentable(kind models.ResourceType) bool {
	switch kind {
	case models.ResourceTrade, models.ResourceForumPost, models.ResourceEvent:
		return true
	default:
		return false
	}
}

// Create adds a comment to a live parent. Locked forum threads refuse replies.
func (s *CommentService) Create(ctx context.Context, caller models.CallerIdentity, kind models.ResourceType, parentID uint, in CreateCommentInput) (*models.Comment, error) {
	if !commentable(kind) {
		return nil, models.NewValidationError("Comments are not supported on this resource")
	}
	content, err := requireText("content", in.Content)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return nil, models.NewValidationError("Comment must be at most 2000 characters")
	}

	if kind == models.ResourceForumPost {
		post, err := s.posts.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if post.IsLocked() {
			return nil, models.NewValidationError("This thread is locked")
		}
	} else if _, err := s.lifecycle.OwnerOf(ctx, kind, parentID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ResourceType: kind,
		ResourceID:   parentID,
		UserID:       caller.UserID,
		Content:      content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// List returns a parent's comments oldest first.
func (s *CommentService) List(ctx context.Context, kind models.ResourceType, parentID uint, page models.PageRequest) (models.Page[*models.Comment], error) {
	if !commentable(kind) {
		return models.Page[*models.Comment]{}, models.NewValidationError("Comments are not supported on this resource")
	}
	if _, err := s.lifecycle.OwnerOf(ctx, kind, parentID); err != nil {
		return models.Page[*models.Comment]{}, err
	}
	comments, total, err := s.comments.ListByResource(ctx, kind, parentID, page)
	if err != nil {
		return models.Page[*models.Comment]{}, err
	}
	return models.NewPage(comments, page, total), nil
}

// Delete removes a comment and its reactions. Authors and staff may delete.
func (s *CommentService) Delete(ctx context.Context, caller models.CallerIdentity, id uint) error {
	_, err := s.lifecycle.Delete(ctx, caller, models.ResourceComment, id)
	return err
}
