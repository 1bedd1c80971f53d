// Package service holds the business rules behind the HTTP handlers. Services
// are built once at startup and keep no per-request state.
package service

import (
	"context"
	"errors"
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/validation"
)

// engaged is a resource that carries reaction and comment counts in responses.
type engaged interface {
	ResourceID() uint
	SetEngagement(models.ReactionSummary, int64)
}

// Engagement loads reaction summaries and comment counts for listings.
type Engagement struct {
	reactions repository.ReactionRepository
	comments  repository.CommentRepository
}

// NewEngagement creates the shared engagement loader.
func NewEngagement(reactions repository.ReactionRepository, comments repository.CommentRepository) *Engagement {
	return &Engagement{reactions: reactions, comments: comments}
}

// enrich fills engagement for items in two queries. viewerID 0 leaves the
// caller state as "none".
func enrich[T engaged](ctx context.Context, e *Engagement, kind models.ResourceType, viewerID uint, items ...T) error {
	if e == nil || len(items) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ResourceID())
	}

	summaries, err := e.reactions.Summaries(ctx, kind, ids, viewerID)
	if err != nil {
		return err
	}
	counts, err := e.comments.CountByResources(ctx, kind, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		item.SetEngagement(summaries[item.ResourceID()], counts[item.ResourceID()])
	}
	return nil
}

// validatePayload runs struct tag validation and reports failures as a
// ValidationError naming the offending fields.
func validatePayload(payload any) error {
	err := validation.Struct(payload)
	if err == nil {
		return nil
	}
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		return models.NewValidationError(fields.Error())
	}
	return models.NewInternalError(err)
}

// cleanImages trims references and enforces the attachment limit. Stored
// uploads must belong to ownerID; external URLs pass through.
func (s *LifecycleService) cleanImages(ownerID uint, images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	for _, ref := range images {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if len(ref) > 500 {
			return nil, models.NewValidationError("Image reference is too long")
		}
		if !s.attachable(ownerID, ref) {
			return nil, models.NewForbiddenError(models.ReasonNotOwner, "Images must be uploaded by the listing owner")
		}
		out = append(out, ref)
	}
	if len(out) > models.MaxImages {
		return nil, models.NewValidationError("A resource can have at most 5 images")
	}
	return out, nil
}

// requireText trims s and rejects blank values for required fields.
func requireText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", models.NewValidationError(field + " is required")
	}
	return s, nil
}
