package service

import (
	"context"
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
)

// TradeService manages trade listings.
type TradeService struct {
	trades     repository.TradeRepository
	engagement *Engagement
	lifecycle  *LifecycleService
}

// CreateTradeInput is the payload for a new trade.
type CreateTradeInput struct {
	ItemOffered   string   `json:"item_offered" validate:"required,max=200"`
	ItemRequested string   `json:"item_requested" validate:"max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Category      string   `json:"category" validate:"required,oneof=limiteds accessories gear event-items gamepasses"`
	Images        []string `json:"images"`
}

// UpdateTradeInput is a partial update; nil fields are left untouched.
type UpdateTradeInput struct {
	ItemOffered   *string   `json:"item_offered" validate:"omitempty,max=200"`
	ItemRequested *string   `json:"item_requested" validate:"omitempty,max=200"`
	Description   *string   `json:"description" validate:"omitempty,max=5000"`
	Category      *string   `json:"category" validate:"omitempty,oneof=limiteds accessories gear event-items gamepasses"`
	Status        *string   `json:"status" validate:"omitempty,oneof=open pending completed cancelled"`
	Images        *[]string `json:"images"`
}

func NewTradeService(trades repository.TradeRepository, engagement *Engagement, lifecycle *LifecycleService) *TradeService {
	return &TradeService{trades: trades, engagement: engagement, lifecycle: lifecycle}
}

func (s *TradeService) Create(ctx context.Context, caller models.CallerIdentity, in CreateTradeInput) (*models.Trade, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	offered, err := requireText("item_offered", in.ItemOffered)
	if err != nil {
		return nil, err
	}
	images, err := s.lifecycle.cleanImages(caller.UserID, in.Images)
	if err != nil {
		return nil, err
	}

	trade := &models.Trade{
		UserID:        caller.UserID,
		ItemOffered:   offered,
		ItemRequested: strings.TrimSpace(in.ItemRequested),
		Description:   strings.TrimSpace(in.Description),
		Category:      models.TradeCategory(in.Category),
		Status:        models.TradeStatusOpen,
		Images:        images,
	}
	if err := s.trades.Create(ctx, trade); err != nil {
		return nil, err
	}
	trade.SetEngagement(models.ReactionSummary{State: models.ReactionStateNone}, 0)
	return trade, nil
}

func (s *TradeService) Get(ctx context.Context, viewerID, id uint) (*models.Trade, error) {
	trade, err := s.trades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceTrade, viewerID, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

func (s *TradeService) List(ctx context.Context, viewerID uint, filter repository.ResourceFilter, page models.PageRequest) (models.Page[*models.Trade], error) {
	trades, total, err := s.trades.List(ctx, filter, page)
	if err != nil {
		return models.Page[*models.Trade]{}, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceTrade, viewerID, trades...); err != nil {
		return models.Page[*models.Trade]{}, err
	}
	return models.NewPage(trades, page, total), nil
}

func (s *TradeService) Update(ctx context.Context, caller models.CallerIdentity, id uint, in UpdateTradeInput) (*models.Trade, error) {
	trade, err := s.trades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, trade, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.ItemOffered != nil {
		offered, err := requireText("item_offered", *in.ItemOffered)
		if err != nil {
			return nil, err
		}
		fields["item_offered"] = offered
	}
	if in.ItemRequested != nil {
		fields["item_requested"] = strings.TrimSpace(*in.ItemRequested)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		fields["category"] = models.TradeCategory(*in.Category)
	}
	if in.Status != nil {
		next := models.TradeStatus(*in.Status)
		if !canTransition(trade.Status, next) {
			return nil, models.NewValidationError("Trade cannot move from " + string(trade.Status) + " to " + string(next))
		}
		fields["status"] = next
	}
	if in.Images != nil {
		images, err := s.lifecycle.cleanImages(trade.UserID, *in.Images)
		if err != nil {
			return nil, err
		}
		fields["images"] = models.ImageList(images)
	}

	updated, err := s.trades.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.engagement, models.ResourceTrade, caller.UserID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TradeService) Delete(ctx context.Context, caller models.CallerIdentity, id uint) error {
	_, err := s.lifecycle.Delete(ctx, caller, models.ResourceTrade, id)
	return err
}

// canTransition allows open -> pending -> completed, and cancelling anything
// that has not completed. Re-submitting the current status is a no-op.
func canTransition(from, to models.TradeStatus) bool {
	if from == to {
		return true
	}
	switch to {
	case models.TradeStatusPending:
		return from == models.TradeStatusOpen
	case models.TradeStatusCompleted:
		return from == models.TradeStatusPending
	case models.TradeStatusCancelled:
		return from != models.TradeStatusCompleted
	default:
		return false
	}
}
