package service

import (
	"context"
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
)

const wishlistDuplicateMessage = "You already have this item on your wishlist"

// WishlistService manages per-user wishlists. Item names are unique per
// owner regardless of case.
type WishlistService struct {
	items     repository.WishlistRepository
	lifecycle *LifecycleService
}

type CreateWishlistItemInput struct {
	ItemName    string `json:"item_name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	MaxPrice    string `json:"max_price" validate:"max=64"`
	Priority    string `json:"priority" validate:"omitempty,oneof=high medium low"`
}

type UpdateWishlistItemInput struct {
	ItemName    *string `json:"item_name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	MaxPrice    *string `json:"max_price" validate:"omitempty,max=64"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=high medium low"`
	Status      *string `json:"status" validate:"omitempty,oneof=wanted acquired"`
}

func NewWishlistService(items repository.WishlistRepository, lifecycle *LifecycleService) *WishlistService {
	return &WishlistService{items: items, lifecycle: lifecycle}
}

// nameKey is the case-folded form used for uniqueness.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *WishlistService) Create(ctx context.Context, caller models.CallerIdentity, in CreateWishlistItemInput) (*models.WishlistItem, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	name, err := requireText("item_name", in.ItemName)
	if err != nil {
		return nil, err
	}

	taken, err := s.items.NameTaken(ctx, caller.UserID, nameKey(name), 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(wishlistDuplicateMessage)
	}

	maxPrice := strings.TrimSpace(in.MaxPrice)
	if maxPrice == "" {
		maxPrice = models.DefaultMaxPrice
	}
	priority := models.WishlistPriority(in.Priority)
	if priority == "" {
		priority = models.WishlistPriorityMedium
	}

	item := &models.WishlistItem{
		UserID:      caller.UserID,
		ItemName:    name,
		NameKey:     nameKey(name),
		Description: strings.TrimSpace(in.Description),
		MaxPrice:    maxPrice,
		Priority:    priority,
		Status:      models.WishlistStatusWanted,
	}
	// The partial unique index still catches a racing duplicate as Conflict.
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *WishlistService) Get(ctx context.Context, id uint) (*models.WishlistItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *WishlistService) List(ctx context.Context, filter repository.ResourceFilter, page models.PageRequest) (models.Page[*models.WishlistItem], error) {
	items, total, err := s.items.List(ctx, filter, page)
	if err != nil {
		return models.Page[*models.WishlistItem]{}, err
	}
	return models.NewPage(items, page, total), nil
}

// ListForUser lists one member's wishlist.
func (s *WishlistService) ListForUser(ctx context.Context, userID uint, filter repository.ResourceFilter, page models.PageRequest) (models.Page[*models.WishlistItem], error) {
	filter.OwnerID = userID
	return s.List(ctx, filter, page)
}

func (s *WishlistService) Update(ctx context.Context, caller models.CallerIdentity, id uint, in UpdateWishlistItemInput) (*models.WishlistItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, item, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.ItemName != nil {
		name, err := requireText("item_name", *in.ItemName)
		if err != nil {
			return nil, err
		}
		taken, err := s.items.NameTaken(ctx, item.UserID, nameKey(name), item.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError(wishlistDuplicateMessage)
		}
		fields["item_name"] = name
		fields["name_key"] = nameKey(name)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.MaxPrice != nil {
		maxPrice := strings.TrimSpace(*in.MaxPrice)
		if maxPrice == "" {
			maxPrice = models.DefaultMaxPrice
		}
		fields["max_price"] = maxPrice
	}
	if in.Priority != nil {
		fields["priority"] = models.WishlistPriority(*in.Priority)
	}
	if in.Status != nil {
		fields["status"] = models.WishlistStatus(*in.Status)
	}

	return s.items.UpdateFields(ctx, id, fields)
}

func (s *WishlistService) Delete(ctx context.Context, caller models.CallerIdentity, id uint) error {
	_, err := s.lifecycle.Delete(ctx, caller, models.ResourceWishlistItem, id)
	return err
}
