package service

import (
	"context"
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/policy"
	"tradehub/internal/repository"

	"github.com/shopspring/decimal"
)

// Verification request kinds.
const (
	VerificationVerified  = "verified"
	VerificationMiddleman = "middleman"
)

// UserService serves member profiles, verification requests and vouches.
type UserService struct {
	users   repository.UserRepository
	vouches repository.VouchRepository
}

type UpdateProfileInput struct {
	Bio    *string `json:"bio" validate:"omitempty,max=1000"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

type VouchInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type VerificationRequestInput struct {
	Kind string `json:"kind" validate:"required,oneof=verified middleman"`
}

func NewUserService(users repository.UserRepository, vouches repository.VouchRepository) *UserService {
	return &UserService{users: users, vouches: vouches}
}

// GetProfile returns a member's profile. The email is only shown to the
// member themselves and to staff.
func (s *UserService) GetProfile(ctx context.Context, viewer models.CallerIdentity, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.SameID(viewer.UserID, user.ID) && !viewer.Role.IsStaff() {
		user.Email = ""
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller models.CallerIdentity, in UpdateProfileInput) (*models.User, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if len(fields) == 0 {
		return s.users.GetByID(ctx, caller.UserID)
	}
	return s.users.UpdateFields(ctx, caller.UserID, fields)
}

// RequestVerification flags the caller for staff review. Members who
// already hold the role, or rank above it, are rejected.
func (s *UserService) RequestVerification(ctx context.Context, caller models.CallerIdentity, in VerificationRequestInput) (*models.User, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	switch in.Kind {
	case VerificationVerified:
		if user.Role != models.RoleUser {
			return nil, models.NewValidationError("Your account is already verified")
		}
		if user.VerificationRequested {
			return nil, models.NewConflictError("A verification request is already pending")
		}
		return s.users.UpdateFields(ctx, user.ID, map[string]any{"verification_requested": true})
	default:
		if user.Role == models.RoleMiddleman || user.Role.IsStaff() {
			return nil, models.NewValidationError("Your account already has middleman rights")
		}
		if user.MiddlemanRequested {
			return nil, models.NewConflictError("A middleman request is already pending")
		}
		return s.users.UpdateFields(ctx, user.ID, map[string]any{"middleman_requested": true})
	}
}

// Vouch records or replaces the caller's rating of target and recomputes
// the target's credibility score.
func (s *UserService) Vouch(ctx context.Context, caller models.CallerIdentity, targetID uint, in VouchInput) (*models.User, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	if policy.SameID(caller.UserID, targetID) {
		return nil, models.NewValidationError("You cannot vouch for yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsBanned() {
		return nil, models.NewValidationError("Banned members cannot receive vouches")
	}

	vouch := &models.Vouch{
		VoucherID: caller.UserID,
		TargetID:  target.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.vouches.Upsert(ctx, vouch); err != nil {
		return nil, err
	}

	stats, err := s.vouches.Stats(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateFields(ctx, target.ID, map[string]any{
		"credibility_score": Credibility(stats),
		"vouch_count":       stats.Count,
	})
}

// Credibility is the mean rating rounded half-up to two decimals.
func Credibility(stats repository.VouchStats) decimal.Decimal {
	if stats.Count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(stats.Sum).DivRound(decimal.NewFromInt(stats.Count), 2)
}

func (s *UserService) ListVouches(ctx context.Context, targetID uint, page models.PageRequest) (models.Page[models.Vouch], error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return models.Page[models.Vouch]{}, err
	}
	vouches, total, err := s.vouches.ListForUser(ctx, targetID, page)
	if err != nil {
		return models.Page[models.Vouch]{}, err
	}
	return models.NewPage(vouches, page, total), nil
}
