package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/notifications"
	"tradehub/internal/observability"
	"tradehub/internal/policy"
	"tradehub/internal/repository"
)

// Ban actions.
const (
	BanActionBan   = "ban"
	BanActionUnban = "unban"
)

// Verification decisions.
const (
	DecisionApproveVerified  = "approve-verified"
	DecisionApproveMiddleman = "approve-middleman"
	DecisionReject           = "reject"
)

const adminDetailReportLimit = 50

// ModerationService implements reporting, the flagged queue and staff
// actions on accounts. Every mutation emits an audit event.
type ModerationService struct {
	reports   repository.ReportRepository
	users     repository.UserRepository
	vouches   repository.VouchRepository
	lifecycle *LifecycleService
	notifier  *notifications.Notifier
}

type FileReportInput struct {
	TargetType string `json:"target_type" validate:"required,oneof=trade forum_post wishlist_item event comment user"`
	TargetID   uint   `json:"target_id" validate:"required"`
	Reason     string `json:"reason" validate:"required,oneof=spam scam harassment inappropriate other"`
	Details    string `json:"details" validate:"max=2000"`
}

type ResolveReportInput struct {
	Status        string `json:"status" validate:"required,oneof=reviewed resolved"`
	Note          string `json:"resolution_note" validate:"max=2000"`
	RemoveContent bool   `json:"remove_content"`
	// ApplyToTarget stamps every pending report on the same target.
	ApplyToTarget bool `json:"apply_to_target"`
}

type BanInput struct {
	Action string `json:"action" validate:"required,oneof=ban unban"`
	Reason string `json:"reason" validate:"max=1000"`
}

type SetRoleInput struct {
	Role string `json:"role" validate:"required"`
}

type SetActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type VerificationDecisionInput struct {
	Decision string `json:"decision" validate:"required,oneof=approve-verified approve-middleman reject"`
}

// UserDetail is the admin view of one account.
type UserDetail struct {
	User            *models.User    `json:"user"`
	ReportsReceived []models.Report `json:"reports_received"`
	Vouches         []models.Vouch  `json:"vouches"`
	VouchTotal      int64           `json:"vouch_total"`
}

func NewModerationService(
	reports repository.ReportRepository,
	users repository.UserRepository,
	vouches repository.VouchRepository,
	lifecycle *LifecycleService,
	notifier *notifications.Notifier,
) *ModerationService {
	return &ModerationService{
		reports:   reports,
		users:     users,
		vouches:   vouches,
		lifecycle: lifecycle,
		notifier:  notifier,
	}
}

// FileReport records a complaint. The reported user is the target's owner.
func (s *ModerationService) FileReport(ctx context.Context, caller models.CallerIdentity, in FileReportInput) (*models.Report, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	targetType := models.ResourceType(in.TargetType)

	ownerID, err := s.lifecycle.OwnerOf(ctx, targetType, in.TargetID)
	if err != nil {
		return nil, err
	}
	if policy.SameID(caller.UserID, ownerID) {
		if targetType == models.ResourceUser {
			return nil, models.NewValidationError("You cannot report yourself")
		}
		return nil, models.NewValidationError("You cannot report your own content")
	}

	pending, err := s.reports.HasPending(ctx, caller.UserID, targetType, in.TargetID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError("You already have a pending report on this")
	}

	report := &models.Report{
		ReporterID:     caller.UserID,
		TargetType:     targetType,
		TargetID:       in.TargetID,
		ReportedUserID: &ownerID,
		Reason:         models.ReportReason(in.Reason),
		Details:        strings.TrimSpace(in.Details),
		Status:         models.ReportStatusPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	observability.ReportsFiled.WithLabelValues(string(targetType), in.Reason).Inc()
	return report, nil
}

func (s *ModerationService) ListReports(ctx context.Context, caller models.CallerIdentity, filter repository.ReportFilter, page models.PageRequest) (models.Page[models.Report], error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return models.Page[models.Report]{}, err
	}
	reports, total, err := s.reports.List(ctx, filter, page)
	if err != nil {
		return models.Page[models.Report]{}, err
	}
	return models.NewPage(reports, page, total), nil
}

// ListFlagged returns the moderation queue grouped by target, pending
// reports only unless another status is asked for.
func (s *ModerationService) ListFlagged(ctx context.Context, caller models.CallerIdentity, filter repository.ReportFilter, page models.PageRequest) (models.Page[models.FlaggedTarget], error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return models.Page[models.FlaggedTarget]{}, err
	}
	if filter.Status == "" {
		filter.Status = models.ReportStatusPending
	}
	if filter.MinSeverity != "" && filter.MinSeverity.Rank() == 0 {
		return models.Page[models.FlaggedTarget]{}, models.NewValidationError("Unknown severity")
	}
	flagged, total, err := s.reports.Flagged(ctx, filter, page)
	if err != nil {
		return models.Page[models.FlaggedTarget]{}, err
	}
	return models.NewPage(flagged, page, total), nil
}

// ResolveReport closes a report. With RemoveContent the target is deleted
// through the cascade and every pending report on it is closed too.
func (s *ModerationService) ResolveReport(ctx context.Context, caller models.CallerIdentity, reportID uint, in ResolveReportInput) (*models.Report, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if in.RemoveContent {
		if report.TargetType == models.ResourceUser {
			return nil, models.NewValidationError("Users cannot be removed; ban the account instead")
		}
		result, err := s.lifecycle.ForceDelete(ctx, caller, report.TargetType, report.TargetID)
		switch {
		case err == nil:
			s.audit(ctx, caller, notifications.ActionRemoveContent, report.TargetType, report.TargetID, map[string]any{
				"report_id": report.ID,
				"comments":  result.Comments,
				"reactions": result.Reactions,
			})
		case repository.IsNotFound(err):
			middleware.Logger.InfoContext(ctx, "reported content already removed",
				slog.String("target", string(report.TargetType)),
				slog.Uint64("target_id", uint64(report.TargetID)))
		default:
			return nil, err
		}
	}

	status := models.ReportStatus(in.Status)
	note := strings.TrimSpace(in.Note)
	if err := s.reports.Resolve(ctx, report, status, caller.UserID, note, in.RemoveContent || in.ApplyToTarget); err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionResolveReport, report.TargetType, report.TargetID, map[string]any{
		"report_id": report.ID,
		"status":    status,
	})
	return s.reports.GetByID(ctx, reportID)
}

// BanUser bans or unbans an account. Sessions are kept: the ban is enforced
// on every request, so lifting it restores existing logins.
func (s *ModerationService) BanUser(ctx context.Context, caller models.CallerIdentity, targetID uint, in BanInput) (*models.User, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	target, err := s.users.GetAccount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeBan(caller, target); err != nil {
		return nil, err
	}

	var fields map[string]any
	action := notifications.ActionBan
	if in.Action == BanActionBan {
		if target.IsBanned() {
			return nil, models.NewConflictError("User is already banned")
		}
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			return nil, models.NewValidationError("A ban reason is required")
		}
		fields = map[string]any{
			"role":          models.RoleBanned,
			"banned_reason": reason,
			"banned_at":     time.Now().UTC(),
			"banned_by_id":  caller.UserID,
		}
	} else {
		if !target.IsBanned() {
			return nil, models.NewValidationError("User is not banned")
		}
		action = notifications.ActionUnban
		fields = map[string]any{
			"role":          models.RoleUser,
			"banned_reason": "",
			"banned_at":     nil,
			"banned_by_id":  nil,
		}
	}

	updated, err := s.users.UpdateFields(ctx, target.ID, fields)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, action, models.ResourceUser, target.ID, map[string]any{
		"reason":        in.Reason,
		"previous_role": target.Role,
	})
	s.notifyUser(ctx, target.ID, action, map[string]any{"reason": in.Reason})
	return updated, nil
}

// SetRole assigns any enumerated role except banned. Admins cannot change
// their own role.
func (s *ModerationService) SetRole(ctx context.Context, caller models.CallerIdentity, targetID uint, in SetRoleInput) (*models.User, error) {
	if err := policy.Require(caller, policy.ActionAssignRole); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if !role.Valid() {
		return nil, models.NewValidationError("Unknown role: " + in.Role)
	}
	if role == models.RoleBanned {
		return nil, models.NewValidationError("Use the ban endpoint to ban a user")
	}
	if policy.SameID(caller.UserID, targetID) {
		return nil, models.NewValidationError("You cannot change your own role")
	}
	target, err := s.users.GetAccount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsBanned() {
		return nil, models.NewValidationError("Unban the user before changing their role")
	}

	fields := map[string]any{"role": role}
	switch role {
	case models.RoleVerified:
		fields["verification_requested"] = false
	case models.RoleMiddleman:
		fields["middleman_requested"] = false
	}
	updated, err := s.users.UpdateFields(ctx, target.ID, fields)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionSetRole, models.ResourceUser, target.ID, map[string]any{
		"from": target.Role,
		"to":   role,
	})
	s.notifyUser(ctx, target.ID, notifications.ActionSetRole, map[string]any{"role": role})
	return updated, nil
}

// SetActive enables or disables an account. Admin only.
func (s *ModerationService) SetActive(ctx context.Context, caller models.CallerIdentity, targetID uint, in SetActiveInput) (*models.User, error) {
	if err := policy.Require(caller, policy.ActionAssignRole); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	if policy.SameID(caller.UserID, targetID) {
		return nil, models.NewValidationError("You cannot deactivate your own account")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateFields(ctx, targetID, map[string]any{"is_active": *in.IsActive})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionSetActive, models.ResourceUser, targetID, map[string]any{
		"is_active": *in.IsActive,
	})
	return updated, nil
}

// ResolveVerification approves or rejects a pending verification or
// middleman request.
func (s *ModerationService) ResolveVerification(ctx context.Context, caller models.CallerIdentity, targetID uint, in VerificationDecisionInput) (*models.User, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	target, err := s.users.GetAccount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsBanned() {
		return nil, models.NewValidationError("Banned users cannot be verified")
	}

	// Approval grants the requested role unless the account already holds
	// one that outranks it; a moderator is never demoted to verified.
	fields := map[string]any{}
	switch in.Decision {
	case DecisionApproveVerified:
		if !target.VerificationRequested {
			return nil, models.NewValidationError("No verification request is pending")
		}
		fields["verification_requested"] = false
		if target.Role == models.RoleUser {
			fields["role"] = models.RoleVerified
		}
	case DecisionApproveMiddleman:
		if !target.MiddlemanRequested {
			return nil, models.NewValidationError("No middleman request is pending")
		}
		fields["middleman_requested"] = false
		if !target.Role.IsStaff() {
			fields["role"] = models.RoleMiddleman
		}
	default:
		if !target.VerificationRequested && !target.MiddlemanRequested {
			return nil, models.NewValidationError("No verification request is pending")
		}
		fields["verification_requested"] = false
		fields["middleman_requested"] = false
	}

	updated, err := s.users.UpdateFields(ctx, target.ID, fields)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, notifications.ActionResolveVerification, models.ResourceUser, target.ID, map[string]any{
		"decision": in.Decision,
	})
	s.notifyUser(ctx, target.ID, notifications.ActionResolveVerification, map[string]any{"decision": in.Decision})
	return updated, nil
}

func (s *ModerationService) ListVerificationRequests(ctx context.Context, caller models.CallerIdentity, page models.PageRequest) (models.Page[models.User], error) {
	return s.ListUsers(ctx, caller, repository.UserFilter{VerificationPending: true}, page)
}

func (s *ModerationService) ListUsers(ctx context.Context, caller models.CallerIdentity, filter repository.UserFilter, page models.PageRequest) (models.Page[models.User], error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return models.Page[models.User]{}, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return models.Page[models.User]{}, models.NewValidationError("Unknown role: " + string(filter.Role))
	}
	users, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, page, total), nil
}

// AdminUserDetail returns an account with the reports filed against it and
// the vouches it received.
func (s *ModerationService) AdminUserDetail(ctx context.Context, caller models.CallerIdentity, id uint) (*UserDetail, error) {
	if err := policy.Require(caller, policy.ActionModerate); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListAgainstUser(ctx, id, adminDetailReportLimit)
	if err != nil {
		return nil, err
	}
	vouches, total, err := s.vouches.ListForUser(ctx, id, models.PageRequest{Page: 1, Limit: models.MaxPageLimit})
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	if vouches == nil {
		vouches = []models.Vouch{}
	}
	return &UserDetail{User: user, ReportsReceived: reports, Vouches: vouches, VouchTotal: total}, nil
}

func (s *ModerationService) audit(ctx context.Context, caller models.CallerIdentity, action string, targetType models.ResourceType, targetID uint, detail map[string]any) {
	observability.ModerationActions.WithLabelValues(action).Inc()
	s.notifier.Audit(ctx, notifications.AuditEvent{
		Action:     action,
		ActorID:    caller.UserID,
		ActorRole:  caller.Role,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
	})
}

func (s *ModerationService) notifyUser(ctx context.Context, userID uint, kind string, payload map[string]any) {
	payload["type"] = kind
	if err := s.notifier.PublishUser(ctx, userID, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "user notification failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()))
	}
}
