package service

import (
	"context"
	"fmt"
	"testing"

	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationService_FileReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Hat")

	_, err := env.moderation.FileReport(ctx, testutil.Caller(env.alice), FileReportInput{
		TargetType: "trade", TargetID: trade.ID, Reason: "spam",
	})
	assertCode(t, err, models.CodeValidation)

	_, err = env.moderation.FileReport(ctx, testutil.Caller(env.alice), FileReportInput{
		TargetType: "user", TargetID: env.alice.ID, Reason: "other",
	})
	assertCode(t, err, models.CodeValidation)

	_, err = env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{
		TargetType: "trade", TargetID: 777, Reason: "spam",
	})
	assertCode(t, err, models.CodeNotFound)

	_, err = env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{
		TargetType: "trade", TargetID: trade.ID, Reason: "rude",
	})
	assertCode(t, err, models.CodeValidation)

	report, err := env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{
		TargetType: "trade", TargetID: trade.ID, Reason: "scam", Details: " fake item ",
	})
	require.NoError(t, err)
	require.NotNil(t, report.ReportedUserID)
	assert.Equal(t, env.alice.ID, *report.ReportedUserID)
	assert.Equal(t, "fake item", report.Details)
	assert.Equal(t, models.ReportStatusPending, report.Status)

	_, err = env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{
		TargetType: "trade", TargetID: trade.ID, Reason: "spam",
	})
	assertCode(t, err, models.CodeConflict)
}

func TestModerationService_FlaggedQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hot := env.createTrade(t, env.alice, "Hot")
	warm := env.createTrade(t, env.alice, "Warm")

	for i := 0; i < 5; i++ {
		reporter := testutil.CreateUser(t, env.db, fmt.Sprintf("reporter%d", i), models.RoleUser)
		_, err := env.moderation.FileReport(ctx, testutil.Caller(reporter), FileReportInput{
			TargetType: "trade", TargetID: hot.ID, Reason: "spam",
		})
		require.NoError(t, err)
		if i < 3 {
			_, err = env.moderation.FileReport(ctx, testutil.Caller(reporter), FileReportInput{
				TargetType: "trade", TargetID: warm.ID, Reason: "spam",
			})
			require.NoError(t, err)
		}
	}

	_, err := env.moderation.ListFlagged(ctx, testutil.Caller(env.bob), repository.ReportFilter{}, models.PageRequest{})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	page, err := env.moderation.ListFlagged(ctx, testutil.Caller(env.mod), repository.ReportFilter{}, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, hot.ID, page.Items[0].TargetID)
	assert.Equal(t, models.SeverityHigh, page.Items[0].Severity)
	assert.Equal(t, models.SeverityMedium, page.Items[1].Severity)

	page, err = env.moderation.ListFlagged(ctx, testutil.Caller(env.mod), repository.ReportFilter{MinSeverity: models.SeverityHigh}, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(5), page.Items[0].ReportCount)

	_, err = env.moderation.ListFlagged(ctx, testutil.Caller(env.mod), repository.ReportFilter{MinSeverity: "extreme"}, models.PageRequest{})
	assertCode(t, err, models.CodeValidation)
}

func TestModerationService_ResolveWithRemoval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Scam hat")
	carol := testutil.CreateUser(t, env.db, "carol", models.RoleUser)

	first, err := env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{TargetType: "trade", TargetID: trade.ID, Reason: "scam"})
	require.NoError(t, err)
	second, err := env.moderation.FileReport(ctx, testutil.Caller(carol), FileReportInput{TargetType: "trade", TargetID: trade.ID, Reason: "scam"})
	require.NoError(t, err)

	_, err = env.moderation.ResolveReport(ctx, testutil.Caller(env.bob), first.ID, ResolveReportInput{Status: "resolved"})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.moderation.ResolveReport(ctx, testutil.Caller(env.mod), first.ID, ResolveReportInput{Status: "dismissed"})
	assertCode(t, err, models.CodeValidation)

	resolved, err := env.moderation.ResolveReport(ctx, testutil.Caller(env.mod), first.ID, ResolveReportInput{
		Status: "resolved", Note: "removed listing", RemoveContent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, env.mod.ID, *resolved.ResolvedByID)

	_, err = env.trades.Get(ctx, 0, trade.ID)
	assertCode(t, err, models.CodeNotFound)

	other, err := env.moderation.reports.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, other.Status)

	assert.Equal(t, []string{"remove_content", "resolve_report"}, env.audit.actions())
}

func TestModerationService_BanRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.BanUser(ctx, testutil.Caller(env.bob), env.alice.ID, BanInput{Action: "ban", Reason: "spam"})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.moderation.BanUser(ctx, testutil.Caller(env.mod), env.mod.ID, BanInput{Action: "ban", Reason: "oops"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.moderation.BanUser(ctx, testutil.Caller(env.mod), env.admin.ID, BanInput{Action: "ban", Reason: "coup"})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.moderation.BanUser(ctx, testutil.Caller(env.mod), env.alice.ID, BanInput{Action: "ban"})
	assertCode(t, err, models.CodeValidation)

	banned, err := env.moderation.BanUser(ctx, testutil.Caller(env.mod), env.alice.ID, BanInput{Action: "ban", Reason: "scamming"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBanned, banned.Role)
	assert.Equal(t, "scamming", banned.BannedReason)
	require.NotNil(t, banned.BannedAt)
	require.NotNil(t, banned.BannedByID)
	assert.Equal(t, env.mod.ID, *banned.BannedByID)
	assert.True(t, banned.IsActive)

	_, err = env.moderation.BanUser(ctx, testutil.Caller(env.mod), env.alice.ID, BanInput{Action: "ban", Reason: "again"})
	assertCode(t, err, models.CodeConflict)

	unbanned, err := env.moderation.BanUser(ctx, testutil.Caller(env.admin), env.alice.ID, BanInput{Action: "unban"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, unbanned.Role)
	assert.Empty(t, unbanned.BannedReason)
	assert.Nil(t, unbanned.BannedAt)
	assert.Nil(t, unbanned.BannedByID)

	// Admins may ban staff.
	_, err = env.moderation.BanUser(ctx, testutil.Caller(env.admin), env.mod.ID, BanInput{Action: "ban", Reason: "abuse"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ban", "unban", "ban"}, env.audit.actions())
}

func TestModerationService_SetRoleAndActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.SetRole(ctx, testutil.Caller(env.mod), env.alice.ID, SetRoleInput{Role: "verified"})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.admin.ID, SetRoleInput{Role: "user"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.alice.ID, SetRoleInput{Role: "overlord"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.alice.ID, SetRoleInput{Role: "banned"})
	assertCode(t, err, models.CodeValidation)

	promoted, err := env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.alice.ID, SetRoleInput{Role: "Moderator"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, promoted.Role)

	inactive := false
	_, err = env.moderation.SetActive(ctx, testutil.Caller(env.mod), env.bob.ID, SetActiveInput{IsActive: &inactive})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.moderation.SetActive(ctx, testutil.Caller(env.admin), env.bob.ID, SetActiveInput{})
	assertCode(t, err, models.CodeValidation)

	updated, err := env.moderation.SetActive(ctx, testutil.Caller(env.admin), env.bob.ID, SetActiveInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.RoleUser, updated.Role)
}

func TestModerationService_ResolveVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.ResolveVerification(ctx, testutil.Caller(env.mod), env.alice.ID, VerificationDecisionInput{Decision: DecisionApproveVerified})
	assertCode(t, err, models.CodeValidation)

	_, err = env.userSvc.RequestVerification(ctx, testutil.Caller(env.alice), VerificationRequestInput{Kind: VerificationVerified})
	require.NoError(t, err)
	_, err = env.userSvc.RequestVerification(ctx, testutil.Caller(env.alice), VerificationRequestInput{Kind: VerificationVerified})
	assertCode(t, err, models.CodeConflict)

	pending, err := env.moderation.ListVerificationRequests(ctx, testutil.Caller(env.mod), models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, env.alice.ID, pending.Items[0].ID)

	_, err = env.moderation.ResolveVerification(ctx, testutil.Caller(env.bob), env.alice.ID, VerificationDecisionInput{Decision: DecisionApproveVerified})
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	verified, err := env.moderation.ResolveVerification(ctx, testutil.Caller(env.mod), env.alice.ID, VerificationDecisionInput{Decision: DecisionApproveVerified})
	require.NoError(t, err)
	assert.Equal(t, models.RoleVerified, verified.Role)
	assert.False(t, verified.VerificationRequested)

	_, err = env.userSvc.RequestVerification(ctx, testutil.Caller(env.bob), VerificationRequestInput{Kind: VerificationMiddleman})
	require.NoError(t, err)
	rejected, err := env.moderation.ResolveVerification(ctx, testutil.Caller(env.mod), env.bob.ID, VerificationDecisionInput{Decision: DecisionReject})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, rejected.Role)
	assert.False(t, rejected.MiddlemanRequested)
	assert.False(t, rejected.VerificationRequested)
}

func TestModerationService_ApprovalNeverDemotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.userSvc.RequestVerification(ctx, testutil.Caller(env.alice), VerificationRequestInput{Kind: VerificationVerified})
	require.NoError(t, err)
	_, err = env.userSvc.RequestVerification(ctx, testutil.Caller(env.bob), VerificationRequestInput{Kind: VerificationMiddleman})
	require.NoError(t, err)

	// Both were promoted while their requests sat in the queue.
	_, err = env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.alice.ID, SetRoleInput{Role: "middleman"})
	require.NoError(t, err)
	_, err = env.moderation.SetRole(ctx, testutil.Caller(env.admin), env.bob.ID, SetRoleInput{Role: "moderator"})
	require.NoError(t, err)

	alice, err := env.moderation.ResolveVerification(ctx, testutil.Caller(env.mod), env.alice.ID, VerificationDecisionInput{Decision: DecisionApproveVerified})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMiddleman, alice.Role)
	assert.False(t, alice.VerificationRequested)

	bob, err := env.moderation.ResolveVerification(ctx, testutil.Caller(env.mod), env.bob.ID, VerificationDecisionInput{Decision: DecisionApproveMiddleman})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, bob.Role)
	assert.False(t, bob.MiddlemanRequested)
}

func TestModerationService_AdminUserDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.FileReport(ctx, testutil.Caller(env.bob), FileReportInput{TargetType: "user", TargetID: env.alice.ID, Reason: "harassment"})
	require.NoError(t, err)
	_, err = env.userSvc.Vouch(ctx, testutil.Caller(env.bob), env.alice.ID, VouchInput{Rating: 4})
	require.NoError(t, err)

	_, err = env.moderation.AdminUserDetail(ctx, testutil.Caller(env.bob), env.alice.ID)
	assertCode(t, err, models.CodeForbidden)

	detail, err := env.moderation.AdminUserDetail(ctx, testutil.Caller(env.mod), env.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, env.alice.ID, detail.User.ID)
	assert.Len(t, detail.ReportsReceived, 1)
	assert.Len(t, detail.Vouches, 1)
	assert.Equal(t, int64(1), detail.VouchTotal)
}
