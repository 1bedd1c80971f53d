package repository

import (
	"context"
	"testing"
	"time"

	"tradehub/internal/models"
	"tradehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestLifecycleRepository_DeleteWithDependents(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	other := testutil.CreateUser(t, db, "other", models.RoleUser)

	trades := NewTradeRepository(db)
	comments := NewCommentRepository(db)
	reactions := NewReactionRepository(db)
	lifecycle := NewLifecycleRepository(db)

	trade := &models.Trade{UserID: owner.ID, ItemOffered: "Dominus", Category: models.TradeCategoryLimiteds}
	require.NoError(t, trades.Create(ctx, trade))
	require.NotNil(t, trade.Owner)
	assert.Equal(t, "owner", trade.Owner.Username)

	keep := &models.Trade{UserID: owner.ID, ItemOffered: "Valkyrie", Category: models.TradeCategoryLimiteds}
	require.NoError(t, trades.Create(ctx, keep))

	require.NoError(t, comments.Create(ctx, &models.Comment{ResourceType: models.ResourceTrade, ResourceID: trade.ID, UserID: other.ID, Content: "nice"}))
	require.NoError(t, comments.Create(ctx, &models.Comment{ResourceType: models.ResourceTrade, ResourceID: keep.ID, UserID: other.ID, Content: "keep"}))
	require.NoError(t, reactions.Insert(ctx, &models.Reaction{ResourceType: models.ResourceTrade, ResourceID: trade.ID, UserID: other.ID, Kind: models.ReactionUp}))

	result, err := lifecycle.DeleteWithDependents(ctx, models.ResourceTrade, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Comments)
	assert.Equal(t, int64(1), result.Reactions)

	_, err = trades.GetByID(ctx, trade.ID)
	assert.True(t, IsNotFound(err))

	listed, total, err := comments.ListByResource(ctx, models.ResourceTrade, trade.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Zero(t, total)

	summary, err := reactions.Summary(ctx, models.ResourceTrade, trade.ID, other.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Up)
	assert.Equal(t, models.ReactionStateNone, summary.State)

	_, total, err = comments.ListByResource(ctx, models.ResourceTrade, keep.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = lifecycle.DeleteWithDependents(ctx, models.ResourceTrade, trade.ID)
	assert.True(t, IsNotFound(err))
}

func TestLifecycleRepository_OwnerOf(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	lifecycle := NewLifecycleRepository(db)

	event := &models.Event{UserID: owner.ID, Title: "Giveaway", EventType: models.EventTypeGiveaway, StartsAt: time.Now()}
	require.NoError(t, NewEventRepository(db).Create(ctx, event))

	got, err := lifecycle.OwnerOf(ctx, models.ResourceEvent, event.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got)

	got, err = lifecycle.OwnerOf(ctx, models.ResourceUser, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got)

	_, err = lifecycle.OwnerOf(ctx, models.ResourceForumPost, 999)
	assert.True(t, IsNotFound(err))
}

func TestUserRepository_UsernameUniqueIgnoringCase(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	require.NoError(t, users.Create(ctx, &models.User{Username: "Bob", Email: "bob@example.com", Password: "x", Role: models.RoleUser, IsActive: true}))
	err := users.Create(ctx, &models.User{Username: "bob", Email: "other@example.com", Password: "x", Role: models.RoleUser, IsActive: true})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	found, err := users.GetByUsername(ctx, "BOB")
	require.NoError(t, err)
	assert.Equal(t, "Bob", found.Username)
}

func TestWishlistRepository_CaseInsensitiveUniqueness(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	repo := NewWishlistRepository(db)

	first := &models.WishlistItem{UserID: alice.ID, ItemName: "Dominus Frigidus", NameKey: "dominus frigidus"}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, models.DefaultMaxPrice, first.MaxPrice)
	assert.Equal(t, models.WishlistPriorityMedium, first.Priority)

	taken, err := repo.NameTaken(ctx, alice.ID, "dominus frigidus", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameTaken(ctx, alice.ID, "dominus frigidus", first.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	err = repo.Create(ctx, &models.WishlistItem{UserID: alice.ID, ItemName: "DOMINUS FRIGIDUS", NameKey: "dominus frigidus"})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	require.NoError(t, repo.Create(ctx, &models.WishlistItem{UserID: bob.ID, ItemName: "dominus frigidus", NameKey: "dominus frigidus"}))
}

func TestResourceStore_ListFiltersAndSorts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	voter := testutil.CreateUser(t, db, "voter", models.RoleUser)
	trades := NewTradeRepository(db)
	reactions := NewReactionRepository(db)

	var created []*models.Trade
	for i, name := range []string{"Sparkle Time Fedora", "Violet Valk", "Gear Bundle"} {
		category := models.TradeCategoryAccessories
		if i == 2 {
			category = models.TradeCategoryGear
		}
		trade := &models.Trade{UserID: owner.ID, ItemOffered: name, Category: category, Images: datatypes.JSONSlice[string]{}}
		require.NoError(t, trades.Create(ctx, trade))
		created = append(created, trade)
	}
	require.NoError(t, reactions.Insert(ctx, &models.Reaction{ResourceType: models.ResourceTrade, ResourceID: created[1].ID, UserID: voter.ID, Kind: models.ReactionUp}))

	items, total, err := trades.List(ctx, ResourceFilter{Category: string(models.TradeCategoryAccessories)}, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	items, _, err = trades.List(ctx, ResourceFilter{Sort: SortTop}, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, created[1].ID, items[0].ID)

	items, _, err = trades.List(ctx, ResourceFilter{Search: "valk"}, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Violet Valk", items[0].ItemOffered)
	assert.NotNil(t, items[0].Owner)

	items, total, err = trades.List(ctx, ResourceFilter{Sort: SortOld}, models.PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, created[2].ID, items[0].ID)
}

func TestResourceStore_UpdateFieldsNeverTouchesOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	intruder := testutil.CreateUser(t, db, "intruder", models.RoleUser)
	posts := NewForumRepository(db)

	post := &models.ForumPost{UserID: owner.ID, Title: "Hello", Content: "World"}
	require.NoError(t, posts.Create(ctx, post))
	assert.Equal(t, models.ForumCategoryGeneral, post.Category)

	updated, err := posts.UpdateFields(ctx, post.ID, map[string]any{"title": "Edited", "user_id": intruder.ID})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, owner.ID, updated.UserID)

	_, err = posts.UpdateFields(ctx, 999, map[string]any{"title": "ghost"})
	assert.True(t, IsNotFound(err))
}

func TestReportRepository_FlaggedSeverity(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db)
	target := testutil.CreateUser(t, db, "target", models.RoleUser)

	fileReports := func(targetType models.ResourceType, targetID uint, n int) {
		for i := 0; i < n; i++ {
			reporter := testutil.CreateUser(t, db, string(targetType)+"-reporter-"+string(rune('a'+i)), models.RoleUser)
			require.NoError(t, repo.Create(ctx, &models.Report{
				ReporterID:     reporter.ID,
				TargetType:     targetType,
				TargetID:       targetID,
				ReportedUserID: &target.ID,
				Reason:         models.ReportReasonSpam,
				Status:         models.ReportStatusPending,
			}))
		}
	}
	fileReports(models.ResourceTrade, 1, 5)
	fileReports(models.ResourceForumPost, 2, 3)
	fileReports(models.ResourceEvent, 3, 1)

	flagged, total, err := repo.Flagged(ctx, ReportFilter{Status: models.ReportStatusPending}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, flagged, 3)
	assert.Equal(t, models.SeverityHigh, flagged[0].Severity)
	assert.Equal(t, int64(5), flagged[0].ReportCount)
	assert.Equal(t, models.SeverityMedium, flagged[1].Severity)
	assert.Equal(t, models.SeverityLow, flagged[2].Severity)
	assert.False(t, flagged[0].LatestReportAt.IsZero())

	flagged, total, err = repo.Flagged(ctx, ReportFilter{Status: models.ReportStatusPending, MinSeverity: models.SeverityMedium}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, flagged, 2)
}

func TestReportRepository_ResolveSameTarget(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db)
	mod := testutil.CreateUser(t, db, "mod", models.RoleModerator)

	var reports []*models.Report
	for _, name := range []string{"r1", "r2"} {
		reporter := testutil.CreateUser(t, db, name, models.RoleUser)
		report := &models.Report{ReporterID: reporter.ID, TargetType: models.ResourceTrade, TargetID: 9, Reason: models.ReportReasonScam}
		require.NoError(t, repo.Create(ctx, report))
		reports = append(reports, report)
	}

	pending, err := repo.HasPending(ctx, reports[0].ReporterID, models.ResourceTrade, 9)
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, repo.Resolve(ctx, reports[0], models.ReportStatusResolved, mod.ID, "removed", true))

	all, err := repo.ListForTarget(ctx, models.ResourceTrade, 9)
	require.NoError(t, err)
	for _, r := range all {
		assert.Equal(t, models.ReportStatusResolved, r.Status)
		require.NotNil(t, r.ResolvedByID)
		assert.Equal(t, mod.ID, *r.ResolvedByID)
	}
}

func TestVouchRepository_UpsertAndStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewVouchRepository(db)
	target := testutil.CreateUser(t, db, "target", models.RoleUser)
	a := testutil.CreateUser(t, db, "a", models.RoleUser)
	b := testutil.CreateUser(t, db, "b", models.RoleUser)

	require.NoError(t, repo.Upsert(ctx, &models.Vouch{VoucherID: a.ID, TargetID: target.ID, Rating: 5}))
	require.NoError(t, repo.Upsert(ctx, &models.Vouch{VoucherID: b.ID, TargetID: target.ID, Rating: 4}))
	require.NoError(t, repo.Upsert(ctx, &models.Vouch{VoucherID: a.ID, TargetID: target.ID, Rating: 2, Comment: "changed my mind"}))

	stats, err := repo.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, int64(6), stats.Sum)

	vouches, total, err := repo.ListForUser(ctx, target.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, vouches, 2)
	assert.NotNil(t, vouches[0].Voucher)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)
	user := testutil.CreateUser(t, db, "user", models.RoleUser)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, repo.Create(ctx, &models.Session{UserID: user.ID, TokenID: "a", ExpiresAt: expires}))
	require.NoError(t, repo.Create(ctx, &models.Session{UserID: user.ID, TokenID: "b", ExpiresAt: time.Now().Add(-time.Hour)}))

	removed, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	sessions, err := repo.DeleteByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].TokenID)

	_, err = repo.GetByTokenID(ctx, "a")
	assert.True(t, IsNotFound(err))
}
