package service

import (
	"context"
	"testing"
	"time"

	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeService_OwnershipIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Dominus")

	_, err := env.trades.Update(ctx, testutil.Caller(env.bob), trade.ID, UpdateTradeInput{ItemOffered: strPtr("stolen")})
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	// Staff may delete but never edit someone else's listing.
	_, err = env.trades.Update(ctx, testutil.Caller(env.mod), trade.ID, UpdateTradeInput{ItemOffered: strPtr("edited")})
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	err = env.trades.Delete(ctx, testutil.Caller(env.bob), trade.ID)
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	got, err := env.trades.Get(ctx, 0, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dominus", got.ItemOffered)
	assert.Equal(t, env.alice.ID, got.UserID)

	require.NoError(t, env.trades.Delete(ctx, testutil.Caller(env.mod), trade.ID))
	_, err = env.trades.Get(ctx, 0, trade.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestTradeService_CreateValidatesAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := testutil.Caller(env.alice)

	_, err := env.trades.Create(ctx, caller, CreateTradeInput{ItemOffered: "Hat", Category: "weapons"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.trades.Create(ctx, caller, CreateTradeInput{ItemOffered: "   ", Category: "gear"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.trades.Create(ctx, caller, CreateTradeInput{
		ItemOffered: "Hat",
		Category:    "gear",
		Images:      []string{"a", "b", "c", "d", "e", "f"},
	})
	assertCode(t, err, models.CodeValidation)

	trade, err := env.trades.Create(ctx, caller, CreateTradeInput{
		ItemOffered: "  Hat ",
		Category:    "gear",
		Images:      []string{" /uploads/1/a.png ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hat", trade.ItemOffered)
	assert.Equal(t, models.TradeStatusOpen, trade.Status)
	assert.Equal(t, []string{"/uploads/1/a.png"}, []string(trade.Images))
	assert.Equal(t, models.ReactionStateNone, trade.Reactions.State)
}

func TestTradeService_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := testutil.Caller(env.alice)
	trade := env.createTrade(t, env.alice, "Valkyrie")

	_, err := env.trades.Update(ctx, caller, trade.ID, UpdateTradeInput{Status: strPtr("completed")})
	assertCode(t, err, models.CodeValidation)

	updated, err := env.trades.Update(ctx, caller, trade.ID, UpdateTradeInput{Status: strPtr("pending")})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, updated.Status)

	updated, err = env.trades.Update(ctx, caller, trade.ID, UpdateTradeInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusCompleted, updated.Status)

	_, err = env.trades.Update(ctx, caller, trade.ID, UpdateTradeInput{Status: strPtr("cancelled")})
	assertCode(t, err, models.CodeValidation)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.TradeStatus
		want     bool
	}{
		{models.TradeStatusOpen, models.TradeStatusPending, true},
		{models.TradeStatusOpen, models.TradeStatusCompleted, false},
		{models.TradeStatusPending, models.TradeStatusCompleted, true},
		{models.TradeStatusPending, models.TradeStatusOpen, false},
		{models.TradeStatusOpen, models.TradeStatusCancelled, true},
		{models.TradeStatusPending, models.TradeStatusCancelled, true},
		{models.TradeStatusCompleted, models.TradeStatusCancelled, false},
		{models.TradeStatusCancelled, models.TradeStatusOpen, false},
		{models.TradeStatusOpen, models.TradeStatusOpen, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestLifecycle_DeleteCascadesThroughServices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Sparkle Time Fedora")

	_, err := env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceTrade, trade.ID, CreateCommentInput{Content: "offer?"})
	require.NoError(t, err)
	_, err = env.reactSvc.Vote(ctx, testutil.Caller(env.bob), models.ResourceTrade, trade.ID, VoteInput{Direction: "up"})
	require.NoError(t, err)

	got, err := env.trades.Get(ctx, env.bob.ID, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentsCount)
	assert.Equal(t, models.ReactionStateUp, got.Reactions.State)

	require.NoError(t, env.trades.Delete(ctx, testutil.Caller(env.alice), trade.ID))

	_, err = env.trades.Get(ctx, 0, trade.ID)
	assertCode(t, err, models.CodeNotFound)
	_, err = env.commentSvc.List(ctx, models.ResourceTrade, trade.ID, models.PageRequest{})
	assertCode(t, err, models.CodeNotFound)

	remaining, total, err := env.comments.ListByResource(ctx, models.ResourceTrade, trade.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Zero(t, total)

	var reactionRows int64
	require.NoError(t, env.db.Model(&models.Reaction{}).Count(&reactionRows).Error)
	assert.Zero(t, reactionRows)
}

func TestLifecycle_ForceDeleteRequiresModeration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Hat")

	_, err := env.lifecycle.ForceDelete(ctx, testutil.Caller(env.alice), models.ResourceTrade, trade.ID)
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	_, err = env.lifecycle.ForceDelete(ctx, testutil.Caller(env.mod), models.ResourceTrade, trade.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.Delete(ctx, testutil.Caller(env.mod), models.ResourceUser, env.alice.ID)
	assertCode(t, err, models.CodeValidation)
}

func TestWishlistService_DuplicateNamesPerOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.wishlist.Create(ctx, testutil.Caller(env.alice), CreateWishlistItemInput{ItemName: "Valkyrie Helm"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxPrice, first.MaxPrice)
	assert.Equal(t, models.WishlistPriorityMedium, first.Priority)
	assert.Equal(t, models.WishlistStatusWanted, first.Status)

	_, err = env.wishlist.Create(ctx, testutil.Caller(env.alice), CreateWishlistItemInput{ItemName: "valkyrie helm "})
	assertCode(t, err, models.CodeConflict)

	_, err = env.wishlist.Create(ctx, testutil.Caller(env.bob), CreateWishlistItemInput{ItemName: "valkyrie helm"})
	require.NoError(t, err)

	second, err := env.wishlist.Create(ctx, testutil.Caller(env.alice), CreateWishlistItemInput{ItemName: "Dominus", Priority: "high"})
	require.NoError(t, err)

	_, err = env.wishlist.Update(ctx, testutil.Caller(env.alice), second.ID, UpdateWishlistItemInput{ItemName: strPtr("VALKYRIE HELM")})
	assertCode(t, err, models.CodeConflict)

	// Renaming to a different case of its own name is allowed.
	renamed, err := env.wishlist.Update(ctx, testutil.Caller(env.alice), first.ID, UpdateWishlistItemInput{ItemName: strPtr("VALKYRIE HELM")})
	require.NoError(t, err)
	assert.Equal(t, "VALKYRIE HELM", renamed.ItemName)

	// A deleted item frees its name.
	require.NoError(t, env.wishlist.Delete(ctx, testutil.Caller(env.alice), first.ID))
	_, err = env.wishlist.Create(ctx, testutil.Caller(env.alice), CreateWishlistItemInput{ItemName: "Valkyrie Helm"})
	require.NoError(t, err)

	page, err := env.wishlist.ListForUser(ctx, env.alice.ID, repository.ResourceFilter{}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total)
}

func TestEventService_Schedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := testutil.Caller(env.alice)
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	before := start.Add(-time.Hour)
	after := start.Add(2 * time.Hour)

	_, err := env.events.Create(ctx, caller, CreateEventInput{Title: "Giveaway", EventType: "giveaway", StartsAt: start, EndsAt: &before})
	assertCode(t, err, models.CodeValidation)

	_, err = env.events.Create(ctx, caller, CreateEventInput{Title: "Giveaway", EventType: "raffle", StartsAt: start})
	assertCode(t, err, models.CodeValidation)

	event, err := env.events.Create(ctx, caller, CreateEventInput{Title: "Giveaway", EventType: "giveaway", StartsAt: start, EndsAt: &after})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusUpcoming, event.Status)

	// Moving the start past the stored end is rejected.
	late := after.Add(time.Hour)
	_, err = env.events.Update(ctx, caller, event.ID, UpdateEventInput{StartsAt: &late})
	assertCode(t, err, models.CodeValidation)

	updated, err := env.events.Update(ctx, caller, event.ID, UpdateEventInput{Status: strPtr("active")})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusActive, updated.Status)
}

func TestForumService_ModerationFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.forum.Create(ctx, testutil.Caller(env.alice), CreateForumPostInput{Title: "Rules", Content: "Read me"})
	require.NoError(t, err)
	assert.Equal(t, models.ForumCategoryGeneral, post.Category)

	_, err = env.forum.SetPinned(ctx, testutil.Caller(env.alice), post.ID, true)
	assertReason(t, err, models.CodeForbidden, models.ReasonInsufficientRole)

	pinned, err := env.forum.SetPinned(ctx, testutil.Caller(env.mod), post.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	locked, err := env.forum.SetLocked(ctx, testutil.Caller(env.mod), post.ID, true)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked())

	_, err = env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceForumPost, post.ID, CreateCommentInput{Content: "late"})
	assertCode(t, err, models.CodeValidation)

	_, err = env.forum.SetLocked(ctx, testutil.Caller(env.mod), post.ID, false)
	require.NoError(t, err)
	_, err = env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceForumPost, post.ID, CreateCommentInput{Content: "now"})
	require.NoError(t, err)

	assert.Equal(t, []string{"pin", "lock", "lock"}, env.audit.actions())
}

func TestCommentService_Rules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trade := env.createTrade(t, env.alice, "Hat")

	_, err := env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceTrade, 9999, CreateCommentInput{Content: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceTrade, trade.ID, CreateCommentInput{Content: "  "})
	assertCode(t, err, models.CodeValidation)

	long := make([]rune, models.MaxCommentLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceTrade, trade.ID, CreateCommentInput{Content: string(long)})
	assertCode(t, err, models.CodeValidation)

	comment, err := env.commentSvc.Create(ctx, testutil.Caller(env.bob), models.ResourceTrade, trade.ID, CreateCommentInput{Content: "interested"})
	require.NoError(t, err)

	// The trade owner cannot remove someone else's comment; staff can.
	err = env.commentSvc.Delete(ctx, testutil.Caller(env.alice), comment.ID)
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)
	require.NoError(t, env.commentSvc.Delete(ctx, testutil.Caller(env.mod), comment.ID))

	page, err := env.commentSvc.List(ctx, models.ResourceTrade, trade.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
