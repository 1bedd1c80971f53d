package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tradehub/internal/models"
	"tradehub/internal/notifications"
	"tradehub/internal/repository"
	"tradehub/internal/testutil"

	"gorm.io/gorm"
)

// recordingSink captures audit events in memory.
type recordingSink struct {
	mu     sync.Mutex
	events []notifications.AuditEvent
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Close() error { return nil }
func (s *recordingSink) Publish(_ context.Context, event notifications.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	db *gorm.DB

	users     repository.UserRepository
	reactions repository.ReactionRepository
	comments  repository.CommentRepository

	lifecycle  *LifecycleService
	trades     *TradeService
	forum      *ForumService
	wishlist   *WishlistService
	events     *EventService
	commentSvc *CommentService
	reactSvc   *ReactionService
	userSvc    *UserService
	moderation *ModerationService

	audit *recordingSink

	admin, mod, alice, bob *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	users := repository.NewUserRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	forumRepo := repository.NewForumRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	eventRepo := repository.NewEventRepository(db)
	comments := repository.NewCommentRepository(db)
	reactions := repository.NewReactionRepository(db)
	reports := repository.NewReportRepository(db)
	vouches := repository.NewVouchRepository(db)

	sink := &recordingSink{}
	notifier := notifications.NewNotifier(nil, sink)

	lifecycle := NewLifecycleService(repository.NewLifecycleRepository(db), tradeRepo, forumRepo, wishlistRepo, eventRepo, comments, nil)
	engagement := NewEngagement(reactions, comments)

	return &testEnv{
		db:         db,
		users:      users,
		reactions:  reactions,
		comments:   comments,
		lifecycle:  lifecycle,
		trades:     NewTradeService(tradeRepo, engagement, lifecycle),
		forum:      NewForumService(forumRepo, engagement, lifecycle, notifier),
		wishlist:   NewWishlistService(wishlistRepo, lifecycle),
		events:     NewEventService(eventRepo, engagement, lifecycle),
		commentSvc: NewCommentService(comments, forumRepo, lifecycle),
		reactSvc:   NewReactionService(reactions, lifecycle),
		userSvc:    NewUserService(users, vouches),
		moderation: NewModerationService(reports, users, vouches, lifecycle, notifier),
		audit:      sink,
		admin:      testutil.CreateUser(t, db, "root", models.RoleAdmin),
		mod:        testutil.CreateUser(t, db, "warden", models.RoleModerator),
		alice:      testutil.CreateUser(t, db, "alice", models.RoleUser),
		bob:        testutil.CreateUser(t, db, "bob", models.RoleUser),
	}
}

func (e *testEnv) createTrade(t *testing.T, owner *models.User, item string) *models.Trade {
	t.Helper()
	trade, err := e.trades.Create(context.Background(), testutil.Caller(owner), CreateTradeInput{
		ItemOffered: item,
		Category:    string(models.TradeCategoryLimiteds),
	})
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	return trade
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !models.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func assertReason(t *testing.T, err error, code, reason string) {
	t.Helper()
	assertCode(t, err, code)
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Reason != reason {
		t.Fatalf("expected reason %s, got %v", reason, err)
	}
}
