// Package seed fills a database with demo marketplace data. It is intended
// for development and testing only.
package seed

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"tradehub/internal/auth"
	"tradehub/internal/database"
	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is shared by every demo account.
const DefaultPassword = "TradeHub2024"

// Options controls how much demo data is generated.
type Options struct {
	Users           int
	TradesPerUser   int
	PostsPerUser    int
	EventsPerUser   int
	WishlistPerUser int
	CommentsPerItem int
	Vouches         int
	Reports         int
	// Reset wipes every table before seeding.
	Reset    bool
	Password string
	// RandSeed fixes the generator for reproducible data; 0 picks one from the clock.
	RandSeed int64
}

// DefaultOptions returns a small but varied data set.
func DefaultOptions() Options {
	return Options{
		Users:           12,
		TradesPerUser:   3,
		PostsPerUser:    2,
		EventsPerUser:   1,
		WishlistPerUser: 3,
		CommentsPerItem: 2,
		Vouches:         20,
		Reports:         6,
		Password:        DefaultPassword,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Trades    int
	Posts     int
	Events    int
	Wishlist  int
	Comments  int
	Reactions int
	Vouches   int
	Reports   int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d trades=%d posts=%d events=%d wishlist=%d comments=%d reactions=%d vouches=%d reports=%d",
		s.Users, s.Trades, s.Posts, s.Events, s.Wishlist, s.Comments, s.Reactions, s.Vouches, s.Reports)
}

type target struct {
	kind    models.ResourceType
	id      uint
	ownerID uint
}

// Seed generates demo data according to opts.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.RandSeed == 0 {
		opts.RandSeed = time.Now().UnixNano()
	}

	if opts.Reset {
		if err := Reset(ctx, db); err != nil {
			return sum, err
		}
	}

	f := newFactory(db, opts)
	users, err := f.users(ctx, opts.Users)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	var targets []target
	for _, user := range users {
		for range opts.TradesPerUser {
			trade, err := f.trade(ctx, user)
			if err != nil {
				return sum, err
			}
			targets = append(targets, target{models.ResourceTrade, trade.ID, user.ID})
			sum.Trades++
		}
		for range opts.PostsPerUser {
			post, err := f.forumPost(ctx, user)
			if err != nil {
				return sum, err
			}
			targets = append(targets, target{models.ResourceForumPost, post.ID, user.ID})
			sum.Posts++
		}
		for range opts.EventsPerUser {
			event, err := f.event(ctx, user)
			if err != nil {
				return sum, err
			}
			targets = append(targets, target{models.ResourceEvent, event.ID, user.ID})
			sum.Events++
		}
		n, err := f.wishlist(ctx, user, opts.WishlistPerUser)
		if err != nil {
			return sum, err
		}
		sum.Wishlist += n
	}

	for _, t := range targets {
		comments, err := f.comments(ctx, t, users, opts.CommentsPerItem)
		if err != nil {
			return sum, err
		}
		sum.Comments += comments
		reactions, err := f.reactions(ctx, t, users)
		if err != nil {
			return sum, err
		}
		sum.Reactions += reactions
	}

	if sum.Vouches, err = f.vouches(ctx, users, opts.Vouches); err != nil {
		return sum, err
	}
	if sum.Reports, err = f.reports(ctx, targets, users, opts.Reports); err != nil {
		return sum, err
	}

	middleware.Logger.Info("seed completed", "summary", sum.String())
	return sum, nil
}

// Reset deletes every row of every managed table, children first.
func Reset(ctx context.Context, db *gorm.DB) error {
	tables := database.PersistentModels()
	slices.Reverse(tables)
	for _, model := range tables {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", model, err)
		}
	}
	return nil
}

type factory struct {
	db      *gorm.DB
	fake    *gofakeit.Faker
	opts    Options
	userSvc *service.UserService
}

func newFactory(db *gorm.DB, opts Options) *factory {
	return &factory{
		db:      db,
		fake:    gofakeit.New(opts.RandSeed),
		opts:    opts,
		userSvc: service.NewUserService(repository.NewUserRepository(db), repository.NewVouchRepository(db)),
	}
}

// pastTime spreads created_at over the last 60 days.
func (f *factory) pastTime() time.Time {
	back := time.Duration(f.fake.Number(0, 60*24)) * time.Hour
	return time.Now().UTC().Add(-back)
}

func (f *factory) users(ctx context.Context, count int) ([]*models.User, error) {
	if count <= 0 {
		return nil, nil
	}
	hash, err := auth.HashPassword(f.opts.Password)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	users := make([]*models.User, 0, count)
	for i := range count {
		username := f.username(i)
		user := &models.User{
			Username:         username,
			Email:            strings.ToLower(username) + "@demo.tradehub.local",
			Password:         hash,
			Bio:              f.fake.Sentence(10),
			Role:             f.role(i),
			IsActive:         true,
			CredibilityScore: decimal.Zero,
			CreatedAt:        f.pastTime(),
		}
		if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// username yields a valid, unique handle. The index suffix avoids collisions.
func (f *factory) username(i int) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, f.fake.Username())
	if len(base) < 3 {
		base = "trader"
	}
	suffix := fmt.Sprintf("_%d", i+1)
	if len(base)+len(suffix) > 32 {
		base = base[:32-len(suffix)]
	}
	return base + suffix
}

// role gives the first accounts staff and trusted roles so every view has data.
func (f *factory) role(i int) models.Role {
	switch i {
	case 0:
		return models.RoleAdmin
	case 1:
		return models.RoleModerator
	case 2:
		return models.RoleMiddleman
	case 3, 4:
		return models.RoleVerified
	default:
		return models.RoleUser
	}
}

var (
	tradeCategories = []string{
		string(models.TradeCategoryLimiteds), string(models.TradeCategoryAccessories),
		string(models.TradeCategoryGear), string(models.TradeCategoryEventItems), string(models.TradeCategoryGamepasses),
	}
	tradeStatuses = []string{
		string(models.TradeStatusOpen), string(models.TradeStatusOpen), string(models.TradeStatusPending),
		string(models.TradeStatusCompleted), string(models.TradeStatusCancelled),
	}
	forumCategories = []string{
		string(models.ForumCategoryGeneral), string(models.ForumCategoryTrading), string(models.ForumCategoryNews),
		string(models.ForumCategoryHelp), string(models.ForumCategoryOffTopic),
	}
	eventTypes = []string{
		string(models.EventTypeGiveaway), string(models.EventTypeTournament),
		string(models.EventTypeTradeFair), string(models.EventTypeCommunity),
	}
	priorities = []string{
		string(models.WishlistPriorityHigh), string(models.WishlistPriorityMedium), string(models.WishlistPriorityLow),
	}
	reportReasons = []string{
		string(models.ReportReasonSpam), string(models.ReportReasonScam), string(models.ReportReasonHarassment),
		string(models.ReportReasonInappropriate), string(models.ReportReasonOther),
	}
)

func (f *factory) images() datatypes.JSONSlice[string] {
	n := f.fake.Number(0, 2)
	images := make(datatypes.JSONSlice[string], 0, n)
	for range n {
		images = append(images, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.fake.UUID()))
	}
	return images
}

func (f *factory) trade(ctx context.Context, owner *models.User) (*models.Trade, error) {
	trade := &models.Trade{
		UserID:        owner.ID,
		ItemOffered:   f.fake.ProductName(),
		ItemRequested: f.fake.ProductName(),
		Description:   f.fake.Paragraph(1, 3, 12, " "),
		Category:      models.TradeCategory(f.fake.RandomString(tradeCategories)),
		Status:        models.TradeStatus(f.fake.RandomString(tradeStatuses)),
		Images:        f.images(),
		CreatedAt:     f.pastTime(),
	}
	if err := f.db.WithContext(ctx).Create(trade).Error; err != nil {
		return nil, fmt.Errorf("create trade: %w", err)
	}
	return trade, nil
}

func (f *factory) forumPost(ctx context.Context, owner *models.User) (*models.ForumPost, error) {
	post := &models.ForumPost{
		UserID:    owner.ID,
		Title:     strings.TrimSuffix(f.fake.Sentence(6), "."),
		Content:   f.fake.Paragraph(2, 4, 14, "\n\n"),
		Category:  models.ForumCategory(f.fake.RandomString(forumCategories)),
		Status:    models.ForumStatusOpen,
		Images:    f.images(),
		CreatedAt: f.pastTime(),
	}
	if owner.Role.IsStaff() {
		post.Pinned = f.fake.Bool()
	}
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create forum post: %w", err)
	}
	return post, nil
}

func (f *factory) event(ctx context.Context, owner *models.User) (*models.Event, error) {
	starts := time.Now().UTC().Add(time.Duration(f.fake.Number(-72, 24*30)) * time.Hour).Truncate(time.Hour)
	ends := starts.Add(time.Duration(f.fake.Number(1, 48)) * time.Hour)
	status := models.EventStatusUpcoming
	now := time.Now().UTC()
	switch {
	case ends.Before(now):
		status = models.EventStatusEnded
	case starts.Before(now):
		status = models.EventStatusActive
	}
	event := &models.Event{
		UserID:      owner.ID,
		Title:       strings.TrimSuffix(f.fake.Sentence(4), "."),
		Description: f.fake.Paragraph(1, 2, 12, " "),
		EventType:   models.EventType(f.fake.RandomString(eventTypes)),
		Prize:       f.fake.ProductName(),
		StartsAt:    starts,
		EndsAt:      &ends,
		Status:      status,
		Images:      f.images(),
		CreatedAt:   f.pastTime(),
	}
	if err := f.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (f *factory) wishlist(ctx context.Context, owner *models.User, count int) (int, error) {
	seen := make(map[string]struct{}, count)
	created := 0
	for attempt := 0; created < count && attempt < count*4; attempt++ {
		name := f.fake.ProductName()
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		maxPrice := models.DefaultMaxPrice
		if f.fake.Bool() {
			maxPrice = fmt.Sprintf("%.0f R$", f.fake.Price(100, 50000))
		}
		item := &models.WishlistItem{
			UserID:      owner.ID,
			ItemName:    name,
			NameKey:     key,
			Description: f.fake.Sentence(8),
			MaxPrice:    maxPrice,
			Priority:    models.WishlistPriority(f.fake.RandomString(priorities)),
			Status:      models.WishlistStatusWanted,
			CreatedAt:   f.pastTime(),
		}
		if err := f.db.WithContext(ctx).Create(item).Error; err != nil {
			return created, fmt.Errorf("create wishlist item: %w", err)
		}
		created++
	}
	return created, nil
}

// others returns up to n users other than ownerID, in a shuffled order.
func (f *factory) others(users []*models.User, ownerID uint, n int) []*models.User {
	pool := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != ownerID {
			pool = append(pool, u)
		}
	}
	f.fake.ShuffleAnySlice(pool)
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

func (f *factory) comments(ctx context.Context, t target, users []*models.User, perItem int) (int, error) {
	if perItem <= 0 {
		return 0, nil
	}
	authors := f.others(users, t.ownerID, f.fake.Number(0, perItem))
	for _, author := range authors {
		comment := &models.Comment{
			ResourceType: t.kind,
			ResourceID:   t.id,
			UserID:       author.ID,
			Content:      f.fake.Sentence(f.fake.Number(4, 16)),
			CreatedAt:    f.pastTime(),
		}
		if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
			return 0, fmt.Errorf("create comment: %w", err)
		}
	}
	return len(authors), nil
}

// reactions casts likes on events and votes elsewhere, one per user at most.
func (f *factory) reactions(ctx context.Context, t target, users []*models.User) (int, error) {
	voters := f.others(users, t.ownerID, f.fake.Number(0, len(users)))
	for _, voter := range voters {
		kind := models.ReactionUp
		switch {
		case t.kind == models.ResourceEvent:
			kind = models.ReactionLike
		case f.fake.Number(1, 4) == 1:
			kind = models.ReactionDown
		}
		reaction := &models.Reaction{ResourceType: t.kind, ResourceID: t.id, UserID: voter.ID, Kind: kind}
		if err := f.db.WithContext(ctx).Create(reaction).Error; err != nil {
			return 0, fmt.Errorf("create reaction: %w", err)
		}
	}
	return len(voters), nil
}

// vouches goes through the user service so credibility scores stay consistent.
func (f *factory) vouches(ctx context.Context, users []*models.User, count int) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	created := 0
	for range count {
		pair := f.others(users, 0, 2)
		voucher, rated := pair[0], pair[1]
		caller := models.CallerIdentity{UserID: voucher.ID, Username: voucher.Username, Role: voucher.Role}
		_, err := f.userSvc.Vouch(ctx, caller, rated.ID, service.VouchInput{
			Rating:  f.fake.Number(2, 5),
			Comment: f.fake.Sentence(6),
		})
		if err != nil {
			return created, fmt.Errorf("vouch %d -> %d: %w", voucher.ID, rated.ID, err)
		}
		created++
	}
	return created, nil
}

// reports piles several complaints onto a few targets so the moderation
// queue shows every severity.
func (f *factory) reports(ctx context.Context, targets []target, users []*models.User, count int) (int, error) {
	if len(targets) == 0 || count <= 0 {
		return 0, nil
	}
	created := 0
	for created < count {
		t := targets[f.fake.Number(0, len(targets)-1)]
		reporters := f.others(users, t.ownerID, f.fake.Number(1, min(6, count-created)))
		if len(reporters) == 0 {
			break
		}
		for _, reporter := range reporters {
			ownerID := t.ownerID
			report := &models.Report{
				ReporterID:     reporter.ID,
				TargetType:     t.kind,
				TargetID:       t.id,
				ReportedUserID: &ownerID,
				Reason:         models.ReportReason(f.fake.RandomString(reportReasons)),
				Details:        f.fake.Sentence(10),
				Status:         models.ReportStatusPending,
			}
			if err := f.db.WithContext(ctx).Create(report).Error; err != nil {
				return created, fmt.Errorf("create report: %w", err)
			}
			created++
		}
	}
	return created, nil
}
