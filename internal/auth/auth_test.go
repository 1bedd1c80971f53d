package auth

import (
	"context"
	"testing"
	"time"

	"tradehub/internal/cache"
	"tradehub/internal/config"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret-with-enough-entropy-0123456789",
		JWTIssuer:     "tradehub-api",
		JWTAudience:   "tradehub-app",
		TokenTTLHours: 1,
	}
}

type fixture struct {
	auth     *Authenticator
	tokens   *TokenIssuer
	users    repository.UserRepository
	sessions repository.SessionRepository
	user     *models.User
	mr       *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	tokens := NewTokenIssuer(testConfig())

	return &fixture{
		auth:     NewAuthenticator(tokens, users, sessions),
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		user:     testutil.CreateUser(t, db, "trader", models.RoleUser),
		mr:       mr,
	}
}

func (f *fixture) login(t *testing.T) (string, *Claims) {
	t.Helper()
	token, claims, err := f.tokens.Issue(f.user)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(context.Background(), &models.Session{
		UserID:    f.user.ID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}))
	return "Bearer " + token, claims
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	tokens := NewTokenIssuer(testConfig())
	user := &models.User{ID: 12, Username: "trader"}

	raw, issued, err := tokens.Issue(user)
	require.NoError(t, err)

	parsed, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, parsed.ID)
	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
	assert.Equal(t, "trader", parsed.Username)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	tokens := NewTokenIssuer(testConfig())
	user := &models.User{ID: 1, Username: "trader"}

	otherCfg := testConfig()
	otherCfg.JWTAudience = "someone-else"
	foreign, _, err := NewTokenIssuer(otherCfg).Issue(user)
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	otherCfg = testConfig()
	otherCfg.JWTSecret = "a-different-secret-that-is-long-enough-xx"
	forged, _, err := NewTokenIssuer(otherCfg).Issue(user)
	require.NoError(t, err)
	_, err = tokens.Parse(forged)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	expiredIssuer := NewTokenIssuer(testConfig())
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(user)
	require.NoError(t, err)
	_, err = tokens.Parse(expired)
	require.Error(t, err)
	assert.Equal(t, "Token has expired", err.Error())

	_, err = tokens.Parse("not-a-jwt")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Tradeup2024")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Tradeup2024"))
	assert.False(t, CheckPassword(hash, "tradeup2024"))
}

func TestAuthenticator_ValidSession(t *testing.T) {
	f := setup(t)
	bearer, _ := f.login(t)

	identity, err := f.auth.Authenticate(context.Background(), bearer)
	require.NoError(t, err)
	assert.Equal(t, models.CallerIdentity{UserID: f.user.ID, Username: "trader", Role: models.RoleUser}, identity)
}

func TestAuthenticator_MissingOrRevoked(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.auth.Authenticate(ctx, "")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	bearer, claims := f.login(t)
	require.NoError(t, f.sessions.DeleteByTokenID(ctx, claims.ID))
	_, err = f.auth.Authenticate(ctx, bearer)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	bearer, claims = f.login(t)
	require.NoError(t, cache.Flag(ctx, cache.BlacklistKey(claims.ID), time.Minute))
	_, err = f.auth.Authenticate(ctx, bearer)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthenticator_BanAppliesToLiveToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bearer, _ := f.login(t)

	_, err := f.auth.Authenticate(ctx, bearer)
	require.NoError(t, err)

	_, err = f.users.UpdateFields(ctx, f.user.ID, map[string]any{"role": models.RoleBanned})
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, bearer)
	require.Error(t, err)
	assert.Equal(t, 403, models.StatusFor(err))
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ReasonAccountBanned, appErr.Reason)
}

func TestAuthenticator_BanWinsOverStaleCacheRefill(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bearer, _ := f.login(t)

	// A profile read loads the unbanned row, then the ban commits and evicts
	// the entry, then the slow reader writes its stale copy back.
	stale, err := f.users.GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.users.UpdateFields(ctx, f.user.ID, map[string]any{"role": models.RoleBanned})
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(cache.UserKey(f.user.ID)))
	require.NoError(t, cache.SetJSON(ctx, cache.UserKey(f.user.ID), stale, cache.UserTTL))

	cached, err := f.users.GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, cached.Role)

	_, err = f.auth.Authenticate(ctx, bearer)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ReasonAccountBanned, appErr.Reason)
}

func TestAuthenticator_InactiveAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bearer, _ := f.login(t)

	_, err := f.users.UpdateFields(ctx, f.user.ID, map[string]any{"is_active": false})
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, bearer)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)
	assert.Equal(t, models.ReasonAccountInactive, appErr.Reason)
}

func TestCheckAccount_BanWinsOverActive(t *testing.T) {
	err := CheckAccount(&models.User{Role: models.RoleBanned, IsActive: true})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ReasonAccountBanned, appErr.Reason)

	assert.NoError(t, CheckAccount(&models.User{Role: models.RoleVerified, IsActive: true}))
}
