package auth

import (
	"context"
	"time"

	"tradehub/internal/cache"
	"tradehub/internal/models"
	"tradehub/internal/observability"
	"tradehub/internal/repository"
)

// Principal is an authenticated caller together with the credential used.
type Principal struct {
	Identity  models.CallerIdentity
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator resolves bearer tokens to callers. It keeps no request state.
type Authenticator struct {
	tokens   *TokenIssuer
	users    repository.UserRepository
	sessions repository.SessionRepository
}

// NewAuthenticator wires the token issuer to the user and session stores.
func NewAuthenticator(tokens *TokenIssuer, users repository.UserRepository, sessions repository.SessionRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, sessions: sessions}
}

// Authenticate returns the caller identity for a bearer token.
func (a *Authenticator) Authenticate(ctx context.Context, bearer string) (models.CallerIdentity, error) {
	principal, err := a.Resolve(ctx, bearer)
	if err != nil {
		return models.CallerIdentity{}, err
	}
	return principal.Identity, nil
}

// Resolve validates the token, its session and the account state. The
// account is read from the database on every call so bans and deactivation
// apply to live tokens even while a cached copy is stale.
func (a *Authenticator) Resolve(ctx context.Context, bearer string) (*Principal, error) {
	token, ok := BearerToken(bearer)
	if !ok {
		return nil, deny("missing_token", models.NewUnauthorizedError("Authorization required"))
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, deny("invalid_token", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, deny("invalid_token", models.NewUnauthorizedError("Invalid user ID in token"))
	}

	if revoked, err := cache.Exists(ctx, cache.BlacklistKey(claims.ID)); err == nil && revoked {
		return nil, deny("revoked", models.NewUnauthorizedError("Token has been revoked"))
	}

	session, err := a.sessions.GetByTokenID(ctx, claims.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, deny("revoked", models.NewUnauthorizedError("Session has ended"))
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, deny("invalid_token", models.NewUnauthorizedError("Invalid or expired token"))
	}

	user, err := a.users.GetAccount(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, deny("unknown_user", models.NewUnauthorizedError("Account no longer exists"))
		}
		return nil, err
	}
	if err := CheckAccount(user); err != nil {
		return nil, deny("account_state", err)
	}

	return &Principal{
		Identity: models.CallerIdentity{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CheckAccount rejects banned and deactivated accounts. The two gates are
// independent: a banned account is refused even when active.
func CheckAccount(user *models.User) error {
	if user.IsBanned() {
		return models.NewForbiddenError(models.ReasonAccountBanned, "This account has been banned")
	}
	if !user.IsActive {
		return models.NewForbiddenError(models.ReasonAccountInactive, "This account has been deactivated")
	}
	return nil
}

func deny(reason string, err error) error {
	observability.AuthFailures.WithLabelValues(reason).Inc()
	return err
}
