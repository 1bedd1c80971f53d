package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"tradehub/internal/auth"
	"tradehub/internal/cache"
	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/validation"
)

// AuthService registers accounts and manages login sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenIssuer
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput accepts either an email address or a username as Login.
type LoginInput struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClientMeta describes the device a session was opened from.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return s.openSession(ctx, user, meta)
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return models.NewConflictError("An account with this email already exists")
	} else if !repository.IsNotFound(err) {
		return err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return models.NewConflictError("Username is already taken")
	} else if !repository.IsNotFound(err) {
		return err
	}
	return nil
}

// Login verifies the password and opens a session. Banned and deactivated
// accounts are refused even with the right password.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*AuthResult, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" {
		login = strings.TrimSpace(in.Email)
	}
	if login == "" || in.Password == "" {
		return nil, models.NewValidationError("Login and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetByEmail(ctx, login)
	} else {
		user, err = s.users.GetByUsername(ctx, login)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := auth.CheckAccount(user); err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, meta)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta ClientMeta) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	session := &models.Session{
		UserID:    user.ID,
		TokenID:   claims.ID,
		UserAgent: truncate(meta.UserAgent, 255),
		IP:        truncate(meta.IP, 64),
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout ends the session behind the presented token and blacklists its
// jti until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if err := s.sessions.DeleteByTokenID(ctx, principal.TokenID); err != nil {
		return err
	}
	s.blacklist(ctx, principal.TokenID, principal.ExpiresAt)
	return nil
}

// LogoutAll ends every session of the user and reports how many were closed.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int, error) {
	removed, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, session := range removed {
		s.blacklist(ctx, session.TokenID, session.ExpiresAt)
	}
	return len(removed), nil
}

func (s *AuthService) blacklist(ctx context.Context, tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := cache.Flag(ctx, cache.BlacklistKey(tokenID), ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to blacklist token", slog.String("error", err.Error()))
	}
}

// Me returns the caller's own account.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// truncate caps s at n bytes without splitting a multi-byte rune. Invalid
// sequences from the client are dropped first.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
