// Package bootstrap wires the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradehub/internal/auth"
	"tradehub/internal/cache"
	"tradehub/internal/config"
	"tradehub/internal/database"
	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/seed"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo loads demo data when the database has no users yet.
	SeedDemo bool
	// PruneSessions deletes expired session rows on startup.
	PruneSessions bool
}

// InitRuntime connects to the database and Redis, then applies the
// development conveniences enabled by cfg and opts.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means Redis is unreachable; the API degrades without cache.
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := Prepare(context.Background(), cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

// Prepare runs the post-connect steps against an already open database.
func Prepare(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if err := ensureDevRootAdmin(ctx, cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.PruneSessions {
		removed, err := repository.NewSessionRepository(db).DeleteExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to prune expired sessions: %w", err)
		}
		if removed > 0 {
			middleware.Logger.Info("pruned expired sessions", "count", removed)
		}
	}

	if opts.SeedDemo {
		var users int64
		if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		// The root admin alone does not count as seeded data.
		if users <= 1 {
			if _, err := seed.Seed(ctx, db, seed.DefaultOptions()); err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
		}
	}
	return nil
}

// ensureDevRootAdmin makes sure a known admin account exists in development
// so the moderation routes are usable on a fresh database.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if cfg.Env != "development" || cfg.DevRootPassword == "" {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "tradehub_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@tradehub.local"
	}

	hashed, err := auth.HashPassword(cfg.DevRootPassword)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	var rootID uint
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username:         username,
				Email:            email,
				Password:         hashed,
				Role:             models.RoleAdmin,
				IsActive:         true,
				CredibilityScore: decimal.Zero,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			// Keep the stored password; only restore the role and active flag.
			if err := tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(map[string]any{
				"role":      models.RoleAdmin,
				"is_active": true,
			}).Error; err != nil {
				return err
			}
		}
		rootID = root.ID
		return nil
	}); err != nil {
		return err
	}

	cache.InvalidateUser(ctx, rootID)
	middleware.Logger.Info("development root admin ensured", "user_id", rootID, "username", username)
	return nil
}
