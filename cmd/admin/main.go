// Package main provides operator utilities for Tradehub: role changes and
// schema maintenance run directly against the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"tradehub/internal/cache"
	"tradehub/internal/config"
	"tradehub/internal/database"
	"tradehub/internal/models"
	"tradehub/internal/repository"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Role changes must evict the cached account or the API keeps serving the old role.
	cache.InitRedis(cfg.RedisURL)

	if err := run(context.Background(), db, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

const usage = `Usage:
  go run ./cmd/admin promote <user>            - Make a user an admin
  go run ./cmd/admin set-role <user> <role>    - Assign user, verified, middleman, moderator or admin
  go run ./cmd/admin list-staff                - List admins and moderators
  go run ./cmd/admin migrate                   - Apply the schema (required in production)
  go run ./cmd/admin prune-sessions            - Delete expired sessions

<user> is a numeric ID or a username.
`

var errUsage = errors.New("invalid arguments")

func run(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	users := repository.NewUserRepository(db)
	switch strings.ToLower(args[0]) {
	case "promote":
		if len(args) != 2 {
			fmt.Fprint(out, usage)
			return errUsage
		}
		return setRole(ctx, users, args[1], models.RoleAdmin, out)

	case "set-role":
		if len(args) != 3 {
			fmt.Fprint(out, usage)
			return errUsage
		}
		role := models.Role(strings.ToLower(args[2]))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", args[2])
		}
		if role == models.RoleBanned {
			return fmt.Errorf("bans carry a reason and an audit trail; use the moderation API")
		}
		return setRole(ctx, users, args[1], role, out)

	case "list-staff":
		return listStaff(ctx, users, out)

	case "migrate":
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(out, "Schema is up to date")
		return nil

	case "prune-sessions":
		removed, err := repository.NewSessionRepository(db).DeleteExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		fmt.Fprintf(out, "Removed %d expired sessions\n", removed)
		return nil

	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n%s", args[0], usage)
		return errUsage
	}
}

func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return users.GetByID(ctx, uint(id))
	}
	return users.GetByUsername(ctx, ref)
}

func setRole(ctx context.Context, users repository.UserRepository, ref string, role models.Role, out io.Writer) error {
	user, err := lookup(ctx, users, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("user %s not found", ref)
		}
		return err
	}

	if user.Role == role {
		fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", user.Username, user.ID, role)
		return nil
	}
	if user.IsBanned() {
		return fmt.Errorf("user %s (ID: %d) is banned; unban through the moderation API first", user.Username, user.ID)
	}

	previous := user.Role
	// UpdateFields evicts the cached account.
	if _, err := users.UpdateFields(ctx, user.ID, map[string]any{"role": role}); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	fmt.Fprintf(out, "Changed %s (ID: %d) from %s to %s\n", user.Username, user.ID, previous, role)
	return nil
}

func listStaff(ctx context.Context, users repository.UserRepository, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
	found := 0
	for _, role := range []models.Role{models.RoleAdmin, models.RoleModerator} {
		staff, _, err := users.List(ctx, repository.UserFilter{Role: role}, models.PageRequest{Page: 1, Limit: models.MaxPageLimit})
		if err != nil {
			return fmt.Errorf("failed to fetch %s accounts: %w", role, err)
		}
		for _, u := range staff {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
			found++
		}
	}
	if found == 0 {
		fmt.Fprintln(out, "No staff accounts found")
		return nil
	}
	return w.Flush()
}
