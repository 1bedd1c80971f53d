package server

import (
	"tradehub/internal/auth"
	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired resolves the bearer token into the canonical caller. Ban and
// active state are checked here on every request.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := s.authenticator.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		s.attachPrincipal(c, principal)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is sent and otherwise
// lets the request through anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if principal, err := s.authenticator.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err == nil {
			s.attachPrincipal(c, principal)
		}
		return c.Next()
	}
}

func (s *Server) attachPrincipal(c *fiber.Ctx, principal *auth.Principal) {
	c.Locals("caller", principal.Identity)
	c.Locals("principal", principal)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), principal.Identity.UserID))
}

// StaffRequired rejects callers who may not moderate.
// Must be placed after AuthRequired.
func (s *Server) StaffRequired() fiber.Handler {
	return s.requireAction(policy.ActionModerate)
}

// AdminRequired rejects callers who may not assign roles.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return s.requireAction(policy.ActionAssignRole)
}

func (s *Server) requireAction(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFrom(c)
		if !ok {
			return models.RespondWithAppError(c, models.NewUnauthorizedError("Authorization required"))
		}
		if err := policy.Require(caller, action); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.Next()
	}
}

// FeatureRequired hides a route while its flag is off for the caller.
func (s *Server) FeatureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := callerFrom(c)
		if !s.featureFlags.Enabled(flag, caller.UserID) {
			return models.RespondWithError(c, fiber.StatusNotFound, &models.AppError{
				Code:    models.CodeNotFound,
				Message: "This feature is not available",
			})
		}
		return c.Next()
	}
}

// callerFrom returns the identity attached by the auth middleware.
func callerFrom(c *fiber.Ctx) (models.CallerIdentity, bool) {
	caller, ok := c.Locals("caller").(models.CallerIdentity)
	return caller, ok
}

func principalFrom(c *fiber.Ctx) (*auth.Principal, bool) {
	principal, ok := c.Locals("principal").(*auth.Principal)
	return principal, ok
}
