package server

import (
	"errors"
	"strings"
	"unicode"

	"tradehub/internal/featureflags"
	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parsePage reads ?page= and ?limit=, clamped to the allowed range.
func parsePage(c *fiber.Ctx) models.PageRequest {
	return models.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", models.DefaultPageLimit),
	}.Normalize()
}

// parseResourceFilter reads the shared listing query parameters. The "top"
// sort falls back to newest first while its flag is off.
func (s *Server) parseResourceFilter(c *fiber.Ctx) repository.ResourceFilter {
	filter := repository.ResourceFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		EventType: c.Query("type"),
		Search:    strings.TrimSpace(c.Query("search")),
		Sort:      c.Query("sort", repository.SortNew),
	}
	if ownerID := c.QueryInt("user_id", 0); ownerID > 0 {
		filter.OwnerID = uint(ownerID)
	}
	if filter.Sort == repository.SortTop && !s.featureFlags.Enabled(featureflags.TopSort, viewerID(c)) {
		filter.Sort = repository.SortNew
	}
	return filter
}

// bindJSON decodes the request body into dest.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func bindJSON(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// viewerID is the caller's id, or zero for anonymous requests.
func viewerID(c *fiber.Ctx) uint {
	caller, _ := callerFrom(c)
	return caller.UserID
}

func clientMeta(c *fiber.Ctx) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
	}
}

// codeForStatus labels errors raised by Fiber itself, such as 404 for an
// unknown route or 413 for an oversized body.
func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	default:
		return models.CodeInternal
	}
}
