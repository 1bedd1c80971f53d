package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError(ReasonNotOwner, "no"), http.StatusForbidden},
		{"not found", NewNotFoundError("Trade", 1), http.StatusNotFound},
		{"conflict", NewConflictError("dup"), http.StatusConflict},
		{"reaction conflict", NewReactionConflictError(errors.New("23505")), http.StatusConflict},
		{"wrapped", fmt.Errorf("outer: %w", NewValidationError("bad")), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondWithAppErrorIncludesReason(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithAppError(c, NewForbiddenError(ReasonInsufficientRole, "Moderator role required"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, CodeForbidden, payload.Code)
	assert.Equal(t, ReasonInsufficientRole, payload.Reason)
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	page := NewPage([]int{1, 2}, PageRequest{Page: 2, Limit: 2}, 5)
	assert.Equal(t, 3, int(page.Pagination.Pages))
	assert.Equal(t, 2, page.Pagination.Page)

	empty := NewPage[int](nil, PageRequest{}, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, DefaultPageLimit, empty.Pagination.Limit)
	assert.Equal(t, int64(0), empty.Pagination.Pages)

	assert.Equal(t, 40, PageRequest{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, MaxPageLimit, PageRequest{Limit: 1000}.Normalize().Limit)
}
