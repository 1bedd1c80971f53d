package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userPath(id uint, action string) string {
	return fmt.Sprintf("/api/admin/users/%d/%s", id, action)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	ts := newTestServer(t, "")
	user := ts.register("plain")
	mod := ts.register("warden")
	ts.setRole(mod, models.RoleModerator)

	resp := ts.expectError(http.MethodGet, "/api/admin/reports", user.Token, nil, http.StatusForbidden, models.CodeForbidden)
	assert.Equal(t, models.ReasonInsufficientRole, resp.Reason)
	ts.expectError(http.MethodGet, "/api/admin/reports", "", nil, http.StatusUnauthorized, models.CodeUnauthorized)
	ts.doJSON(http.MethodGet, "/api/admin/reports", mod.Token, nil, http.StatusOK, nil)

	// Role assignment and feature flags are admin only.
	ts.expectError(http.MethodPut, userPath(user.ID, "role"), mod.Token, fiber.Map{"role": "verified"},
		http.StatusForbidden, models.CodeForbidden)
	ts.expectError(http.MethodGet, "/api/admin/feature-flags", mod.Token, nil, http.StatusForbidden, models.CodeForbidden)
}

func TestReportQueueAndRemoval(t *testing.T) {
	ts := newTestServer(t, "")
	owner := ts.register("owner")
	mod := ts.register("warden")
	ts.setRole(mod, models.RoleModerator)

	var trade models.Trade
	ts.doJSON(http.MethodPost, "/api/trades", owner.Token, fiber.Map{
		"item_offered": "Totally real Dominus",
		"category":     "limiteds",
	}, http.StatusCreated, &trade)

	reporters := make([]account, 0, 5)
	for i := 0; i < 5; i++ {
		reporters = append(reporters, ts.register(fmt.Sprintf("reporter%d", i)))
	}
	report := fiber.Map{"target_type": "trade", "target_id": trade.ID, "reason": "scam"}

	var first models.Report
	ts.doJSON(http.MethodPost, "/api/reports", reporters[0].Token, report, http.StatusCreated, &first)
	require.NotNil(t, first.ReportedUserID)
	assert.Equal(t, owner.ID, *first.ReportedUserID)
	ts.expectError(http.MethodPost, "/api/reports", reporters[0].Token, report, http.StatusConflict, models.CodeConflict)
	ts.expectError(http.MethodPost, "/api/reports", owner.Token, report, http.StatusBadRequest, models.CodeValidation)

	var flagged models.Page[models.FlaggedTarget]
	for i, want := range []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityMedium, models.SeverityHigh} {
		ts.doJSON(http.MethodPost, "/api/reports", reporters[i+1].Token, report, http.StatusCreated, nil)
		ts.doJSON(http.MethodGet, "/api/admin/reports/flagged", mod.Token, nil, http.StatusOK, &flagged)
		require.Len(t, flagged.Items, 1)
		assert.Equal(t, want, flagged.Items[0].Severity, "after %d reports", i+2)
	}
	assert.Equal(t, int64(5), flagged.Items[0].ReportCount)

	ts.doJSON(http.MethodGet, "/api/admin/reports/flagged?min_severity=high", mod.Token, nil, http.StatusOK, &flagged)
	assert.Len(t, flagged.Items, 1)
	ts.expectError(http.MethodGet, "/api/admin/reports/flagged?min_severity=extreme", mod.Token, nil,
		http.StatusBadRequest, models.CodeValidation)

	var resolved models.Report
	ts.doJSON(http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/resolve", first.ID), mod.Token, fiber.Map{
		"status":          "resolved",
		"resolution_note": "listing removed",
		"remove_content":  true,
	}, http.StatusOK, &resolved)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)

	ts.expectError(http.MethodGet, fmt.Sprintf("/api/trades/%d", trade.ID), "", nil, http.StatusNotFound, models.CodeNotFound)
	ts.doJSON(http.MethodGet, "/api/admin/reports/flagged", mod.Token, nil, http.StatusOK, &flagged)
	assert.Empty(t, flagged.Items)
}

func TestVerificationRequestFlow(t *testing.T) {
	ts := newTestServer(t, "")
	admin := ts.register("root_admin")
	ts.setRole(admin, models.RoleAdmin)
	member := ts.register("hopeful")

	ts.doJSON(http.MethodPost, "/api/users/me/verification-request", member.Token, fiber.Map{"kind": "verified"}, http.StatusOK, nil)
	ts.expectError(http.MethodPost, "/api/users/me/verification-request", member.Token, fiber.Map{"kind": "verified"},
		http.StatusConflict, models.CodeConflict)

	var pending models.Page[models.User]
	ts.doJSON(http.MethodGet, "/api/admin/verification-requests", admin.Token, nil, http.StatusOK, &pending)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, member.ID, pending.Items[0].ID)

	var user models.User
	ts.doJSON(http.MethodPost, userPath(member.ID, "verification"), admin.Token, fiber.Map{
		"decision": "approve-verified",
	}, http.StatusOK, &user)
	assert.Equal(t, models.RoleVerified, user.Role)
	assert.False(t, user.VerificationRequested)

	var detail service.UserDetail
	ts.doJSON(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", member.ID), admin.Token, nil, http.StatusOK, &detail)
	assert.Equal(t, models.RoleVerified, detail.User.Role)
}

func TestVouchesAndProfiles(t *testing.T) {
	ts := newTestServer(t, "")
	seller := ts.register("seller")
	buyer := ts.register("buyer")

	var rated models.User
	ts.doJSON(http.MethodPost, fmt.Sprintf("/api/users/%d/vouch", seller.ID), buyer.Token, fiber.Map{
		"rating": 4, "comment": "smooth trade",
	}, http.StatusOK, &rated)
	assert.Equal(t, "4", rated.CredibilityScore.String())
	assert.Equal(t, 1, rated.VouchCount)
	ts.expectError(http.MethodPost, fmt.Sprintf("/api/users/%d/vouch", seller.ID), seller.Token, fiber.Map{"rating": 5},
		http.StatusBadRequest, models.CodeValidation)

	var vouches models.Page[models.Vouch]
	ts.doJSON(http.MethodGet, fmt.Sprintf("/api/users/%d/vouches", seller.ID), "", nil, http.StatusOK, &vouches)
	assert.Len(t, vouches.Items, 1)

	var profile models.User
	ts.doJSON(http.MethodGet, fmt.Sprintf("/api/users/%d", seller.ID), buyer.Token, nil, http.StatusOK, &profile)
	assert.Empty(t, profile.Email)
	ts.doJSON(http.MethodGet, fmt.Sprintf("/api/users/%d", seller.ID), seller.Token, nil, http.StatusOK, &profile)
	assert.Equal(t, "seller@example.com", profile.Email)
}

func TestFeatureFlagsGateRoutes(t *testing.T) {
	ts := newTestServer(t, "vouches=off,uploads=off")
	admin := ts.register("root_admin")
	ts.setRole(admin, models.RoleAdmin)
	member := ts.register("member")

	ts.expectError(http.MethodGet, fmt.Sprintf("/api/users/%d/vouches", member.ID), "", nil,
		http.StatusNotFound, models.CodeNotFound)
	ts.expectError(http.MethodPost, "/api/uploads", member.Token, nil, http.StatusNotFound, models.CodeNotFound)

	var flags struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	ts.doJSON(http.MethodGet, "/api/admin/feature-flags", admin.Token, nil, http.StatusOK, &flags)
	assert.Equal(t, "off", flags.Raw["vouches"])
	assert.False(t, flags.Evaluated["vouches"])
	assert.True(t, flags.Evaluated["top_sort"])
}

func TestUploadImage(t *testing.T) {
	ts := newTestServer(t, "")
	member := ts.register("artist")

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	upload := func(name string, content []byte) (int, []byte) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+member.Token)
		return ts.send(req)
	}

	status, raw := upload("avatar.png", png)
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Contains(t, string(raw), `"content_type":"image/png"`)
	assert.Contains(t, string(raw), fmt.Sprintf(`"url":"/uploads/%d/`, member.ID))

	status, raw = upload("notes.txt", []byte("plain text is not an image"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.Contains(string(raw), models.CodeValidation))
}
