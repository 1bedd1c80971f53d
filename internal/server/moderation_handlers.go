package server

import (
	"strings"

	"tradehub/internal/models"
	"tradehub/internal/repository"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func parseReportFilter(c *fiber.Ctx) repository.ReportFilter {
	return repository.ReportFilter{
		Status:      models.ReportStatus(c.Query("status")),
		TargetType:  models.ResourceType(c.Query("target_type")),
		MinSeverity: models.Severity(strings.ToLower(c.Query("min_severity"))),
	}
}

// FileReport handles POST /api/reports
// @Summary Report content or a member
// @Description One pending report per reporter and target.
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.FileReportInput true "Report"
// @Success 201 {object} models.Report
// @Failure 409 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) FileReport(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.FileReportInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	report, err := s.moderation.FileReport(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/admin/reports
// @Summary List reports
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, reviewed or resolved"
// @Param target_type query string false "Target type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.Report,pagination=models.Pagination}
// @Router /admin/reports [get]
func (s *Server) ListReports(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page, err := s.moderation.ListReports(c.UserContext(), caller, parseReportFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// ListFlaggedContent handles GET /api/admin/reports/flagged
// @Summary Moderation queue
// @Description Reports grouped by target with a derived severity, most reported first.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param min_severity query string false "low, medium or high"
// @Param target_type query string false "Target type"
// @Success 200 {object} object{items=[]models.FlaggedTarget,pagination=models.Pagination}
// @Router /admin/reports/flagged [get]
func (s *Server) ListFlaggedContent(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page, err := s.moderation.ListFlagged(c.UserContext(), caller, parseReportFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
// @Summary Resolve a report
// @Description remove_content deletes the reported item with its dependents.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body service.ResolveReportInput true "Resolution"
// @Success 200 {object} models.Report
// @Router /admin/reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ResolveReportInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	report, err := s.moderation.ResolveReport(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(report)
}

// BanUser handles POST /api/admin/users/:id/ban
// @Summary Ban or unban a member
// @Description Moderators may not ban staff. Existing tokens are refused on the next request.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.BanInput true "Action"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (s *Server) BanUser(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.BanInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.moderation.BanUser(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// SetUserRole handles PUT /api/admin/users/:id/role
// @Summary Assign a role
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.SetRoleInput true "Role"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.SetRoleInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.moderation.SetRole(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// SetUserActive handles PUT /api/admin/users/:id/active
// @Summary Activate or deactivate an account
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.SetActiveInput true "Active flag"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/active [put]
func (s *Server) SetUserActive(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.SetActiveInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.moderation.SetActive(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// ResolveVerification handles POST /api/admin/users/:id/verification
// @Summary Decide a verification request
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.VerificationDecisionInput true "Decision"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/verification [post]
func (s *Server) ResolveVerification(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.VerificationDecisionInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.moderation.ResolveVerification(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// ListVerificationRequests handles GET /api/admin/verification-requests
// @Summary Pending verification requests
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{items=[]models.User,pagination=models.Pagination}
// @Router /admin/verification-requests [get]
func (s *Server) ListVerificationRequests(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page, err := s.moderation.ListVerificationRequests(c.UserContext(), caller, parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// ListUsers handles GET /api/admin/users
// @Summary Search accounts
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param role query string false "Role"
// @Param search query string false "Username or email"
// @Success 200 {object} object{items=[]models.User,pagination=models.Pagination}
// @Router /admin/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	filter := repository.UserFilter{
		Role:   models.Role(c.Query("role")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	page, err := s.moderation.ListUsers(c.UserContext(), caller, filter, parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetAdminUserDetail handles GET /api/admin/users/:id
// @Summary Account detail for staff
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.UserDetail
// @Router /admin/users/{id} [get]
func (s *Server) GetAdminUserDetail(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.moderation.AdminUserDetail(c.UserContext(), caller, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(detail)
}
