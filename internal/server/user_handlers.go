package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Member profile
// @Description Email is only included for the member and for staff.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewer, _ := callerFrom(c)
	user, err := s.userService.GetProfile(c.UserContext(), viewer, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update my profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.User
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.UpdateProfileInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// RequestVerification handles POST /api/users/me/verification-request
// @Summary Ask for verified or middleman status
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.VerificationRequestInput true "Requested status"
// @Success 200 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me/verification-request [post]
func (s *Server) RequestVerification(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.VerificationRequestInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.RequestVerification(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// ListVouches handles GET /api/users/:id/vouches
// @Summary Vouches a member received
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{items=[]models.Vouch,pagination=models.Pagination}
// @Router /users/{id}/vouches [get]
func (s *Server) ListVouches(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.userService.ListVouches(c.UserContext(), id, parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// VouchForUser handles POST /api/users/:id/vouch
// @Summary Vouch for a member
// @Description One vouch per pair; a repeat replaces the earlier rating.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.VouchInput true "Rating"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{id}/vouch [post]
func (s *Server) VouchForUser(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.VouchInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.Vouch(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	user.Email = ""
	return c.JSON(user)
}
