package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListEvents handles GET /api/events
// @Summary List events
// @Tags events
// @Produce json
// @Param type query string false "Event type"
// @Param status query string false "Status"
// @Param sort query string false "new, old or top"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.Event,pagination=models.Pagination}
// @Router /events [get]
func (s *Server) ListEvents(c *fiber.Ctx) error {
	page, err := s.eventService.List(c.UserContext(), viewerID(c), s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetEvent handles GET /api/events/:id
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{id} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventService.Get(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(event)
}

// CreateEvent handles POST /api/events
// @Summary Announce an event
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateEventInput true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Router /events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.CreateEventInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	event, err := s.eventService.Create(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent handles PUT /api/events/:id
// @Summary Update an event
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body service.UpdateEventInput true "Fields to change"
// @Success 200 {object} models.Event
// @Router /events/{id} [put]
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateEventInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	event, err := s.eventService.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/events/:id
// @Summary Delete an event
// @Tags events
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} object{message=string}
// @Router /events/{id} [delete]
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.eventService.Delete(c.UserContext(), caller, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event deleted"})
}

// LikeEvent handles POST /api/events/:id/like
// @Summary Like or unlike an event
// @Tags events
// @Security BearerAuth
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.ReactionSummary
// @Router /events/{id}/like [post]
func (s *Server) LikeEvent(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.reactionService.Like(c.UserContext(), caller, models.ResourceEvent, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}
