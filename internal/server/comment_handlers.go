package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// commentListHandler serves GET /api/{trades,forum,events}/:id/comments
// @Summary List comments
// @Description Oldest first.
// @Tags comments
// @Produce json
// @Param id path int true "Parent ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.Comment,pagination=models.Pagination}
// @Failure 404 {object} models.ErrorResponse
// @Router /trades/{id}/comments [get]
// @Router /forum/{id}/comments [get]
// @Router /events/{id}/comments [get]
func (s *Server) commentListHandler(kind models.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		page, err := s.commentService.List(c.UserContext(), kind, parentID, parsePage(c))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(page)
	}
}

// commentCreateHandler serves POST /api/{trades,forum,events}/:id/comments
// @Summary Add a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Parent ID"
// @Param request body service.CreateCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /trades/{id}/comments [post]
// @Router /forum/{id}/comments [post]
// @Router /events/{id}/comments [post]
func (s *Server) commentCreateHandler(kind models.ResourceType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := callerFrom(c)
		parentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		var req service.CreateCommentInput
		if err := bindJSON(c, &req); err != nil {
			return nil
		}
		comment, err := s.commentService.Create(c.UserContext(), caller, kind, parentID, req)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	}
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Author or staff.
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(c.UserContext(), caller, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
