package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListForumPosts handles GET /api/forum
// @Summary List forum threads
// @Description Pinned threads come first.
// @Tags forum
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Search in title and content"
// @Param sort query string false "new, old or top"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.ForumPost,pagination=models.Pagination}
// @Router /forum [get]
func (s *Server) ListForumPosts(c *fiber.Ctx) error {
	page, err := s.forumService.List(c.UserContext(), viewerID(c), s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetForumPost handles GET /api/forum/:id
// @Summary Get a forum thread
// @Tags forum
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ForumPost
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/{id} [get]
func (s *Server) GetForumPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.forumService.Get(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// CreateForumPost handles POST /api/forum
// @Summary Start a forum thread
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateForumPostInput true "Thread"
// @Success 201 {object} models.ForumPost
// @Failure 400 {object} models.ErrorResponse
// @Router /forum [post]
func (s *Server) CreateForumPost(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.CreateForumPostInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	post, err := s.forumService.Create(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdateForumPost handles PUT /api/forum/:id
// @Summary Edit a forum thread
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body service.UpdateForumPostInput true "Fields to change"
// @Success 200 {object} models.ForumPost
// @Failure 403 {object} models.ErrorResponse
// @Router /forum/{id} [put]
func (s *Server) UpdateForumPost(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateForumPostInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	post, err := s.forumService.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// DeleteForumPost handles DELETE /api/forum/:id
// @Summary Delete a forum thread
// @Tags forum
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Router /forum/{id} [delete]
func (s *Server) DeleteForumPost(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.forumService.Delete(c.UserContext(), caller, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// VoteForumPost handles POST /api/forum/:id/vote
// @Summary Vote on a forum thread
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body service.VoteInput true "Vote"
// @Success 200 {object} models.ReactionSummary
// @Router /forum/{id}/vote [post]
func (s *Server) VoteForumPost(c *fiber.Ctx) error {
	return s.vote(c, models.ResourceForumPost)
}

// PinForumPost handles POST /api/forum/:id/pin
// @Summary Pin or unpin a thread
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Param id path int true "Post ID"
// @Param request body object{pinned=bool} true "Pin state"
// @Success 200 {object} models.ForumPost
// @Router /forum/{id}/pin [post]
func (s *Server) PinForumPost(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Pinned *bool `json:"pinned"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if req.Pinned == nil {
		return models.RespondWithAppError(c, models.NewValidationError("pinned is required"))
	}
	post, err := s.forumService.SetPinned(c.UserContext(), caller, id, *req.Pinned)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// LockForumPost handles POST /api/forum/:id/lock
// @Summary Lock or reopen a thread
// @Description Locked threads accept no new comments.
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Param id path int true "Post ID"
// @Param request body object{locked=bool} true "Lock state"
// @Success 200 {object} models.ForumPost
// @Router /forum/{id}/lock [post]
func (s *Server) LockForumPost(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Locked *bool `json:"locked"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if req.Locked == nil {
		return models.RespondWithAppError(c, models.NewValidationError("locked is required"))
	}
	post, err := s.forumService.SetLocked(c.UserContext(), caller, id, *req.Locked)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}
