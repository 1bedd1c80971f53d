package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListTrades handles GET /api/trades
// @Summary List trades
// @Tags trades
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param search query string false "Search in item names and description"
// @Param sort query string false "new, old or top"
// @Param user_id query int false "Owner"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.Trade,pagination=models.Pagination}
// @Router /trades [get]
func (s *Server) ListTrades(c *fiber.Ctx) error {
	page, err := s.tradeService.List(c.UserContext(), viewerID(c), s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetTrade handles GET /api/trades/:id
// @Summary Get a trade
// @Tags trades
// @Produce json
// @Param id path int true "Trade ID"
// @Success 200 {object} models.Trade
// @Failure 404 {object} models.ErrorResponse
// @Router /trades/{id} [get]
func (s *Server) GetTrade(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	trade, err := s.tradeService.Get(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(trade)
}

// CreateTrade handles POST /api/trades
// @Summary Create a trade
// @Tags trades
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateTradeInput true "Trade"
// @Success 201 {object} models.Trade
// @Failure 400 {object} models.ErrorResponse
// @Router /trades [post]
func (s *Server) CreateTrade(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.CreateTradeInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	trade, err := s.tradeService.Create(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(trade)
}

// UpdateTrade handles PUT /api/trades/:id
// @Summary Update a trade
// @Description Owner only. Status moves open, pending, completed; any open trade may be cancelled.
// @Tags trades
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Trade ID"
// @Param request body service.UpdateTradeInput true "Fields to change"
// @Success 200 {object} models.Trade
// @Failure 403 {object} models.ErrorResponse
// @Router /trades/{id} [put]
func (s *Server) UpdateTrade(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateTradeInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	trade, err := s.tradeService.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(trade)
}

// DeleteTrade handles DELETE /api/trades/:id
// @Summary Delete a trade
// @Description Owner or staff. Removes the trade with its comments and reactions.
// @Tags trades
// @Security BearerAuth
// @Param id path int true "Trade ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /trades/{id} [delete]
func (s *Server) DeleteTrade(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.tradeService.Delete(c.UserContext(), caller, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Trade deleted"})
}

// VoteTrade handles POST /api/trades/:id/vote
// @Summary Vote on a trade
// @Description Repeating the current vote retracts it.
// @Tags trades
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Trade ID"
// @Param request body service.VoteInput true "Vote"
// @Success 200 {object} models.ReactionSummary
// @Failure 409 {object} models.ErrorResponse
// @Router /trades/{id}/vote [post]
func (s *Server) VoteTrade(c *fiber.Ctx) error {
	return s.vote(c, models.ResourceTrade)
}

func (s *Server) vote(c *fiber.Ctx, kind models.ResourceType) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.VoteInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	summary, err := s.reactionService.Vote(c.UserContext(), caller, kind, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}
