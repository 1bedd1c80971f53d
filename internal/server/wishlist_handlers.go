package server

import (
	"tradehub/internal/models"
	"tradehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListWishlist handles GET /api/wishlist
// @Summary Browse wishlists
// @Tags wishlist
// @Produce json
// @Param priority query string false "high, medium or low"
// @Param status query string false "wanted or acquired"
// @Param search query string false "Search item names"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{items=[]models.WishlistItem,pagination=models.Pagination}
// @Router /wishlist [get]
func (s *Server) ListWishlist(c *fiber.Ctx) error {
	page, err := s.wishlistService.List(c.UserContext(), s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMyWishlist handles GET /api/wishlist/me
// @Summary My wishlist
// @Tags wishlist
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{items=[]models.WishlistItem,pagination=models.Pagination}
// @Router /wishlist/me [get]
func (s *Server) GetMyWishlist(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page, err := s.wishlistService.ListForUser(c.UserContext(), caller.UserID, s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetUserWishlist handles GET /api/users/:id/wishlist
// @Summary A member's wishlist
// @Tags wishlist
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{items=[]models.WishlistItem,pagination=models.Pagination}
// @Router /users/{id}/wishlist [get]
func (s *Server) GetUserWishlist(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.wishlistService.ListForUser(c.UserContext(), userID, s.parseResourceFilter(c), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetWishlistItem handles GET /api/wishlist/:id
// @Summary Get a wishlist item
// @Tags wishlist
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.WishlistItem
// @Router /wishlist/{id} [get]
func (s *Server) GetWishlistItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.wishlistService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// CreateWishlistItem handles POST /api/wishlist
// @Summary Add to my wishlist
// @Description Item names are unique per member, ignoring case.
// @Tags wishlist
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateWishlistItemInput true "Item"
// @Success 201 {object} models.WishlistItem
// @Failure 409 {object} models.ErrorResponse
// @Router /wishlist [post]
func (s *Server) CreateWishlistItem(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	var req service.CreateWishlistItemInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	item, err := s.wishlistService.Create(c.UserContext(), caller, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateWishlistItem handles PUT /api/wishlist/:id
// @Summary Update a wishlist item
// @Tags wishlist
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body service.UpdateWishlistItemInput true "Fields to change"
// @Success 200 {object} models.WishlistItem
// @Router /wishlist/{id} [put]
func (s *Server) UpdateWishlistItem(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateWishlistItemInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	item, err := s.wishlistService.Update(c.UserContext(), caller, id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// DeleteWishlistItem handles DELETE /api/wishlist/:id
// @Summary Remove a wishlist item
// @Tags wishlist
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 200 {object} object{message=string}
// @Router /wishlist/{id} [delete]
func (s *Server) DeleteWishlistItem(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.wishlistService.Delete(c.UserContext(), caller, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Wishlist item removed"})
}
