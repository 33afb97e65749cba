package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	storefront "github.com/rabbitio/storefront"
	"github.com/rabbitio/storefront/api/middleware"
	"github.com/rabbitio/storefront/models"
)

type CartHandler struct {
	service storefront.Service
	logger  *zap.Logger
}

func NewCartHandler(service storefront.Service, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guest_id"`
}

type updateItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guest_id"`
}

type removeItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guest_id"`
}

type mergeCartRequest struct {
	GuestID string `json:"guest_id" binding:"required"`
}

// POST /api/cart
// Add a product to the cart for a guest or logged-in user. A guest without
// an id gets one synthesized; clients keep it from the returned cart owner.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	owner := h.currentOwner(c, req.GuestID)

	cart, err := h.service.AddItemToCart(c.Request.Context(), owner, req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// PUT /api/cart
// Set an absolute quantity on a line item; zero removes it.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	owner := h.currentOwner(c, req.GuestID)
	if owner.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "guest_id or authentication required"})
		return
	}

	key := models.LineItemKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	cart, err := h.service.UpdateCartItemQuantity(c.Request.Context(), owner, key, *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// DELETE /api/cart
func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	owner := h.currentOwner(c, req.GuestID)
	if owner.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "guest_id or authentication required"})
		return
	}

	key := models.LineItemKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	cart, err := h.service.RemoveItemFromCart(c.Request.Context(), owner, key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// GET /api/cart?guest_id=...
func (h *CartHandler) GetCart(c *gin.Context) {
	owner := h.currentOwner(c, c.Query("guest_id"))
	if owner.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "guest_id or authentication required"})
		return
	}

	cart, err := h.service.ResolveCart(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// POST /api/cart/merge
// Fold the guest cart into the authenticated user's cart after login. The
// target user always comes from the token, never from the body.
func (h *CartHandler) MergeCart(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.service.MergeGuestCartIntoUser(c.Request.Context(), claims.UserID, req.GuestID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// currentOwner prefers the verified token identity and falls back to the
// client-supplied guest id. The result may be zero on add-to-cart, where
// the engine synthesizes a guest identity.
func (h *CartHandler) currentOwner(c *gin.Context, guestID string) models.CartOwner {
	if claims := middleware.Claims(c); claims != nil {
		return models.UserOwner(claims.UserID)
	}
	if guestID != "" {
		return models.GuestOwner(guestID)
	}
	return models.CartOwner{}
}
