package handlers

import (
	"net/http"

	"crown_back_end/internal/catalog"
	"crown_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	cart   *catalog.CartService
	logger *zap.Logger
}

func NewCartHandler(cart *catalog.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

type cartAdd struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type cartUpdate struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cart.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Add defaults the quantity to one.
func (h *CartHandler) Add(c *gin.Context) {
	var req cartAdd
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := h.cart.Add(c.Request.Context(), middleware.UserID(c), req.ProductID, qty)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Update(c *gin.Context) {
	var req cartUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.cart.UpdateQuantity(c.Request.Context(), middleware.UserID(c), c.Param("product_id"), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Remove(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), middleware.UserID(c), c.Param("product_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item removed from cart"})
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
}
