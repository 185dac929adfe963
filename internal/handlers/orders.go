package handlers

import (
	"net/http"

	"crown_back_end/internal/middleware"
	"crown_back_end/internal/models"
	"crown_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *orders.Manager
	logger *zap.Logger
}

func NewOrderHandler(m *orders.Manager, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: m, logger: logger}
}

type checkoutResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	OrderID string             `json:"order_id"`
	Total   decimal.Decimal    `json:"total"`
	Status  models.OrderStatus `json:"status"`
}

// Checkout works for guests and signed-in shoppers alike.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var userID *string
	if id := middleware.UserID(c); id != "" {
		userID = &id
	}
	o, err := h.orders.Create(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse{
		Success: true,
		Message: "Order created successfully! Check your email for confirmation.",
		OrderID: o.OrderID,
		Total:   o.Total,
		Status:  o.Status,
	})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Mine(c *gin.Context) {
	list, err := h.orders.ListForUser(c.Request.Context(), middleware.UserID(c), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// UpdateStatus records the acting admin when the body names nobody.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req orders.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = c.GetString(middleware.KeyEmail)
	}
	if req.UpdatedBy == "" {
		req.UpdatedBy = "admin"
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req orders.PaymentRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.orders.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50, 1, 100)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := queryInt(c, "page", 1, 1, 1<<20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	result, err := h.orders.ListAll(c.Request.Context(), models.OrderStatus(c.Query("status")), limit, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
