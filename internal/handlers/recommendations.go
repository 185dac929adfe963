package handlers

import (
	"net/http"

	"crown_back_end/internal/middleware"
	"crown_back_end/internal/recommend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RecommendationHandler struct {
	engine *recommend.Engine
	logger *zap.Logger
}

func NewRecommendationHandler(engine *recommend.Engine, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{engine: engine, logger: logger}
}

type trackRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	ActivityType string `json:"activity_type" binding:"required"`
}

func (h *RecommendationHandler) ForYou(c *gin.Context) {
	limit, err := queryInt(c, "limit", 8, 1, 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	products, err := h.engine.ForYou(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *RecommendationHandler) Similar(c *gin.Context) {
	limit, err := queryInt(c, "limit", 6, 1, 12)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	products, err := h.engine.Similar(c.Request.Context(), c.Param("product_id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *RecommendationHandler) Trending(c *gin.Context) {
	limit, err := queryInt(c, "limit", 8, 1, 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	products, err := h.engine.TrendingProducts(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *RecommendationHandler) Popular(c *gin.Context) {
	limit, err := queryInt(c, "limit", 8, 1, 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	products, err := h.engine.Popular(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Track answers 400 when the product does not exist.
func (h *RecommendationHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok, err := h.engine.Track(c.Request.Context(), middleware.UserID(c), req.ProductID, req.ActivityType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to track activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Activity tracked successfully"})
}
