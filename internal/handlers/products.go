package handlers

import (
	"net/http"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageSize = 10 << 20

type ProductHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewProductHandler(svc *catalog.Service, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: svc, logger: logger}
}

func (h *ProductHandler) List(c *gin.Context) {
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
	result, err := h.catalog.List(c.Request.Context(), catalog.ListOptions{
		Category: c.Query("category"),
		Sort:     c.DefaultQuery("sort_by", catalog.SortBalanced),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) Search(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20, 1, 50)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	term := c.Query("q")
	products, err := h.catalog.Search(c.Request.Context(), term, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products), "search_item": term})
}

func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

// Get returns the product and counts the view.
func (h *ProductHandler) Get(c *gin.Context) {
	id := c.Param("id")
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.catalog.IncrementView(c.Request.Context(), id); err != nil {
		h.logger.Warn("⚠️ view count not updated", zap.String("product_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var patch catalog.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

func (h *ProductHandler) AddImage(c *gin.Context) {
	var in catalog.ImageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	img, err := h.catalog.AddImage(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// UploadImage accepts a multipart "file" plus optional alt_text and is_primary fields.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, apperr.Validation("missing image file"))
		return
	}
	if file.Size > maxImageSize {
		respondError(c, h.logger, apperr.Validation("image exceeds %d MB", maxImageSize>>20))
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, h.logger, apperr.Validation("unreadable image file"))
		return
	}
	defer f.Close()

	img, err := h.catalog.UploadImage(c.Request.Context(), c.Param("id"), file.Filename,
		file.Header.Get("Content-Type"), file.Size, f,
		c.PostForm("alt_text"), c.PostForm("is_primary") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}
