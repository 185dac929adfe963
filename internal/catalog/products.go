// Package catalog serves the product listing, product administration and
// shopping carts.
package catalog

import (
	"cmp"
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/media"
	"crown_back_end/internal/models"
	"crown_back_end/internal/scoring"
	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Listing sorts accepted by List.
const (
	SortBalanced   = "balanced"
	SortPopularity = "popularity"
	SortPriceLow   = "price_low"
	SortPriceHigh  = "price_high"
	SortNewest     = "newest"
	SortRating     = "rating"
)

const (
	defaultPageSize    = 20
	defaultSearchLimit = 20
	minSearchTerm      = 2
)

type Service struct {
	store    store.Client
	uploader media.Uploader
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithUploader(u media.Uploader) Option {
	return func(s *Service) { s.uploader = u }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Client, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: st, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ListOptions struct {
	Category string
	Sort     string
	Limit    int
	Offset   int
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// List ranks the whole (optionally filtered) catalog in memory and returns one
// window of it. Unknown sorts keep store order.
func (s *Service) List(ctx context.Context, opts ListOptions) (ProductPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Sort == "" {
		opts.Sort = SortBalanced
	}

	q := store.Where()
	if opts.Category != "" {
		q.Eq("category", opts.Category)
	}
	products, err := s.fetchProducts(ctx, q)
	if err != nil {
		return ProductPage{}, err
	}
	sortProducts(products, opts.Sort)

	total := len(products)
	window := products[min(opts.Offset, total):min(opts.Offset+opts.Limit, total)]
	if err := s.attachImages(ctx, window); err != nil {
		return ProductPage{}, err
	}
	return ProductPage{
		Products:   window,
		TotalCount: total,
		Page:       opts.Offset/opts.Limit + 1,
		PageSize:   opts.Limit,
	}, nil
}

func sortProducts(products []models.Product, sortBy string) {
	var cmpFn func(a, b models.Product) int
	switch sortBy {
	case SortBalanced, SortPopularity:
		strategy := scoring.Strategy(sortBy)
		cmpFn = func(a, b models.Product) int {
			return cmp.Compare(scoring.RankingScore(b, strategy), scoring.RankingScore(a, strategy))
		}
	case SortPriceLow:
		cmpFn = func(a, b models.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		cmpFn = func(a, b models.Product) int { return b.Price.Cmp(a.Price) }
	case SortNewest:
		cmpFn = func(a, b models.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortRating:
		cmpFn = func(a, b models.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	default:
		return
	}
	slices.SortStableFunc(products, cmpFn)
}

// Get returns one product with its images, primary image first.
func (s *Service) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := s.product(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	one := []models.Product{p}
	if err := s.attachImages(ctx, one); err != nil {
		return models.Product{}, err
	}
	return one[0], nil
}

// IncrementView bumps view_count by one. The read-modify-write is not atomic;
// concurrent views may be undercounted.
func (s *Service) IncrementView(ctx context.Context, id string) error {
	p, err := s.product(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.store.Update(ctx, store.TableProducts, store.Where().Eq("id", id),
		store.Record{"view_count": p.ViewCount + 1})
	if err != nil {
		return apperr.Dependency("increment view count", err)
	}
	return nil
}

// Search matches term case-insensitively against name and description.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]models.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len([]rune(term)) < minSearchTerm {
		return nil, apperr.Validation("search term must have at least %d characters", minSearchTerm)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	products, err := s.fetchProducts(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	if out == nil {
		return []models.Product{}, nil
	}
	if err := s.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.store.Fetch(ctx, store.TableProducts, nil)
	if err != nil {
		return nil, apperr.Dependency("fetch products", err)
	}
	seen := make(map[string]struct{})
	categories := []string{}
	for _, r := range rows {
		c := r.String("category")
		if _, ok := seen[c]; ok || c == "" {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	slices.Sort(categories)
	return categories, nil
}

type ProductInput struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Category      string          `json:"category" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Rating        float64         `json:"rating"`
	IsFeatured    bool            `json:"is_featured"`
	IsNew         bool            `json:"is_new"`
	ImageURL      string          `json:"image_url"`
}

// ProductPatch carries the fields an admin may change. Nil means unchanged.
type ProductPatch struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity"`
	Rating        *float64         `json:"rating"`
	IsFeatured    *bool            `json:"is_featured"`
	IsNew         *bool            `json:"is_new"`
}

func validateFields(name, category string, price decimal.Decimal, stock int, rating float64) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.Validation("product name is required")
	case strings.TrimSpace(category) == "":
		return apperr.Validation("product category is required")
	case price.IsNegative():
		return apperr.Validation("price must not be negative")
	case stock < 0:
		return apperr.Validation("stock quantity must not be negative")
	case rating < 0 || rating > 5:
		return apperr.Validation("rating must be between 0 and 5")
	}
	return nil
}

// Create adds a product. An ImageURL becomes its primary image.
func (s *Service) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := validateFields(in.Name, in.Category, in.Price, in.StockQuantity, in.Rating); err != nil {
		return models.Product{}, err
	}
	now := s.now().UTC()
	p := models.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      strings.TrimSpace(in.Category),
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Rating:        in.Rating,
		IsFeatured:    in.IsFeatured,
		IsNew:         in.IsNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rows, err := s.store.Insert(ctx, store.TableProducts, p.Record())
	if err != nil {
		return models.Product{}, apperr.Dependency("insert product", err)
	}
	created, err := models.ProductFromRecord(rows[0])
	if err != nil {
		return models.Product{}, apperr.Dependency("decode product", err)
	}
	s.logger.Info("✅ product created", zap.String("product_id", created.ID), zap.String("category", created.Category))

	if in.ImageURL != "" {
		if _, err := s.AddImage(ctx, created.ID, ImageInput{URL: in.ImageURL, AltText: created.Name}); err != nil {
			return models.Product{}, err
		}
	}
	return s.Get(ctx, created.ID)
}

func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	current, err := s.product(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	next := current
	set := store.Record{}
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		set["name"] = next.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
		set["category"] = next.Category
	}
	if patch.Price != nil {
		next.Price = *patch.Price
		set["price"] = next.Price
	}
	if patch.StockQuantity != nil {
		next.StockQuantity = *patch.StockQuantity
		set["stock_quantity"] = next.StockQuantity
	}
	if patch.Rating != nil {
		next.Rating = *patch.Rating
		set["rating"] = next.Rating
	}
	if patch.IsFeatured != nil {
		set["is_featured"] = *patch.IsFeatured
	}
	if patch.IsNew != nil {
		set["is_new"] = *patch.IsNew
	}
	if err := validateFields(next.Name, next.Category, next.Price, next.StockQuantity, next.Rating); err != nil {
		return models.Product{}, err
	}
	set["updated_at"] = s.now().UTC()

	if _, err := s.store.Update(ctx, store.TableProducts, store.Where().Eq("id", id), set); err != nil {
		return models.Product{}, apperr.Dependency("update product", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the product, its images and any cart lines pointing at it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.product(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.TableProductImages, store.Where().Eq("product_id", id)); err != nil {
		return apperr.Dependency("delete product images", err)
	}
	if err := s.store.Delete(ctx, store.TableCartItems, store.Where().Eq("product_id", id)); err != nil {
		return apperr.Dependency("delete cart lines", err)
	}
	if err := s.store.Delete(ctx, store.TableProducts, store.Where().Eq("id", id)); err != nil {
		return apperr.Dependency("delete product", err)
	}
	s.logger.Info("🗑️ product deleted", zap.String("product_id", id))
	return nil
}

type ImageInput struct {
	URL       string `json:"image_url" binding:"required"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
	Position  *int   `json:"display_order"`
}

// AddImage attaches an image. The first image of a product is always primary,
// and a new primary demotes the previous one.
func (s *Service) AddImage(ctx context.Context, productID string, in ImageInput) (models.ProductImage, error) {
	if strings.TrimSpace(in.URL) == "" {
		return models.ProductImage{}, apperr.Validation("image url is required")
	}
	if _, err := s.product(ctx, productID); err != nil {
		return models.ProductImage{}, err
	}
	byProduct := store.Where().Eq("product_id", productID)
	existing, err := s.store.Count(ctx, store.TableProductImages, byProduct)
	if err != nil {
		return models.ProductImage{}, apperr.Dependency("count product images", err)
	}

	img := models.ProductImage{
		ProductID: productID,
		URL:       in.URL,
		AltText:   in.AltText,
		IsPrimary: in.IsPrimary || existing == 0,
		Position:  existing,
		CreatedAt: s.now().UTC(),
	}
	if in.Position != nil {
		img.Position = *in.Position
	}
	if img.IsPrimary && existing > 0 {
		demote := store.Where().Eq("product_id", productID).Eq("is_primary", true)
		if _, err := s.store.Update(ctx, store.TableProductImages, demote, store.Record{"is_primary": false}); err != nil {
			return models.ProductImage{}, apperr.Dependency("demote primary image", err)
		}
	}

	rows, err := s.store.Insert(ctx, store.TableProductImages, img.Record())
	if err != nil {
		return models.ProductImage{}, apperr.Dependency("insert product image", err)
	}
	added, err := models.ProductImageFromRecord(rows[0])
	if err != nil {
		return models.ProductImage{}, apperr.Dependency("decode product image", err)
	}
	return added, nil
}

// UploadImage stores the file through the configured uploader and attaches it.
func (s *Service) UploadImage(ctx context.Context, productID, filename, contentType string, size int64, body io.Reader, alt string, primary bool) (models.ProductImage, error) {
	if s.uploader == nil {
		return models.ProductImage{}, apperr.Validation("image upload is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return models.ProductImage{}, apperr.Validation("file must be an image, got %q", contentType)
	}
	if _, err := s.product(ctx, productID); err != nil {
		return models.ProductImage{}, err
	}
	url, err := s.uploader.Upload(ctx, filename, contentType, size, body)
	if err != nil {
		return models.ProductImage{}, apperr.Dependency("upload image", err)
	}
	return s.AddImage(ctx, productID, ImageInput{URL: url, AltText: alt, IsPrimary: primary})
}

func (s *Service) product(ctx context.Context, id string) (models.Product, error) {
	rows, err := s.store.Fetch(ctx, store.TableProducts, store.Where().Eq("id", id))
	if err != nil {
		return models.Product{}, apperr.Dependency("fetch product", err)
	}
	if len(rows) == 0 {
		return models.Product{}, apperr.NotFound("product", id)
	}
	p, err := models.ProductFromRecord(rows[0])
	if err != nil {
		return models.Product{}, apperr.Dependency("decode product", err)
	}
	return p, nil
}

func (s *Service) fetchProducts(ctx context.Context, q *store.Query) ([]models.Product, error) {
	rows, err := s.store.Fetch(ctx, store.TableProducts, q)
	if err != nil {
		return nil, apperr.Dependency("fetch products", err)
	}
	products, err := models.ProductsFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode products", err)
	}
	return products, nil
}

// attachImages loads the images of products in one fetch and sets them in place.
func (s *Service) attachImages(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]any, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	images, err := s.imagesFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		products[i].Images = images[products[i].ID]
		if products[i].Images == nil {
			products[i].Images = []models.ProductImage{}
		}
	}
	return nil
}

func (s *Service) imagesFor(ctx context.Context, productIDs []any) (map[string][]models.ProductImage, error) {
	rows, err := s.store.Fetch(ctx, store.TableProductImages, store.Where().In("product_id", productIDs...))
	if err != nil {
		return nil, apperr.Dependency("fetch product images", err)
	}
	out := make(map[string][]models.ProductImage)
	for _, r := range rows {
		img, err := models.ProductImageFromRecord(r)
		if err != nil {
			return nil, apperr.Dependency("decode product image", err)
		}
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	for _, imgs := range out {
		slices.SortStableFunc(imgs, func(a, b models.ProductImage) int {
			if a.IsPrimary != b.IsPrimary {
				if a.IsPrimary {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.Position, b.Position)
		})
	}
	return out, nil
}
