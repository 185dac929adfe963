package catalog

import (
	"context"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ActivityTracker records shopper activity for recommendations.
type ActivityTracker interface {
	Track(ctx context.Context, userID, productID, activityType string) (bool, error)
}

type CartService struct {
	store   store.Client
	tracker ActivityTracker
	logger  *zap.Logger
	now     func() time.Time
}

func NewCartService(st store.Client, tracker ActivityTracker, logger *zap.Logger) *CartService {
	return &CartService{store: st, tracker: tracker, logger: logger, now: time.Now}
}

// Get returns the cart with live product data. Lines whose product was
// removed from the catalog are dropped.
func (c *CartService) Get(ctx context.Context, userID string) (models.Cart, error) {
	rows, err := c.store.Fetch(ctx, store.TableCartItems,
		store.Where().Eq("user_id", userID).OrderBy("created_at", false))
	if err != nil {
		return models.Cart{}, apperr.Dependency("fetch cart", err)
	}
	cart := models.Cart{Items: []models.CartLine{}, Total: decimal.Zero}
	if len(rows) == 0 {
		return cart, nil
	}

	items := make([]models.CartItem, 0, len(rows))
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		item, err := models.CartItemFromRecord(r)
		if err != nil {
			return models.Cart{}, apperr.Dependency("decode cart item", err)
		}
		items = append(items, item)
		ids = append(ids, item.ProductID)
	}

	productRows, err := c.store.Fetch(ctx, store.TableProducts, store.Where().In("id", ids...))
	if err != nil {
		return models.Cart{}, apperr.Dependency("fetch cart products", err)
	}
	products := make(map[string]models.Product, len(productRows))
	for _, r := range productRows {
		p, err := models.ProductFromRecord(r)
		if err != nil {
			return models.Cart{}, apperr.Dependency("decode cart product", err)
		}
		products[p.ID] = p
	}
	primary, err := c.primaryImages(ctx, ids)
	if err != nil {
		return models.Cart{}, err
	}

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		line := models.CartLine{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Price:         p.Price,
			Quantity:      item.Quantity,
			StockQuantity: p.StockQuantity,
			Subtotal:      p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if url, ok := primary[p.ID]; ok {
			line.ImageURL = &url
		}
		cart.Items = append(cart.Items, line)
		cart.Total = cart.Total.Add(line.Subtotal)
		cart.ItemCount += item.Quantity
	}
	return cart, nil
}

// Add puts quantity units of a product in the cart, merging with an existing line.
func (c *CartService) Add(ctx context.Context, userID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, apperr.Validation("quantity must be positive")
	}
	p, err := c.product(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}

	line := store.Where().Eq("user_id", userID).Eq("product_id", productID)
	rows, err := c.store.Fetch(ctx, store.TableCartItems, line)
	if err != nil {
		return models.Cart{}, apperr.Dependency("fetch cart line", err)
	}
	now := c.now().UTC()
	if len(rows) > 0 {
		current, err := rows[0].Int("quantity")
		if err != nil {
			return models.Cart{}, apperr.Dependency("decode cart line", err)
		}
		if current+quantity > p.StockQuantity {
			return models.Cart{}, apperr.Validation("only %d of %s in stock", p.StockQuantity, p.Name)
		}
		if _, err := c.store.Update(ctx, store.TableCartItems, line, store.Record{"quantity": current + quantity, "updated_at": now}); err != nil {
			return models.Cart{}, apperr.Dependency("update cart line", err)
		}
	} else {
		if quantity > p.StockQuantity {
			return models.Cart{}, apperr.Validation("only %d of %s in stock", p.StockQuantity, p.Name)
		}
		item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: now, UpdatedAt: now}
		if _, err := c.store.Insert(ctx, store.TableCartItems, item.Record()); err != nil {
			return models.Cart{}, apperr.Dependency("insert cart line", err)
		}
	}

	if c.tracker != nil {
		if _, err := c.tracker.Track(ctx, userID, productID, models.ActivityCartAdd); err != nil {
			c.logger.Warn("⚠️ cart activity not tracked", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return c.Get(ctx, userID)
}

// UpdateQuantity sets the quantity of an existing line.
func (c *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, apperr.Validation("quantity must be positive")
	}
	p, err := c.product(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}
	if quantity > p.StockQuantity {
		return models.Cart{}, apperr.Validation("only %d of %s in stock", p.StockQuantity, p.Name)
	}
	rows, err := c.store.Update(ctx, store.TableCartItems,
		store.Where().Eq("user_id", userID).Eq("product_id", productID),
		store.Record{"quantity": quantity, "updated_at": c.now().UTC()})
	if err != nil {
		return models.Cart{}, apperr.Dependency("update cart line", err)
	}
	if len(rows) == 0 {
		return models.Cart{}, apperr.NotFound("cart item", productID)
	}
	return c.Get(ctx, userID)
}

func (c *CartService) Remove(ctx context.Context, userID, productID string) error {
	line := store.Where().Eq("user_id", userID).Eq("product_id", productID)
	n, err := c.store.Count(ctx, store.TableCartItems, line)
	if err != nil {
		return apperr.Dependency("count cart line", err)
	}
	if n == 0 {
		return apperr.NotFound("cart item", productID)
	}
	if err := c.store.Delete(ctx, store.TableCartItems, line); err != nil {
		return apperr.Dependency("delete cart line", err)
	}
	return nil
}

func (c *CartService) Clear(ctx context.Context, userID string) error {
	if err := c.store.Delete(ctx, store.TableCartItems, store.Where().Eq("user_id", userID)); err != nil {
		return apperr.Dependency("clear cart", err)
	}
	return nil
}

func (c *CartService) product(ctx context.Context, id string) (models.Product, error) {
	rows, err := c.store.Fetch(ctx, store.TableProducts, store.Where().Eq("id", id))
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

func (c *CartService) primaryImages(ctx context.Context, productIDs []any) (map[string]string, error) {
	rows, err := c.store.Fetch(ctx, store.TableProductImages,
		store.Where().In("product_id", productIDs...).Eq("is_primary", true))
	if err != nil {
		return nil, apperr.Dependency("fetch cart images", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.String("product_id")] = r.String("image_url")
	}
	return out, nil
}
