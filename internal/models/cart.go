package models

import (
	"time"

	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
)

// CartItem is unique per (user, product).
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CartItemFromRecord(r store.Record) (CartItem, error) {
	c := CartItem{
		ID:        r.String("id"),
		UserID:    r.String("user_id"),
		ProductID: r.String("product_id"),
	}
	var err error
	if c.Quantity, err = r.Int("quantity"); err != nil {
		return CartItem{}, err
	}
	if c.CreatedAt, err = r.Time("created_at"); err != nil {
		return CartItem{}, err
	}
	if c.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return CartItem{}, err
	}
	return c, nil
}

func (c CartItem) Record() store.Record {
	return store.Record{
		"user_id":    c.UserID,
		"product_id": c.ProductID,
		"quantity":   c.Quantity,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}

// CartLine is a cart item enriched with the live product data.
type CartLine struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	ImageURL      *string         `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Items     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}
