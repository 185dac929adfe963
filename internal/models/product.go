package models

import (
	"fmt"
	"time"

	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ViewCount     int             `json:"view_count"`
	OrderCount    int             `json:"order_count"`
	Rating        float64         `json:"rating"`
	IsFeatured    bool            `json:"is_featured"`
	IsNew         bool            `json:"is_new"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Images        []ProductImage  `json:"images"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

type ProductImage struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	URL       string    `json:"image_url"`
	AltText   string    `json:"alt_text,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	Position  int       `json:"display_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductFromRecord validates a products row and converts it.
func ProductFromRecord(r store.Record) (Product, error) {
	var (
		p   Product
		err error
	)
	p.ID = r.String("id")
	if p.ID == "" {
		return Product{}, fmt.Errorf("product row without id")
	}
	p.Name = r.String("name")
	p.Description = r.String("description")
	p.Category = r.String("category")

	if p.Price, err = r.Decimal("price"); err != nil {
		return Product{}, err
	}
	if p.StockQuantity, err = r.Int("stock_quantity"); err != nil {
		return Product{}, err
	}
	if p.ViewCount, err = r.Int("view_count"); err != nil {
		return Product{}, err
	}
	if p.OrderCount, err = r.Int("order_count"); err != nil {
		return Product{}, err
	}
	if p.Rating, err = r.Float("rating"); err != nil {
		return Product{}, err
	}
	if p.IsFeatured, err = r.Bool("is_featured"); err != nil {
		return Product{}, err
	}
	if p.IsNew, err = r.Bool("is_new"); err != nil {
		return Product{}, err
	}
	if p.CreatedAt, err = r.Time("created_at"); err != nil {
		return Product{}, err
	}
	if p.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return Product{}, err
	}
	if p.StockQuantity < 0 || p.ViewCount < 0 || p.OrderCount < 0 {
		return Product{}, fmt.Errorf("product %s: negative counter", p.ID)
	}
	return p, nil
}

// ProductsFromRecords converts a batch, failing on the first invalid row.
func ProductsFromRecords(rows []store.Record) ([]Product, error) {
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		p, err := ProductFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Record flattens the product into a products row. Images live in their own table.
func (p Product) Record() store.Record {
	r := store.Record{
		"name":           p.Name,
		"description":    p.Description,
		"category":       p.Category,
		"price":          p.Price,
		"stock_quantity": p.StockQuantity,
		"view_count":     p.ViewCount,
		"order_count":    p.OrderCount,
		"rating":         p.Rating,
		"is_featured":    p.IsFeatured,
		"is_new":         p.IsNew,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
	if p.ID != "" {
		r["id"] = p.ID
	}
	return r
}

func ProductImageFromRecord(r store.Record) (ProductImage, error) {
	var (
		img ProductImage
		err error
	)
	img.ID = r.String("id")
	img.ProductID = r.String("product_id")
	img.URL = r.String("image_url")
	img.AltText = r.String("alt_text")
	if img.IsPrimary, err = r.Bool("is_primary"); err != nil {
		return ProductImage{}, err
	}
	if img.Position, err = r.Int("display_order"); err != nil {
		return ProductImage{}, err
	}
	if img.CreatedAt, err = r.Time("created_at"); err != nil {
		return ProductImage{}, err
	}
	return img, nil
}

func (img ProductImage) Record() store.Record {
	r := store.Record{
		"product_id":    img.ProductID,
		"image_url":     img.URL,
		"alt_text":      img.AltText,
		"is_primary":    img.IsPrimary,
		"display_order": img.Position,
		"created_at":    img.CreatedAt,
	}
	if img.ID != "" {
		r["id"] = img.ID
	}
	return r
}
