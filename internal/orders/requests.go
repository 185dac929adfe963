package orders

import (
	"strings"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"

	"github.com/shopspring/decimal"
)

const defaultPaymentPreference = "bank_transfer"

type ItemRequest struct {
	ProductID   string          `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required"`
	Price       decimal.Decimal `json:"price"`
}

type CustomerInfo struct {
	Name              string  `json:"name" binding:"required"`
	Email             string  `json:"email" binding:"required,email"`
	Phone             string  `json:"phone" binding:"required"`
	DeliveryAddress   *string `json:"delivery_address"`
	PickupPreference  bool    `json:"pickup_preference"`
	OrderNotes        *string `json:"order_notes"`
	PaymentPreference string  `json:"payment_preference"`
}

type CreateRequest struct {
	Items    []ItemRequest `json:"items" binding:"required,dive"`
	Customer CustomerInfo  `json:"customer_info" binding:"required"`
}

func (r CreateRequest) validate() error {
	if len(r.Items) == 0 {
		return apperr.Validation("order has no items")
	}
	for _, it := range r.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperr.Validation("item without product_id")
		}
		if it.Quantity <= 0 {
			return apperr.Validation("quantity for %s must be positive", it.ProductID)
		}
		if it.Price.IsNegative() {
			return apperr.Validation("price for %s must not be negative", it.ProductID)
		}
	}
	c := r.Customer
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Phone) == "" {
		return apperr.Validation("customer name, email and phone are required")
	}
	return nil
}

// total is the exact sum of price*quantity.
func (r CreateRequest) total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

type StatusUpdate struct {
	Status    models.OrderStatus `json:"status" binding:"required"`
	UpdatedBy string             `json:"updated_by"`
	Notes     *string            `json:"notes"`
}

type PaymentRecord struct {
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" binding:"required"`
	RecordedBy string          `json:"recorded_by"`
	Notes      *string         `json:"notes"`
}

// Page is one page of the admin order listing.
type Page struct {
	Orders     []models.Order `json:"orders"`
	Count      int            `json:"count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalCount int            `json:"total_count"`
}

// Stats feeds the admin dashboard. Revenue counts orders that are paid or delivered.
type Stats struct {
	TotalOrders           int             `json:"total_orders"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	PendingOrders         int             `json:"pending_orders"`
	ConfirmedOrders       int             `json:"confirmed_orders"`
	CompletedOrders       int             `json:"completed_orders"`
	RecentOrdersCount     int             `json:"recent_orders_count"`
	AverageOrderValue     decimal.Decimal `json:"average_order_value"`
	StatusBreakdown       map[string]int  `json:"status_breakdown"`
	PaymentConfirmedCount int             `json:"payment_confirmed_count"`
}
