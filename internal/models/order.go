package models

import (
	"fmt"
	"time"

	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusConfirmed       OrderStatus = "confirmed"
	StatusPaymentReceived OrderStatus = "payment_received"
	StatusProcessing      OrderStatus = "processing"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
)

// OrderStatuses lists every accepted status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPaymentReceived,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID                string               `json:"id"`
	OrderID           string               `json:"order_id"`
	UserID            *string              `json:"user_id"`
	CustomerName      string               `json:"customer_name"`
	CustomerEmail     string               `json:"customer_email"`
	CustomerPhone     string               `json:"customer_phone"`
	DeliveryAddress   *string              `json:"delivery_address"`
	PickupPreference  bool                 `json:"pickup_preference"`
	OrderNotes        *string              `json:"order_notes,omitempty"`
	PaymentPreference string               `json:"payment_preference"`
	Total             decimal.Decimal      `json:"total"`
	Status            OrderStatus          `json:"status"`
	PaymentConfirmed  bool                 `json:"payment_confirmed"`
	PaymentAmount     decimal.Decimal      `json:"payment_amount"`
	PaymentMethod     *string              `json:"payment_method"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Items             []OrderItem          `json:"items,omitempty"`
	StatusHistory     []StatusHistoryEntry `json:"status_history,omitempty"`
}

// OrderItem is a snapshot taken at checkout; later product edits never touch it.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderRef    string          `json:"-"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type StatusHistoryEntry struct {
	ID        string      `json:"id"`
	OrderRef  string      `json:"-"`
	Status    OrderStatus `json:"status"`
	UpdatedBy string      `json:"updated_by"`
	Notes     *string     `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func OrderFromRecord(r store.Record) (Order, error) {
	var (
		o   Order
		err error
	)
	o.ID = r.String("id")
	o.OrderID = r.String("order_id")
	if o.ID == "" || o.OrderID == "" {
		return Order{}, fmt.Errorf("order row without id")
	}
	o.UserID = r.OptString("user_id")
	o.CustomerName = r.String("customer_name")
	o.CustomerEmail = r.String("customer_email")
	o.CustomerPhone = r.String("customer_phone")
	o.DeliveryAddress = r.OptString("delivery_address")
	o.OrderNotes = r.OptString("order_notes")
	o.PaymentPreference = r.String("payment_preference")
	o.Status = OrderStatus(r.String("status"))
	o.PaymentMethod = r.OptString("payment_method")

	if o.PickupPreference, err = r.Bool("pickup_preference"); err != nil {
		return Order{}, err
	}
	if o.Total, err = r.Decimal("total"); err != nil {
		return Order{}, err
	}
	if o.PaymentConfirmed, err = r.Bool("payment_confirmed"); err != nil {
		return Order{}, err
	}
	if o.PaymentAmount, err = r.Decimal("payment_amount"); err != nil {
		return Order{}, err
	}
	if o.CreatedAt, err = r.Time("created_at"); err != nil {
		return Order{}, err
	}
	if o.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) Record() store.Record {
	r := store.Record{
		"order_id":           o.OrderID,
		"user_id":            derefOrNil(o.UserID),
		"customer_name":      o.CustomerName,
		"customer_email":     o.CustomerEmail,
		"customer_phone":     o.CustomerPhone,
		"delivery_address":   derefOrNil(o.DeliveryAddress),
		"pickup_preference":  o.PickupPreference,
		"order_notes":        derefOrNil(o.OrderNotes),
		"payment_preference": o.PaymentPreference,
		"total":              o.Total,
		"status":             string(o.Status),
		"payment_confirmed":  o.PaymentConfirmed,
		"payment_amount":     o.PaymentAmount,
		"payment_method":     derefOrNil(o.PaymentMethod),
		"created_at":         o.CreatedAt,
		"updated_at":         o.UpdatedAt,
	}
	if o.ID != "" {
		r["id"] = o.ID
	}
	return r
}

func OrderItemFromRecord(r store.Record) (OrderItem, error) {
	var (
		it  OrderItem
		err error
	)
	it.ID = r.String("id")
	it.OrderRef = r.String("order_id")
	it.ProductID = r.String("product_id")
	it.ProductName = r.String("product_name")
	if it.Quantity, err = r.Int("quantity"); err != nil {
		return OrderItem{}, err
	}
	if it.Price, err = r.Decimal("price"); err != nil {
		return OrderItem{}, err
	}
	if it.CreatedAt, err = r.Time("created_at"); err != nil {
		return OrderItem{}, err
	}
	return it, nil
}

func (i OrderItem) Record() store.Record {
	return store.Record{
		"order_id":     i.OrderRef,
		"product_id":   i.ProductID,
		"product_name": i.ProductName,
		"quantity":     i.Quantity,
		"price":        i.Price,
		"created_at":   i.CreatedAt,
	}
}

func StatusHistoryFromRecord(r store.Record) (StatusHistoryEntry, error) {
	var (
		h   StatusHistoryEntry
		err error
	)
	h.ID = r.String("id")
	h.OrderRef = r.String("order_id")
	h.Status = OrderStatus(r.String("status"))
	h.UpdatedBy = r.String("updated_by")
	h.Notes = r.OptString("notes")
	if h.CreatedAt, err = r.Time("created_at"); err != nil {
		return StatusHistoryEntry{}, err
	}
	return h, nil
}

func (h StatusHistoryEntry) Record() store.Record {
	return store.Record{
		"order_id":   h.OrderRef,
		"status":     string(h.Status),
		"updated_by": h.UpdatedBy,
		"notes":      derefOrNil(h.Notes),
		"created_at": h.CreatedAt,
	}
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
