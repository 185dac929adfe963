package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"crown_back_end/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("emails").Funcs(template.FuncMap{"naira": Naira}).ParseFS(templateFS, "templates/*.html"),
)

// Contact is the store contact block printed in customer emails.
type Contact struct {
	StoreName string
	Email     string
	Phone     string
	WhatsApp  string
}

// Email is a rendered message ready for a Sender.
type Email struct {
	Subject string
	Body    string
}

type statusCopy struct {
	Emoji   string
	Title   string
	Message string
	Accent  template.CSS
}

var statusCopies = map[models.OrderStatus]statusCopy{
	models.StatusConfirmed: {
		Emoji: "✅", Title: "Order Confirmed", Accent: "#27ae60",
		Message: "Great news! We've confirmed your order and will send payment details shortly.",
	},
	models.StatusPaymentReceived: {
		Emoji: "💰", Title: "Payment Received", Accent: "#16a085",
		Message: "We've received your payment! Your order is now being processed.",
	},
	models.StatusProcessing: {
		Emoji: "📦", Title: "Order Processing", Accent: "#2c5aa0",
		Message: "Your order is being prepared for delivery.",
	},
	models.StatusShipped: {
		Emoji: "🚚", Title: "Order Shipped", Accent: "#8e44ad",
		Message: "Your order has been shipped and is on its way!",
	},
	models.StatusDelivered: {
		Emoji: "🎉", Title: "Order Delivered", Accent: "#27ae60",
		Message: "Your order has been delivered successfully! Thank you for shopping with us.",
	},
	models.StatusCancelled: {
		Emoji: "❌", Title: "Order Cancelled", Accent: "#e74c3c",
		Message: "Your order has been cancelled as requested.",
	},
}

var titleCaser = cases.Title(language.English)

// StatusLabel turns "payment_received" into "Payment Received".
func StatusLabel(status models.OrderStatus) string {
	return titleCaser.String(strings.ReplaceAll(string(status), "_", " "))
}

func copyFor(status models.OrderStatus) statusCopy {
	if c, ok := statusCopies[status]; ok {
		return c
	}
	return statusCopy{
		Emoji:   "📋",
		Title:   "Order Status Update",
		Message: "Your order status has been updated to: " + StatusLabel(status),
		Accent:  "#2c5aa0",
	}
}

// Naira formats an amount with two decimals and the naira sign.
func Naira(amount decimal.Decimal) string {
	return "₦" + amount.StringFixed(2)
}

type orderView struct {
	StoreName         string
	Contact           Contact
	OrderID           string
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	DeliveryAddress   string
	Pickup            bool
	PaymentPreference string
	Notes             string
	Items             []models.OrderItem
	Total             decimal.Decimal
	PlacedAt          string
}

func newOrderView(o models.Order, contact Contact) orderView {
	v := orderView{
		StoreName:         contact.StoreName,
		Contact:           contact,
		OrderID:           o.OrderID,
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		CustomerPhone:     o.CustomerPhone,
		DeliveryAddress:   "N/A",
		Pickup:            o.PickupPreference,
		PaymentPreference: o.PaymentPreference,
		Notes:             "None",
		Items:             o.Items,
		Total:             o.Total,
		PlacedAt:          o.CreatedAt.UTC().Format(time.DateTime),
	}
	if o.DeliveryAddress != nil {
		v.DeliveryAddress = *o.DeliveryAddress
	}
	if o.OrderNotes != nil {
		v.Notes = *o.OrderNotes
	}
	return v
}

// BusinessOrderEmail is the new-order alert sent to the store owner.
func BusinessOrderEmail(o models.Order, contact Contact) (Email, error) {
	body, err := render("business_order.html", newOrderView(o, contact))
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("New Order #%s - %s", o.OrderID, Naira(o.Total)),
		Body:    body,
	}, nil
}

// CustomerOrderEmail confirms receipt of the order to the customer.
func CustomerOrderEmail(o models.Order, contact Contact) (Email, error) {
	body, err := render("customer_order.html", newOrderView(o, contact))
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Order Confirmation #%s - %s", o.OrderID, contact.StoreName),
		Body:    body,
	}, nil
}

// StatusUpdateEmail tells the customer the order moved to status. Statuses
// without dedicated copy get a generic message.
func StatusUpdateEmail(o models.Order, status models.OrderStatus, notes string, contact Contact) (Email, error) {
	c := copyFor(status)
	body, err := render("status_update.html", struct {
		statusCopy
		StoreName    string
		Contact      Contact
		CustomerName string
		OrderID      string
		Total        decimal.Decimal
		StatusLabel  string
		Notes        string
	}{
		statusCopy:   c,
		StoreName:    contact.StoreName,
		Contact:      contact,
		CustomerName: o.CustomerName,
		OrderID:      o.OrderID,
		Total:        o.Total,
		StatusLabel:  StatusLabel(status),
		Notes:        notes,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("%s %s - Order #%s", c.Emoji, c.Title, o.OrderID),
		Body:    body,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
