package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"crown_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contact = Contact{StoreName: "Crown Mega Store", Email: "shop@example.com", Phone: "+2348000000000"}

func sampleOrder() models.Order {
	addr := "12 Marina Road, Lagos"
	return models.Order{
		OrderID:           "ORD1A2B3C4D",
		CustomerName:      "Ada <script>",
		CustomerEmail:     "ada@example.com",
		CustomerPhone:     "+2348011111111",
		DeliveryAddress:   &addr,
		PaymentPreference: "bank_transfer",
		Total:             decimal.RequireFromString("250"),
		CreatedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Items: []models.OrderItem{
			{ProductName: "Rice 5kg", Quantity: 2, Price: decimal.RequireFromString("100")},
			{ProductName: "Oil", Quantity: 1, Price: decimal.RequireFromString("50")},
		},
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Payment Received", StatusLabel(models.StatusPaymentReceived))
	assert.Equal(t, "Pending", StatusLabel(models.StatusPending))
}

func TestNaira(t *testing.T) {
	assert.Equal(t, "₦250.00", Naira(decimal.NewFromInt(250)))
	assert.Equal(t, "₦0.10", Naira(decimal.RequireFromString("0.1")))
}

func TestBusinessOrderEmail(t *testing.T) {
	msg, err := BusinessOrderEmail(sampleOrder(), contact)
	require.NoError(t, err)

	assert.Equal(t, "New Order #ORD1A2B3C4D - ₦250.00", msg.Subject)
	assert.Contains(t, msg.Body, "Rice 5kg")
	assert.Contains(t, msg.Body, "₦200.00")
	assert.Contains(t, msg.Body, "12 Marina Road, Lagos")
	assert.Contains(t, msg.Body, "2026-01-02 03:04:05")
	assert.NotContains(t, msg.Body, "<script>")
}

func TestBusinessOrderEmail_Pickup(t *testing.T) {
	o := sampleOrder()
	o.PickupPreference = true
	msg, err := BusinessOrderEmail(o, contact)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "PICKUP PREFERRED")
}

func TestCustomerOrderEmail(t *testing.T) {
	msg, err := CustomerOrderEmail(sampleOrder(), contact)
	require.NoError(t, err)
	assert.Equal(t, "Order Confirmation #ORD1A2B3C4D - Crown Mega Store", msg.Subject)
	assert.Contains(t, msg.Body, "shop@example.com")
	assert.NotContains(t, msg.Body, "WhatsApp")
}

func TestStatusUpdateEmail(t *testing.T) {
	msg, err := StatusUpdateEmail(sampleOrder(), models.StatusShipped, "", contact)
	require.NoError(t, err)
	assert.Equal(t, "🚚 Order Shipped - Order #ORD1A2B3C4D", msg.Subject)
	assert.Contains(t, msg.Body, "on its way")
	assert.NotContains(t, msg.Body, "Note:")

	msg, err = StatusUpdateEmail(sampleOrder(), models.StatusPending, "call first", contact)
	require.NoError(t, err)
	assert.Equal(t, "📋 Order Status Update - Order #ORD1A2B3C4D", msg.Subject)
	assert.Contains(t, msg.Body, "Your order status has been updated to: Pending")
	assert.Contains(t, msg.Body, "call first")
}

func TestNotifier_OrderPlacedSendsBoth(t *testing.T) {
	sender := &RecordingSender{}
	n := NewNotifier(sender, contact)

	require.NoError(t, n.OrderPlaced(context.Background(), sampleOrder()))

	msgs := sender.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "shop@example.com", msgs[0].To)
	assert.Equal(t, "ada@example.com", msgs[1].To)
}

func TestNotifier_PropagatesSendFailure(t *testing.T) {
	boom := errors.New("smtp down")
	n := NewNotifier(&RecordingSender{Err: boom}, contact)

	err := n.OrderPlaced(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, boom)

	err = n.StatusChanged(context.Background(), sampleOrder(), models.StatusDelivered, "")
	assert.ErrorIs(t, err, boom)
}
