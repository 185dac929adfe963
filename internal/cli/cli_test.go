package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"crown_back_end/internal/app"
	"crown_back_end/internal/catalog"
	"crown_back_end/internal/config"
	"crown_back_end/internal/models"
	"crown_back_end/internal/orders"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *app.App {
	cfg := &config.Config{JWTSecret: "cli-secret", StoreDriver: config.DriverMemory, StoreName: "Crown"}
	a, err := app.Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(&state{app: a})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedOrder(t *testing.T, a *app.App) (models.Product, models.Order) {
	ctx := context.Background()
	p, err := a.Catalog.Create(ctx, catalog.ProductInput{
		Name: "Jollof spice", Category: "food", Price: decimal.NewFromInt(2500), StockQuantity: 8,
	})
	require.NoError(t, err)
	o, err := a.Orders.Create(ctx, orders.CreateRequest{
		Items: []orders.ItemRequest{{ProductID: p.ID, ProductName: p.Name, Quantity: 2, Price: p.Price}},
		Customer: orders.CustomerInfo{
			Name: "Ada", Email: "ada@example.com", Phone: "+2348000000000",
		},
	}, nil)
	require.NoError(t, err)
	return p, o
}

func TestOrdersCommands(t *testing.T) {
	a := newTestApp(t)
	_, o := seedOrder(t, a)

	out, err := run(t, a, "orders", "list", "--status", "pending")
	require.NoError(t, err)
	var page orders.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.TotalCount)

	out, err = run(t, a, "orders", "status", o.OrderID, "confirmed", "--notes", "packed")
	require.NoError(t, err)
	assert.Contains(t, out, o.OrderID+" is now confirmed")

	out, err = run(t, a, "orders", "payment", o.OrderID, "5000", "cash")
	require.NoError(t, err)
	assert.Contains(t, out, "paid 5000.00 via cash")

	_, err = run(t, a, "orders", "payment", o.OrderID, "five", "cash")
	assert.Error(t, err)

	_, err = run(t, a, "orders", "status", "ORDMISSING", "confirmed")
	assert.Error(t, err)

	out, err = run(t, a, "orders", "get", o.OrderID)
	require.NoError(t, err)
	var got models.Order
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, models.StatusPaymentReceived, got.Status)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, "shopctl", got.StatusHistory[1].UpdatedBy)

	out, err = run(t, a, "orders", "stats")
	require.NoError(t, err)
	var stats orders.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 1, stats.PaymentConfirmedCount)
}

func TestRecommendAndProductsCommands(t *testing.T) {
	a := newTestApp(t)
	p, _ := seedOrder(t, a)

	out, err := run(t, a, "recommend", "popular", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Jollof spice")

	out, err = run(t, a, "recommend", "similar", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "no products\n", out)

	_, err = run(t, a, "recommend", "for-you")
	assert.Error(t, err)

	out, err = run(t, a, "products", "categories")
	require.NoError(t, err)
	assert.Equal(t, "food\n", out)

	out, err = run(t, a, "products", "list", "--sort", "price_high")
	require.NoError(t, err)
	assert.Contains(t, out, "2500.00")
}
