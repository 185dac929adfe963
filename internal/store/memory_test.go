package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducts(t *testing.T, c *MemoryClient) {
	t.Helper()
	_, err := c.Insert(context.Background(), TableProducts,
		Record{"id": "p1", "name": "Rice", "category": "food", "stock_quantity": 5, "price": decimal.NewFromInt(100)},
		Record{"id": "p2", "name": "Beans", "category": "food", "stock_quantity": 0, "price": decimal.NewFromInt(50)},
		Record{"id": "p3", "name": "Kettle", "category": "home", "stock_quantity": 2, "price": decimal.RequireFromString("75.5")},
	)
	require.NoError(t, err)
}

func TestMemoryClient_FetchFilters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedProducts(t, c)

	rows, err := c.Fetch(ctx, TableProducts, Where().Eq("category", "food"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = c.Fetch(ctx, TableProducts, Where().Gt("stock_quantity", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(rows))

	rows, err = c.Fetch(ctx, TableProducts, Where().In("id", "p3", "p2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, ids(rows))

	rows, err = c.Fetch(ctx, TableProducts, Where().In("id"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = c.Fetch(ctx, TableProducts, Where().Lte("price", "75.5"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, ids(rows))
}

func TestMemoryClient_OrderingAndRange(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedProducts(t, c)

	rows, err := c.Fetch(ctx, TableProducts, Where().OrderBy("price", true))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "p2"}, ids(rows))

	rows, err = c.Fetch(ctx, TableProducts, Where().OrderBy("price", false).Range(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids(rows))

	n, err := c.Count(ctx, TableProducts, Where().Range(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err = c.Fetch(ctx, TableProducts, Where().Range(10, 5))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryClient_EqualSortKeysKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	_, err := c.Insert(ctx, TableOrderItems,
		Record{"id": "z-item", "order_id": "o1", "created_at": at},
		Record{"id": "a-item", "order_id": "o1", "created_at": at},
		Record{"id": "m-item", "order_id": "o1", "created_at": at},
	)
	require.NoError(t, err)

	rows, err := c.Fetch(ctx, TableOrderItems, Where().Eq("order_id", "o1").OrderBy("created_at", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"z-item", "a-item", "m-item"}, ids(rows))
}

func TestMemoryClient_InsertAssignsIDAndCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	in := Record{"name": "Soap"}
	rows, err := c.Insert(ctx, TableProducts, in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].String("id"))
	assert.False(t, in.Has("id"), "caller record must not be mutated")

	rows[0]["name"] = "changed"
	stored, err := c.Fetch(ctx, TableProducts, nil)
	require.NoError(t, err)
	assert.Equal(t, "Soap", stored[0].String("name"))
}

func TestMemoryClient_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedProducts(t, c)

	updated, err := c.Update(ctx, TableProducts, Where().Eq("category", "food"), Record{"stock_quantity": 9})
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	rows, err := c.Fetch(ctx, TableProducts, Where().Eq("stock_quantity", 9))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, c.Delete(ctx, TableProducts, Where().Eq("id", "p1")))
	n, err := c.Count(ctx, TableProducts, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCompareValues_MixedRepresentations(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, compareValues(now, now.Format(time.RFC3339Nano)))
	assert.Equal(t, 1, compareValues(now.Add(time.Second).Format(time.RFC3339Nano), now))
	assert.Equal(t, 0, compareValues(json.Number("3"), 3))
	assert.Equal(t, -1, compareValues(decimal.RequireFromString("2.5"), 3))
	assert.Equal(t, -1, compareValues(nil, "a"))
	assert.Equal(t, 1, compareValues("b", "a"))
	assert.True(t, equalValues(true, "true"))
	assert.True(t, equalValues(json.Number("3"), "3.0"))
	assert.True(t, equalValues(decimal.RequireFromString("10.5"), "10.50"))

	// two strings compare as text, never as numbers
	assert.False(t, equalValues("2024", "2024.0"))
	assert.False(t, equalValues("2024", "2.024e3"))
	assert.True(t, equalValues("Food", "Food"))
	assert.False(t, equalValues("Food", "food"))
	assert.False(t, equalValues(nil, "x"))
}

func TestDecodeRecord_KeepsIntegers(t *testing.T) {
	r, err := decodeRecord([]byte(`{"id":"x","order_count":12,"price":"10.50","created_at":"2026-10-01T12:00:00Z"}`))
	require.NoError(t, err)

	n, err := r.Int("order_count")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	price, err := r.Decimal("price")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("10.5")))

	ts, err := r.Time("created_at")
	require.NoError(t, err)
	assert.Equal(t, 2026, ts.Year())
}

func ids(rows []Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String("id")
	}
	return out
}
