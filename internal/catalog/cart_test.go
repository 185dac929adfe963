package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type trackCall struct {
	userID, productID, activity string
}

type fakeTracker struct {
	calls []trackCall
	err   error
}

func (f *fakeTracker) Track(_ context.Context, userID, productID, activityType string) (bool, error) {
	f.calls = append(f.calls, trackCall{userID, productID, activityType})
	return f.err == nil, f.err
}

func newCart(t *testing.T) (*CartService, *store.MemoryClient, *fakeTracker) {
	st := store.NewMemoryClient()
	seed(t, st,
		models.Product{ID: "rice", Name: "Rice", Category: "food", Price: decimal.NewFromInt(100), StockQuantity: 5},
		models.Product{ID: "oil", Name: "Palm oil", Category: "food", Price: decimal.RequireFromString("50.50"), StockQuantity: 2},
	)
	_, err := st.Insert(context.Background(), store.TableProductImages,
		models.ProductImage{ProductID: "rice", URL: "https://img/rice.jpg", IsPrimary: true}.Record(),
		models.ProductImage{ProductID: "rice", URL: "https://img/rice-2.jpg", Position: 1}.Record(),
	)
	require.NoError(t, err)

	tracker := &fakeTracker{}
	svc := NewCartService(st, tracker, zaptest.NewLogger(t))
	tick := testNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc, st, tracker
}

func TestCart_AddMergesAndTotals(t *testing.T) {
	ctx := context.Background()
	svc, st, tracker := newCart(t)

	_, err := svc.Add(ctx, "u1", "rice", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "oil", 1)
	require.NoError(t, err)
	cart, err := svc.Add(ctx, "u1", "rice", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "rice", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "200", cart.Items[0].Subtotal.String())
	require.NotNil(t, cart.Items[0].ImageURL)
	assert.Equal(t, "https://img/rice.jpg", *cart.Items[0].ImageURL)
	assert.Nil(t, cart.Items[1].ImageURL)
	assert.Equal(t, "250.5", cart.Total.String())
	assert.Equal(t, 3, cart.ItemCount)

	n, err := st.Count(ctx, store.TableCartItems, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, tracker.calls, 3)
	assert.Equal(t, trackCall{"u1", "rice", models.ActivityCartAdd}, tracker.calls[0])
}

func TestCart_AddValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, tracker := newCart(t)

	_, err := svc.Add(ctx, "u1", "rice", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Add(ctx, "u1", "oil", 3)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Add(ctx, "u1", "ghost", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Add(ctx, "u1", "oil", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "oil", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Len(t, tracker.calls, 1)
}

func TestCart_TrackingFailureIgnored(t *testing.T) {
	svc, _, tracker := newCart(t)
	tracker.err = errors.New("activity store down")

	cart, err := svc.Add(context.Background(), "u1", "rice", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.ItemCount)
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newCart(t)

	_, err := svc.Add(ctx, "u1", "rice", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "oil", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u2", "rice", 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "u1", "rice", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.ItemCount)

	_, err = svc.UpdateQuantity(ctx, "u1", "rice", 6)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateQuantity(ctx, "u1", "rice", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateQuantity(ctx, "u2", "oil", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Remove(ctx, "u1", "oil"))
	assert.ErrorIs(t, svc.Remove(ctx, "u1", "oil"), apperr.ErrNotFound)
	cart, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.NoError(t, svc.Clear(ctx, "u1"))
	cart, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	n, err := st.Count(ctx, store.TableCartItems, store.Where().Eq("user_id", "u2"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCart_DropsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newCart(t)

	_, err := svc.Add(ctx, "u1", "rice", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "oil", 1)
	require.NoError(t, err)
	require.NoError(t, st.Delete(ctx, store.TableProducts, store.Where().Eq("id", "oil")))

	cart, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "100", cart.Total.String())
	assert.Equal(t, 1, cart.ItemCount)
}
