package recommend

import (
	"context"
	"testing"
	"time"

	"crown_back_end/internal/models"
	"crown_back_end/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	store  *store.MemoryClient
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	st := store.NewMemoryClient()
	eng := NewEngine(st, zaptest.NewLogger(t)).WithClock(func() time.Time { return testNow })
	return &fixture{t: t, store: st, engine: eng}
}

func (f *fixture) product(id, category string, price int64, stock, orders int, rating float64) {
	f.t.Helper()
	p := models.Product{
		ID:            id,
		Name:          "Product " + id,
		Category:      category,
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		OrderCount:    orders,
		Rating:        rating,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	_, err := f.store.Insert(context.Background(), store.TableProducts, p.Record())
	require.NoError(f.t, err)
}

func (f *fixture) activity(userID, productID, kind, category string, at time.Time) {
	f.t.Helper()
	a := models.UserActivity{UserID: userID, ProductID: productID, ActivityType: kind, Category: category, CreatedAt: at}
	_, err := f.store.Insert(context.Background(), store.TableActivities, a.Record())
	require.NoError(f.t, err)
}

func productIDs(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestPopular_RanksByOrdersAndRating(t *testing.T) {
	f := newFixture(t)
	f.product("p1", "food", 10, 3, 10, 4)  // 47
	f.product("p2", "food", 10, 3, 5, 5)   // 53.5
	f.product("p3", "food", 10, 3, 1, 1)   // 10.7
	f.product("p4", "food", 10, 0, 100, 5) // out of stock

	got, err := f.engine.Popular(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, productIDs(got))

	got, err = f.engine.Popular(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1", "p3"}, productIDs(got))
}

func TestForYou_ColdStartIsPopular(t *testing.T) {
	f := newFixture(t)
	f.product("p1", "food", 10, 3, 10, 4)
	f.product("p2", "home", 10, 3, 5, 5)
	f.product("p3", "toys", 10, 3, 1, 1)
	f.activity("someone-else", "p3", models.ActivityView, "toys", testNow)

	popular, err := f.engine.Popular(context.Background(), 2)
	require.NoError(t, err)

	got, err := f.engine.ForYou(context.Background(), "new-user", 2)
	require.NoError(t, err)
	assert.Equal(t, popular, got)
}

func TestForYou_BlendsPhasesWithoutCrossPhaseDedup(t *testing.T) {
	f := newFixture(t)
	recent := testNow.Add(-time.Hour)

	f.product("f1", "food", 100, 5, 0, 4)
	f.product("f2", "food", 100, 5, 0, 4)
	f.product("f3", "food", 100, 5, 0, 4)
	f.product("f4", "food", 100, 5, 0, 4)
	f.product("f5", "food", 100, 5, 0, 4)
	f.product("h1", "home", 100, 5, 0, 3)
	f.product("h2", "home", 100, 5, 0, 3)

	f.activity("u1", "f1", models.ActivityView, "food", recent)
	f.activity("u1", "f2", models.ActivityView, "food", recent)
	f.activity("u1", "h1", models.ActivityPurchase, "home", recent)
	f.activity("u2", "h1", models.ActivityPurchase, "home", recent)
	f.activity("u2", "h2", models.ActivityPurchase, "home", recent)

	got, err := f.engine.ForYou(context.Background(), "u1", 5)
	require.NoError(t, err)

	ids := productIDs(got)
	// content: f3, f4 (40% of 5); collaborative: h1; trending: h1 again
	assert.ElementsMatch(t, []string{"f3", "f4", "h1", "h1"}, ids)
	assert.NotContains(t, ids, "f1")
	assert.NotContains(t, ids, "f2")
	for _, p := range got {
		assert.True(t, p.InStock())
	}
}

func TestForYou_TruncatesToLimit(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		f.product(id, "food", 10, 5, 0, 3)
	}
	f.activity("u1", "a", models.ActivityCartAdd, "food", testNow)

	got, err := f.engine.ForYou(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
	assert.NotEmpty(t, got)
}

func TestCollaborative_NeighbourThreshold(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		f.product(id, "misc", 10, 5, 0, 3)
	}
	f.product("oos", "misc", 10, 0, 0, 3)

	buy := func(user string, ids ...string) {
		for _, id := range ids {
			f.activity(user, id, models.ActivityPurchase, "misc", testNow)
		}
	}
	buy("u1", "a", "b")
	buy("u2", "a", "b", "c")           // 2/3
	buy("u3", "a", "d", "e", "f", "g") // 1/6, ignored
	buy("u4", "b", "c", "h", "oos")    // 1/5, ignored
	buy("u5", "b", "h")                // 1/3

	exclude := map[string]struct{}{"a": {}, "b": {}}
	got, err := f.engine.Collaborative(context.Background(), "u1", []string{"a", "b"}, exclude)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "h"}, productIDs(got))

	got, err = f.engine.Collaborative(context.Background(), "u1", nil, exclude)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrending_WeightsAndWindow(t *testing.T) {
	f := newFixture(t)
	f.product("x", "misc", 10, 5, 0, 3)
	f.product("y", "misc", 10, 5, 0, 3)
	f.product("z", "misc", 10, 5, 0, 3)
	f.product("gone", "misc", 10, 0, 0, 3)

	f.activity("u1", "x", models.ActivityView, "misc", testNow.Add(-time.Hour))
	f.activity("u2", "x", models.ActivityView, "misc", testNow.Add(-2*time.Hour))
	f.activity("u1", "y", models.ActivityPurchase, "misc", testNow.Add(-24*time.Hour))
	f.activity("u1", "z", models.ActivityPurchase, "misc", testNow.Add(-8*24*time.Hour))
	f.activity("u3", "gone", models.ActivityPurchase, "misc", testNow)

	got, err := f.engine.Trending(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, productIDs(got))

	got, err = f.engine.Trending(context.Background(), map[string]struct{}{"y": {}}, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, productIDs(got))

	got, err = f.engine.TrendingProducts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, productIDs(got))
}

func TestSimilar(t *testing.T) {
	f := newFixture(t)
	f.product("s", "food", 100, 5, 0, 4)
	f.product("c1", "food", 90, 5, 0, 4)  // 90 + 100
	f.product("c2", "food", 100, 5, 5, 3) // 100 + 80 + 5
	f.product("c3", "food", 100, 0, 9, 4) // out of stock
	f.product("h1", "home", 100, 5, 0, 4) // other category

	got, err := f.engine.Similar(context.Background(), "s", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, productIDs(got))

	got, err = f.engine.Similar(context.Background(), "s", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, productIDs(got))

	got, err = f.engine.Similar(context.Background(), "missing", 6)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSimilar_CategoryIsExactText(t *testing.T) {
	f := newFixture(t)
	f.product("src", "2024", 100, 5, 0, 4)
	f.product("decimal", "2024.0", 100, 5, 0, 4)
	f.product("exponent", "2.024e3", 100, 5, 0, 4)
	f.product("same", "2024", 100, 5, 0, 4)

	got, err := f.engine.Similar(context.Background(), "src", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, productIDs(got))
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product("p1", "food", 10, 5, 0, 3)

	ok, err := f.engine.Track(ctx, "u1", "missing", models.ActivityView)
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := f.store.Count(ctx, store.TableActivities, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 2; i++ {
		ok, err = f.engine.Track(ctx, "u1", "p1", models.ActivityView)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	rows, err := f.store.Fetch(ctx, store.TableActivities, store.Where().Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	activity, err := models.ActivityFromRecord(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "food", activity.Category)
	assert.Equal(t, testNow, activity.CreatedAt)

	_, err = f.engine.Track(ctx, "u1", "p1", "  ")
	require.Error(t, err)
}

func TestTopCategories_TiesKeepFirstSeenOrder(t *testing.T) {
	activities := []models.UserActivity{
		{Category: "b"}, {Category: "a"}, {Category: "c"}, {Category: "a"},
		{Category: "d"}, {Category: "b"},
	}
	assert.Equal(t, []string{"b", "a", "c"}, TopCategories(activities, 3))
}
