package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
	"crown_back_end/internal/scoring"
	"crown_back_end/internal/store"
	"crown_back_end/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	contentShare       = 0.4
	collaborativeShare = 0.3
	trendingShare      = 0.3

	topCategories       = 3
	neighbourThreshold  = 0.20
	collaborativeTop    = 10
	trendingTop         = 20
	purchaseWeight      = 3
	DefaultTrendingDays = 7
)

var tracer = otel.Tracer("crown_back_end/recommend")

// Engine produces ranked product lists from the catalog and the activity log.
type Engine struct {
	store  store.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(st store.Client, logger *zap.Logger) *Engine {
	return &Engine{store: st, logger: logger, now: time.Now}
}

// WithClock replaces the time source; used by tests to pin the trending window.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ForYou blends content-based, collaborative and trending candidates for userID.
// Shoppers without any recorded activity get Popular(limit).
func (e *Engine) ForYou(ctx context.Context, userID string, limit int) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "ForYou")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID), attribute.Int("limit", limit))

	if limit <= 0 {
		return []models.Product{}, nil
	}

	activities, err := e.userActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return e.Popular(ctx, limit)
	}

	var (
		viewed    []string
		purchased []string
	)
	for _, a := range activities {
		switch a.ActivityType {
		case models.ActivityView:
			viewed = append(viewed, a.ProductID)
		case models.ActivityPurchase:
			purchased = append(purchased, a.ProductID)
		}
	}
	seen := scoring.Set(viewed...)

	// Content phase: same categories as the shopper's history.
	var recs []models.Product
	contentTarget := float64(limit) * contentShare
content:
	for _, category := range TopCategories(activities, topCategories) {
		rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().Eq("category", category))
		if err != nil {
			return nil, apperr.Dependency("fetch category products", err)
		}
		products, err := models.ProductsFromRecords(rows)
		if err != nil {
			return nil, apperr.Dependency("decode category products", err)
		}
		for _, p := range products {
			if _, ok := seen[p.ID]; ok || !p.InStock() {
				continue
			}
			recs = append(recs, p)
			seen[p.ID] = struct{}{}
			if float64(len(recs)) >= contentTarget {
				break content
			}
		}
	}

	// The collaborative and trending phases share the seen set but are not
	// de-duplicated against each other.
	collaborative, err := e.Collaborative(ctx, userID, purchased, seen)
	if err != nil {
		return nil, err
	}
	recs = append(recs, head(collaborative, int(float64(limit)*collaborativeShare))...)

	trending, err := e.Trending(ctx, seen, DefaultTrendingDays)
	if err != nil {
		return nil, err
	}
	recs = append(recs, head(trending, int(float64(limit)*trendingShare))...)

	recs = head(recs, limit)

	prices, err := e.purchasePrices(ctx, activities)
	if err != nil {
		return nil, err
	}
	profile := scoring.NewProfile(activities, prices)

	type scored struct {
		product models.Product
		score   float64
	}
	ranked := make([]scored, len(recs))
	for i, p := range recs {
		ranked[i] = scored{product: p, score: scoring.Affinity(p, profile)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return compareDesc(a.score, b.score)
	})

	out := make([]models.Product, len(ranked))
	for i, s := range ranked {
		out[i] = s.product
	}
	e.logger.Debug("personalized recommendations built",
		zap.String("user_id", userID),
		zap.Int("candidates", len(out)),
	)
	return out, nil
}

// Collaborative recommends what shoppers with overlapping purchases bought.
// Neighbours need a Jaccard similarity above 0.20; each neighbour adds its
// similarity to every product it bought that is not excluded.
func (e *Engine) Collaborative(ctx context.Context, userID string, purchases []string, exclude map[string]struct{}) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "Collaborative")
	defer span.End()

	if len(purchases) == 0 {
		return []models.Product{}, nil
	}

	rows, err := e.store.Fetch(ctx, store.TableActivities, store.Where().Eq("activity_type", models.ActivityPurchase))
	if err != nil {
		return nil, apperr.Dependency("fetch purchase activities", err)
	}
	events, err := models.ActivitiesFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode purchase activities", err)
	}

	neighbours := newOrderedSets()
	for _, a := range events {
		if a.UserID != userID {
			neighbours.add(a.UserID, a.ProductID)
		}
	}

	mine := scoring.Set(purchases...)
	scores := newTally()
	for _, other := range neighbours.keys {
		bought := neighbours.sets[other]
		similarity := scoring.Jaccard(mine, bought.members)
		if similarity <= neighbourThreshold {
			continue
		}
		for _, productID := range bought.order {
			if _, skip := exclude[productID]; skip {
				continue
			}
			scores.add(productID, similarity)
		}
	}

	return e.inStockByRank(ctx, scores.top(collaborativeTop))
}

// Trending ranks products by weighted activity over the trailing window.
// Purchases count three times, every other event once.
func (e *Engine) Trending(ctx context.Context, exclude map[string]struct{}, days int) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "Trending")
	defer span.End()

	if days <= 0 {
		days = DefaultTrendingDays
	}
	cutoff := e.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	rows, err := e.store.Fetch(ctx, store.TableActivities, store.Where().Gte("created_at", cutoff))
	if err != nil {
		return nil, apperr.Dependency("fetch recent activities", err)
	}
	events, err := models.ActivitiesFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode recent activities", err)
	}

	scores := newTally()
	for _, a := range events {
		if _, skip := exclude[a.ProductID]; skip {
			continue
		}
		weight := 1.0
		if a.ActivityType == models.ActivityPurchase {
			weight = purchaseWeight
		}
		scores.add(a.ProductID, weight)
	}

	return e.inStockByRank(ctx, scores.top(trendingTop))
}

// TrendingProducts is the public trending listing over the default window.
func (e *Engine) TrendingProducts(ctx context.Context, limit int) ([]models.Product, error) {
	trending, err := e.Trending(ctx, nil, DefaultTrendingDays)
	if err != nil {
		return nil, err
	}
	return head(trending, limit), nil
}

// Popular ranks every in-stock product by all-time orders and rating.
func (e *Engine) Popular(ctx context.Context, limit int) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "Popular")
	defer span.End()

	rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().Gt("stock_quantity", 0))
	if err != nil {
		return nil, apperr.Dependency("fetch in-stock products", err)
	}
	products, err := models.ProductsFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode products", err)
	}

	slices.SortStableFunc(products, func(a, b models.Product) int {
		return compareDesc(scoring.PopularityScore(a), scoring.PopularityScore(b))
	})
	return head(products, limit), nil
}

// Similar ranks in-stock products of the source's category by closeness in
// price and rating. An unknown source yields an empty list.
func (e *Engine) Similar(ctx context.Context, productID string, limit int) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "Similar")
	defer span.End()
	span.SetAttributes(attribute.String("product_id", productID))

	source, err := e.product(ctx, productID)
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().Eq("category", source.Category))
	if err != nil {
		return nil, apperr.Dependency("fetch category products", err)
	}
	candidates, err := models.ProductsFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode category products", err)
	}

	type scored struct {
		product models.Product
		score   float64
	}
	var ranked []scored
	for _, p := range candidates {
		if p.ID == source.ID || !p.InStock() {
			continue
		}
		ranked = append(ranked, scored{product: p, score: scoring.Similarity(p, source)})
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return compareDesc(a.score, b.score)
	})

	out := make([]models.Product, 0, len(ranked))
	for _, s := range head(ranked, limit) {
		out = append(out, s.product)
	}
	return out, nil
}

// Track appends an activity event with the product's current category. It
// reports false without writing when the product does not exist. Identical
// events are stored again: repetition is signal.
func (e *Engine) Track(ctx context.Context, userID, productID, activityType string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Track")
	defer span.End()

	activityType = strings.TrimSpace(activityType)
	if userID == "" || productID == "" || activityType == "" {
		return false, apperr.Validation("user, product and activity type are required")
	}

	p, err := e.product(ctx, productID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	activity := models.UserActivity{
		UserID:       userID,
		ProductID:    productID,
		ActivityType: activityType,
		Category:     p.Category,
		CreatedAt:    e.now().UTC(),
	}
	if _, err := e.store.Insert(ctx, store.TableActivities, activity.Record()); err != nil {
		return false, apperr.Dependency("insert activity", err)
	}
	telemetry.ActivitiesTracked.WithLabelValues(activityType).Inc()
	return true, nil
}

// TopCategories returns up to n categories by frequency, ties broken by the
// order in which they first appear in the log.
func TopCategories(activities []models.UserActivity, n int) []string {
	counts := newTally()
	for _, a := range activities {
		counts.add(a.Category, 1)
	}
	return counts.top(n)
}

func (e *Engine) userActivities(ctx context.Context, userID string) ([]models.UserActivity, error) {
	rows, err := e.store.Fetch(ctx, store.TableActivities, store.Where().Eq("user_id", userID))
	if err != nil {
		return nil, apperr.Dependency("fetch user activities", err)
	}
	activities, err := models.ActivitiesFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode user activities", err)
	}
	return activities, nil
}

func (e *Engine) product(ctx context.Context, id string) (models.Product, error) {
	rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().Eq("id", id))
	if err != nil {
		return models.Product{}, apperr.Dependency("fetch product", err)
	}
	if len(rows) == 0 {
		return models.Product{}, apperr.NotFound("product", id)
	}
	p, err := models.ProductFromRecord(rows[0])
	if err != nil {
		return models.Product{}, apperr.Dependency("decode product", err)
	}
	return p, nil
}

// purchasePrices returns one price per purchase event whose product still exists.
func (e *Engine) purchasePrices(ctx context.Context, activities []models.UserActivity) ([]float64, error) {
	var ids []any
	for _, a := range activities {
		if a.ActivityType == models.ActivityPurchase {
			ids = append(ids, a.ProductID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().In("id", ids...))
	if err != nil {
		return nil, apperr.Dependency("fetch purchased products", err)
	}
	priceByID := make(map[string]float64, len(rows))
	for _, r := range rows {
		price, err := r.Decimal("price")
		if err != nil {
			return nil, apperr.Dependency("decode purchased product", err)
		}
		priceByID[r.String("id")] = price.InexactFloat64()
	}

	prices := make([]float64, 0, len(ids))
	for _, id := range ids {
		if price, ok := priceByID[fmt.Sprint(id)]; ok {
			prices = append(prices, price)
		}
	}
	return prices, nil
}

// inStockByRank loads the ranked ids and keeps the in-stock ones, in rank order.
func (e *Engine) inStockByRank(ctx context.Context, ranked []string) ([]models.Product, error) {
	if len(ranked) == 0 {
		return []models.Product{}, nil
	}
	ids := make([]any, len(ranked))
	for i, id := range ranked {
		ids[i] = id
	}
	rows, err := e.store.Fetch(ctx, store.TableProducts, store.Where().In("id", ids...))
	if err != nil {
		return nil, apperr.Dependency("fetch ranked products", err)
	}
	products, err := models.ProductsFromRecords(rows)
	if err != nil {
		return nil, apperr.Dependency("decode ranked products", err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.Product, 0, len(ranked))
	for _, id := range ranked {
		if p, ok := byID[id]; ok && p.InStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
