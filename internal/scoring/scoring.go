// Package scoring holds the pure ranking functions used by the catalog and the
// recommendation engine. Scores are comparators only and are never shown to
// shoppers, so no term is normalised to a fixed range.
package scoring

import (
	"math"

	"crown_back_end/internal/models"
)

type Strategy string

const (
	StrategyBalanced   Strategy = "balanced"
	StrategyPopularity Strategy = "popularity"
)

const (
	stockCap      = 20
	orderCountCap = 50
)

// RankingScore scores p under strategy. Unknown strategies score 0 so callers
// fall back to insertion order.
func RankingScore(p models.Product, strategy Strategy) float64 {
	switch strategy {
	case StrategyPopularity:
		return 0.3*float64(p.ViewCount) + 0.7*float64(p.OrderCount)
	case StrategyBalanced:
		score := 0.2*float64(p.ViewCount) + 0.4*float64(p.OrderCount)
		score += 20 * p.Rating
		score += float64(min(p.StockQuantity, stockCap))
		if p.IsFeatured {
			score += 50
		}
		if p.IsNew {
			score += 30
		}
		return score
	}
	return 0
}

// PopularityScore is the all-time ranking used by the popular listing.
func PopularityScore(p models.Product) float64 {
	return 0.7*float64(p.OrderCount) + 10*p.Rating
}

// Profile summarises a shopper's activity log for affinity scoring.
type Profile struct {
	categoryCounts map[string]int
	events         int
	avgPrice       float64
	hasPrices      bool
}

// NewProfile builds a profile from the activity log and the prices of the
// products behind its purchase events (one entry per purchase event).
func NewProfile(activities []models.UserActivity, purchasePrices []float64) Profile {
	prof := Profile{categoryCounts: make(map[string]int, len(activities))}
	for _, a := range activities {
		prof.categoryCounts[a.Category]++
		prof.events++
	}
	if len(purchasePrices) > 0 {
		var sum float64
		for _, price := range purchasePrices {
			sum += price
		}
		prof.avgPrice = sum / float64(len(purchasePrices))
		prof.hasPrices = true
	}
	return prof
}

// CategoryFrequency is the share of events that touched category.
func (prof Profile) CategoryFrequency(category string) float64 {
	if prof.events == 0 {
		return 0
	}
	return float64(prof.categoryCounts[category]) / float64(prof.events)
}

// Affinity scores how well p matches the profile.
func Affinity(p models.Product, prof Profile) float64 {
	score := 10*p.Rating + float64(min(p.OrderCount, orderCountCap))
	score += 30 * prof.CategoryFrequency(p.Category)

	if prof.hasPrices && prof.avgPrice > 0 {
		diff := math.Abs(p.Price.InexactFloat64()-prof.avgPrice) / prof.avgPrice
		score += math.Max(0, 20-20*diff)
	}

	if p.InStock() {
		score += 10
	}
	if p.IsNew {
		score += 15
	}
	if p.IsFeatured {
		score += 10
	}
	return score
}

// Similarity ranks candidate against source within one category.
func Similarity(candidate, source models.Product) float64 {
	var priceSimilarity float64
	sourcePrice := source.Price.InexactFloat64()
	delta := math.Abs(candidate.Price.InexactFloat64() - sourcePrice)
	switch {
	case sourcePrice > 0:
		priceSimilarity = math.Max(0, 100-100*delta/sourcePrice)
	case delta == 0:
		// both free
		priceSimilarity = 100
	}

	ratingGap := math.Abs(candidate.Rating - source.Rating)
	return priceSimilarity + (100 - 20*ratingGap) + float64(candidate.OrderCount)
}

// Jaccard is |a∩b| / |a∪b|, defined as 0 when both sets are empty.
func Jaccard[T comparable](a, b map[T]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var inter int
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Set builds a set from ids.
func Set[T comparable](ids ...T) map[T]struct{} {
	s := make(map[T]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
