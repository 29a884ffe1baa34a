package pricing

import (
	"slices"

	"github.com/pricecomp/backend/internal/domain"
)

// Rank sorts results by ascending price and keeps at most limit of them.
// Equal prices keep their input order. The input slice is not modified.
func Rank(results []domain.PriceResult, limit int) []domain.PriceResult {
	ranked := append(make([]domain.PriceResult, 0, len(results)), results...)
	slices.SortStableFunc(ranked, func(a, b domain.PriceResult) int {
		return a.Price.Cmp(b.Price)
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
