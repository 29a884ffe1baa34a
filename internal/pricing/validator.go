package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Plausibility limits and result cap used when nothing else is configured
const (
	DefaultMinPrice    = "1"
	DefaultMaxPrice    = "100000"
	DefaultResultLimit = 5
)

// Bounds is the inclusive range of amounts accepted as a real price
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultBounds returns [DefaultMinPrice, DefaultMaxPrice]
func DefaultBounds() Bounds {
	return Bounds{
		Min: decimal.RequireFromString(DefaultMinPrice),
		Max: decimal.RequireFromString(DefaultMaxPrice),
	}
}

// NewBounds parses min and max decimal strings
func NewBounds(minPrice, maxPrice string) (Bounds, error) {
	lo, err := decimal.NewFromString(minPrice)
	if err != nil {
		return Bounds{}, fmt.Errorf("invalid min price %q: %w", minPrice, err)
	}
	hi, err := decimal.NewFromString(maxPrice)
	if err != nil {
		return Bounds{}, fmt.Errorf("invalid max price %q: %w", maxPrice, err)
	}
	if lo.GreaterThan(hi) {
		return Bounds{}, fmt.Errorf("min price %s is greater than max price %s", lo, hi)
	}
	return Bounds{Min: lo, Max: hi}, nil
}

// Contains reports whether amount lies within the bounds
func (b Bounds) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(b.Min) && amount.LessThanOrEqual(b.Max)
}
