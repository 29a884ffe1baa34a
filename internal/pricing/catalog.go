// Package pricing turns noisy search result text into exact AZN prices and
// picks the cheapest offers.
package pricing

import "regexp"

// MarkerPosition says on which side of the number the currency marker appears
type MarkerPosition int

const (
	MarkerAfter MarkerPosition = iota
	MarkerBefore
)

func (p MarkerPosition) String() string {
	if p == MarkerBefore {
		return "before"
	}
	return "after"
}

// Rule is one recognisable price shape. Pattern has exactly one capture group
// holding the numeric substring.
type Rule struct {
	Name     string
	Marker   string
	Position MarkerPosition
	Pattern  *regexp.Regexp
}

// Catalog is an ordered, read-only list of rules. Earlier rules win.
type Catalog struct {
	rules []Rule
}

// NewCatalog builds a catalog from rules in priority order
func NewCatalog(rules ...Rule) Catalog {
	return Catalog{rules: append([]Rule(nil), rules...)}
}

// Rules returns the rules in priority order
func (c Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Len returns the number of rules
func (c Catalog) Len() int {
	return len(c.rules)
}

var defaultRules = []Rule{
	{
		Name:     "symbol-after-decimal",
		Marker:   "₼",
		Position: MarkerAfter,
		Pattern:  regexp.MustCompile(`(\d{1,6}[.,]?\d{0,3}[.,]\d{2})\s?₼`),
	},
	{
		Name:     "symbol-before-decimal",
		Marker:   "₼",
		Position: MarkerBefore,
		Pattern:  regexp.MustCompile(`₼\s?(\d{1,6}[.,]?\d{0,3}[.,]\d{2})`),
	},
	{
		Name:     "code-after",
		Marker:   "AZN",
		Position: MarkerAfter,
		Pattern:  regexp.MustCompile(`(\d{1,6}[.,]?\d{0,3}[.,]?\d{0,2})\s?(?:AZN|azn)`),
	},
	{
		Name:     "code-before",
		Marker:   "AZN",
		Position: MarkerBefore,
		Pattern:  regexp.MustCompile(`(?:AZN|azn)\s?(\d{1,6}[.,]?\d{0,3}[.,]?\d{0,2})`),
	},
	{
		Name:     "word-after",
		Marker:   "manat",
		Position: MarkerAfter,
		Pattern:  regexp.MustCompile(`(\d{1,6}[.,]?\d{0,3}[.,]?\d{0,2})\s?(?:manat|Manat)`),
	},
	// Bare integers next to the symbol are a weak signal, so they go last.
	{
		Name:     "symbol-after-integer",
		Marker:   "₼",
		Position: MarkerAfter,
		Pattern:  regexp.MustCompile(`(\d{2,6})\s?₼`),
	},
	{
		Name:     "symbol-before-integer",
		Marker:   "₼",
		Position: MarkerBefore,
		Pattern:  regexp.MustCompile(`₼\s?(\d{2,6})\b`),
	},
}

// DefaultCatalog returns the AZN rules in priority order
func DefaultCatalog() Catalog {
	return NewCatalog(defaultRules...)
}
