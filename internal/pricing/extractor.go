package pricing

import (
	"io"
	"strings"

	"github.com/pricecomp/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	Catalog     Catalog
	Bounds      *Bounds
	ResultLimit int
	Logger      logrus.FieldLogger
}

// Engine extracts and ranks prices. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	catalog Catalog
	bounds  Bounds
	limit   int
	log     logrus.FieldLogger
}

// NewEngine creates an extraction engine
func NewEngine(opts Options) *Engine {
	catalog := opts.Catalog
	if catalog.Len() == 0 {
		catalog = DefaultCatalog()
	}

	bounds := DefaultBounds()
	if opts.Bounds != nil {
		bounds = *opts.Bounds
	}

	limit := opts.ResultLimit
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return &Engine{
		catalog: catalog,
		bounds:  bounds,
		limit:   limit,
		log:     logger,
	}
}

// ResultLimit returns the maximum number of ranked results
func (e *Engine) ResultLimit() int {
	return e.limit
}

// Extract returns the first plausible price found in text. Rules are tried in
// catalog order and, within a rule, matches left to right.
func (e *Engine) Extract(text string) (domain.ExtractedPrice, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.ExtractedPrice{}, false
	}

	for _, rule := range e.catalog.rules {
		for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
			amount, err := Normalize(m[1])
			if err != nil {
				e.log.WithFields(logrus.Fields{
					"rule":  rule.Name,
					"match": m[1],
				}).Debug("Failed to parse price")
				continue
			}
			if !e.bounds.Contains(amount) {
				continue
			}
			return domain.ExtractedPrice{
				Amount:            amount,
				CurrencyConfirmed: true,
				Rule:              rule.Name,
			}, true
		}
	}

	return domain.ExtractedPrice{}, false
}

// ExtractCandidate runs Extract on a candidate's text
func (e *Engine) ExtractCandidate(c domain.PriceCandidate) (domain.ExtractedPrice, bool) {
	return e.Extract(c.RawText())
}

// Collect extracts a price for every item and drops the ones without one.
// The structured price field is used when present, otherwise title and
// snippet. Input order is preserved.
func (e *Engine) Collect(items []domain.SearchItem) []domain.PriceResult {
	results := make([]domain.PriceResult, 0, len(items))
	for _, item := range items {
		candidate := candidateFor(item)
		price, ok := e.ExtractCandidate(candidate)
		if !ok {
			continue
		}

		store := StoreName(candidate.SourceURL())
		results = append(results, domain.PriceResult{
			URL:   item.Link,
			Title: item.Title,
			Price: price.Amount,
			Store: store,
		})

		e.log.WithFields(logrus.Fields{
			"title": item.Title,
			"price": price.Amount.String(),
			"store": store,
			"rule":  price.Rule,
		}).Debug("Extracted price")
	}
	return results
}

// Compare collects and ranks items, returning at most ResultLimit cheapest
func (e *Engine) Compare(items []domain.SearchItem) []domain.PriceResult {
	return Rank(e.Collect(items), e.limit)
}

func candidateFor(item domain.SearchItem) domain.PriceCandidate {
	if strings.TrimSpace(item.PriceText) != "" {
		return domain.NewPriceCandidate(item.PriceText, item.Link)
	}
	return domain.NewPriceCandidate(item.Title+" "+item.Snippet, item.Link)
}
