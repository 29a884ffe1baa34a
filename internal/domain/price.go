package domain

import "github.com/shopspring/decimal"

// PriceCandidate is the flat text the extraction engine looks at for one search item,
// together with the URL it came from.
type PriceCandidate struct {
	rawText   string
	sourceURL string
}

// NewPriceCandidate creates a candidate. Candidates are never modified afterwards.
func NewPriceCandidate(rawText, sourceURL string) PriceCandidate {
	return PriceCandidate{rawText: rawText, sourceURL: sourceURL}
}

// RawText returns the text to extract a price from
func (c PriceCandidate) RawText() string { return c.rawText }

// SourceURL returns the URL of the page the text was found on
func (c PriceCandidate) SourceURL() string { return c.sourceURL }

// ExtractedPrice is a plausible price recognised next to a currency marker
type ExtractedPrice struct {
	Amount            decimal.Decimal
	CurrencyConfirmed bool
	Rule              string // name of the catalog rule that matched
}

// PriceResult is one ranked offer returned to API callers
type PriceResult struct {
	URL   string          `json:"url"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Store string          `json:"store"`
}

// SearchItem is a single search hit handed to the extraction pipeline.
// Empty PriceText or Snippet means the provider did not supply the field.
type SearchItem struct {
	Title     string
	Link      string
	PriceText string
	Snippet   string
}

// SearchRequest represents a price comparison request
type SearchRequest struct {
	ProductName string `json:"productName" binding:"required"`
}
