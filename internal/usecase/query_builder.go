package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for query preprocessing
var (
	// Characters that break the search provider's query parsing
	specialCharsPattern = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~"` + "`" + `]`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// maxQueryLength keeps queries within what the search provider accepts
const maxQueryLength = 100

// QueryBuilder turns a product name into a search query that favours shop pages
type QueryBuilder struct {
	suffix string
}

// NewQueryBuilder creates a query builder. suffix is appended to every query,
// e.g. "qiymət satış al" ("price sale buy").
func NewQueryBuilder(suffix string) *QueryBuilder {
	return &QueryBuilder{suffix: strings.TrimSpace(suffix)}
}

// CleanProductName strips characters and whitespace noise from a product name
func CleanProductName(productName string) string {
	cleaned := specialCharsPattern.ReplaceAllString(productName, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cut := cleaned[:maxQueryLength]
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxQueryLength/2 {
			cut = cut[:lastSpace]
		}
		cleaned = strings.TrimSpace(strings.ToValidUTF8(cut, ""))
	}
	return cleaned
}

// Build returns the search query for productName, or "" if nothing is left after cleaning
func (b *QueryBuilder) Build(productName string) string {
	name := CleanProductName(productName)
	if name == "" {
		return ""
	}
	if b.suffix == "" {
		return name
	}
	return name + " " + b.suffix
}
