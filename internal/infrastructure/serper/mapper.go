package serper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pricecomp/backend/internal/domain"
)

// Non-breaking and thin spaces show up between amount and currency sign
var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2009", " ")

// ShoppingItems converts shopping hits, which carry a structured price field
func ShoppingItems(resp *domain.SearchResponse) []domain.SearchItem {
	if resp == nil {
		return nil
	}
	items := make([]domain.SearchItem, 0, len(resp.Shopping))
	for _, r := range resp.Shopping {
		items = append(items, domain.SearchItem{
			Title:     plainText(r.Title),
			Link:      r.Link,
			PriceText: plainText(r.Price),
		})
	}
	return items
}

// OrganicItems converts regular web hits; their price can only come from title and snippet
func OrganicItems(resp *domain.SearchResponse) []domain.SearchItem {
	if resp == nil {
		return nil
	}
	items := make([]domain.SearchItem, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		items = append(items, domain.SearchItem{
			Title:   plainText(r.Title),
			Link:    r.Link,
			Snippet: plainText(r.Snippet),
		})
	}
	return items
}

// plainText drops HTML tags and decodes entities, then folds unicode spaces to ASCII
func plainText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return spaceReplacer.Replace(s)
}
