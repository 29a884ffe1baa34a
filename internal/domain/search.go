package domain

// SearchQuery is the body sent to the search provider
type SearchQuery struct {
	Query    string `json:"q"`
	Country  string `json:"gl"`
	Language string `json:"hl"`
	Num      int    `json:"num"`
}

// ShoppingResult represents a shopping hit, which carries a structured price field
type ShoppingResult struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Price  string `json:"price,omitempty"`
	Source string `json:"source,omitempty"`
}

// OrganicResult represents a regular web hit
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Position int    `json:"position,omitempty"`
}

// SearchResponse represents the response from the search provider
type SearchResponse struct {
	Shopping []ShoppingResult `json:"shopping"`
	Organic  []OrganicResult  `json:"organic"`
}
