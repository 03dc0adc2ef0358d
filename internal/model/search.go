package model

// SearchKind tags search result provenance. The downstream display and
// selection contract is the same regardless of source.
type SearchKind string

const (
	SearchKindWeb  SearchKind = "web"
	SearchKindNews SearchKind = "news"
)

// Valid reports whether the kind names a known search table
func (k SearchKind) Valid() bool {
	return k == SearchKindWeb || k == SearchKindNews
}

// SearchResult is a single web search hit
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// NewsResult is a single news search hit
type NewsResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Language    string `json:"language,omitempty"`
	Category    string `json:"category,omitempty"`
	Country     string `json:"country,omitempty"`
	Image       string `json:"image,omitempty"`
}
