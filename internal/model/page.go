package model

// WebPage is a cached web page, keyed by URL. At most one record exists
// per URL; stored fields are replaced only when an incoming page carries a
// strictly newer publication date.
type WebPage struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Date     string `json:"date,omitempty"` // ISO-8601, empty when unknown
	Snippet  string `json:"snippet,omitempty"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
	Category string `json:"category,omitempty"`
	Country  string `json:"country,omitempty"`
}
