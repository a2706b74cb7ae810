package storage

import (
	"time"
)

// Article is a single headline as received from a source. The URL doubles as
// its identity, so two articles with the same URL are the same article.
type Article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name"`
	Category    string    `json:"category,omitempty"`
}

// ID returns the article's unique key.
func (a *Article) ID() string {
	return a.URL
}

// Page is one page of results from a source.
type Page struct {
	Articles     []*Article `json:"articles"`
	TotalResults int        `json:"total_results"`
}
