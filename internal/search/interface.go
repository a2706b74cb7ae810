package search

import "github.com/pders01/headlines/internal/storage"

// Result is one search hit.
type Result struct {
	Article *storage.Article
	Score   float64
}

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
