package feed

import (
	"strings"

	"github.com/samber/lo"

	"github.com/pders01/headlines/internal/storage"
)

type ViewMode int

const (
	ModeFeed ViewMode = iota
	ModeFavorites
)

func (m ViewMode) String() string {
	if m == ModeFavorites {
		return "favorites"
	}
	return "feed"
}

// Toggle switches between the feed and favorites.
func (m ViewMode) Toggle() ViewMode {
	if m == ModeFavorites {
		return ModeFeed
	}
	return ModeFavorites
}

// VisibleList picks the source list for mode and keeps the articles whose
// title contains query, ignoring case. The result is never nil.
func VisibleList(mode ViewMode, state State, bookmarks []*storage.Article, query string) []*storage.Article {
	source := state.Items
	if mode == ModeFavorites {
		source = bookmarks
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	out := lo.Filter(source, func(a *storage.Article, _ int) bool {
		return a != nil && (needle == "" || strings.Contains(strings.ToLower(a.Title), needle))
	})
	if out == nil {
		out = []*storage.Article{}
	}
	return out
}
