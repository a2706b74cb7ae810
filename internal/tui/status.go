package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading headlines…"
	MsgLoadingMore    = "Loading more…"
	MsgLoadingArticle = "Loading article…"
	MsgNoFavorites    = "No favorites saved."
	MsgNoArticles     = "No articles found."
	MsgNoResults      = "No results"
	MsgEndOfResults   = "End of results"
	MsgSaved          = "Saved to favorites"
	MsgRemoved        = "Removed from favorites"
	MsgLinkCopied     = "Link copied"
	MsgDarkTheme      = "Dark theme"
	MsgLightTheme     = "Light theme"
)

// MsgError renders err for the status bar. Errors that already lead with
// "Error" are shown as they are.
func MsgError(err error) string {
	text := err.Error()
	if strings.HasPrefix(text, "Error") {
		return text
	}
	return "Error: " + text
}

// wrapErr prefixes err with what was being attempted.
func wrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgLoadedCount(loaded, total int) string {
	if total < 0 {
		return fmt.Sprintf("%d articles", loaded)
	}
	return fmt.Sprintf("%d of %d articles", loaded, total)
}

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)
