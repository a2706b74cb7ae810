package tui

import (
	"regexp"
	"strings"
)

// truncatedMarker matches the "[+1234 chars]" suffix the news API appends
// to clipped article bodies.
var truncatedMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]$`)

// cleanContent strips the clipped-body marker. An empty body falls back to
// the description.
func cleanContent(content, description string) string {
	content = strings.TrimSpace(truncatedMarker.ReplaceAllString(strings.TrimSpace(content), ""))
	if content == "" {
		return strings.TrimSpace(description)
	}
	return content
}

// looksLikeHTML reports whether s carries markup worth converting.
func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</") || strings.Contains(s, "<br") || strings.Contains(s, "<p")
}

// truncateEnd shortens s to at most max characters, appending an ellipsis
// if truncation occurs. Handles negative or tiny limits gracefully.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle shortens s by keeping both ends around a single ellipsis.
// Useful for URLs where host and slug both carry meaning.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}
