package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

type View int

const (
	ViewFeed View = iota
	ViewReader
	ViewSearch
)

type articleItem struct {
	article *storage.Article
	saved   bool
	maxDesc int
}

func (i articleItem) Title() string {
	if i.saved {
		return BookmarkStyle.Render("★ ") + i.article.Title
	}
	return i.article.Title
}

func (i articleItem) Description() string {
	parts := make([]string, 0, 3)
	if i.article.SourceName != "" {
		parts = append(parts, i.article.SourceName)
	}
	if !i.article.PublishedAt.IsZero() {
		parts = append(parts, i.article.PublishedAt.Local().Format("Jan 2, 15:04"))
	}
	meta := ""
	for n, p := range parts {
		if n > 0 {
			meta += " • "
		}
		meta += p
	}

	desc := truncateEnd(i.article.Description, i.maxDesc)
	if meta == "" {
		return lipgloss.NewStyle().Foreground(MutedColor).Render(desc)
	}
	if desc == "" {
		return TimeStyle.Render(meta)
	}
	return TimeStyle.Render(meta) + lipgloss.NewStyle().Foreground(MutedColor).Render(" • "+desc)
}

func (i articleItem) FilterValue() string { return i.article.Title }

type pageLoadedMsg struct {
	result feed.Result
}

type articleRenderedMsg struct {
	url     string
	content string
}

type searchResultsMsg struct {
	query   string
	results []*search.Result
}

type themeSavedMsg struct {
	err error
}

type linkCopiedMsg struct {
	url string
}

type errorMsg struct {
	err error
}
