package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
)

// fetchPage runs req off the update loop. The controller decides on arrival
// whether the result still matters.
func (a *App) fetchPage(req *feed.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	ctrl := a.ctrl
	return func() tea.Msg {
		return pageLoadedMsg{result: ctrl.Fetch(req)}
	}
}

// takeDispatched turns requests issued by the sentinel during this update
// into commands.
func (a *App) takeDispatched() tea.Cmd {
	if len(a.dispatched) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(a.dispatched)+1)
	for _, req := range a.dispatched {
		cmds = append(cmds, a.fetchPage(req))
	}
	a.dispatched = a.dispatched[:0]
	cmds = append(cmds, a.spinner.Tick)
	return tea.Batch(cmds...)
}

func (a *App) renderArticle(article *storage.Article) tea.Cmd {
	md := articleMarkdown(article, a.keyHandler.modifierKey)
	r, err := a.getRenderer()
	return func() tea.Msg {
		if err != nil {
			return articleRenderedMsg{url: article.URL, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(md)
		if err != nil {
			return articleRenderedMsg{url: article.URL, content: fmt.Sprintf("Failed to render article: %s\n\n%s", err, md)}
		}
		return articleRenderedMsg{url: article.URL, content: rendered}
	}
}

// articleMarkdown lays out the details view for a.
func articleMarkdown(a *storage.Article, modifierKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Title)

	meta := make([]string, 0, 2)
	if a.SourceName != "" {
		meta = append(meta, a.SourceName)
	}
	if !a.PublishedAt.IsZero() {
		meta = append(meta, a.PublishedAt.Local().Format(time.RFC1123))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " • "))
	}

	if a.ImageURL != "" {
		fmt.Fprintf(&b, "**Image:** %s\n\n", a.ImageURL)
	}

	b.WriteString("---\n\n")

	body := cleanContent(a.Content, a.Description)
	if looksLikeHTML(body) {
		if md, err := htmltomarkdown.ConvertString(body); err == nil {
			body = md
		}
	}
	if body == "" {
		body = "_No preview available._"
	}
	b.WriteString(body)
	b.WriteString("\n\n---\n\n")

	if a.URL != "" {
		fmt.Fprintf(&b, "[Read full article](%s)\n\n", a.URL)
		fmt.Fprintf(&b, "*Press %so to open in your browser.*\n", modifierKey)
	}
	return b.String()
}

func (a *App) performSearch(query string) tea.Cmd {
	if a.searcher == nil {
		return nil
	}
	searcher := a.searcher
	return func() tea.Msg {
		results, err := searcher.Search(query, 50)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{query: query, results: results}
	}
}

// persistTheme writes the theme preference off the update loop.
func (a *App) persistTheme(dark bool) tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	prefs := a.prefs
	return func() tea.Msg {
		err := retryOperation(func() error { return prefs.SetDarkMode(dark) })
		return themeSavedMsg{err: err}
	}
}

func (a *App) openURL(link string) tea.Cmd {
	if a.launcher == nil || link == "" {
		return nil
	}
	launcher := a.launcher
	return func() tea.Msg {
		if err := launcher.Open(link); err != nil {
			return errorMsg{err: wrapErr("open "+truncateMiddle(link, 60), err)}
		}
		return nil
	}
}

// copyURL shares link by putting it on the clipboard.
func (a *App) copyURL(link string) tea.Cmd {
	if link == "" {
		return nil
	}
	copyText := a.copyText
	return func() tea.Msg {
		if err := copyText(link); err != nil {
			return errorMsg{err: wrapErr("copy link", err)}
		}
		return linkCopiedMsg{url: link}
	}
}

// copyToClipboard uses the system clipboard and falls back to an OSC52
// escape sequence, which most terminals forward to the clipboard, when no
// clipboard tool is installed.
func copyToClipboard(text string) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	return writeOSC52(os.Stderr, text)
}

func writeOSC52(w io.Writer, text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(w)
	return err
}

func (a *App) openImage(link string) tea.Cmd {
	if a.launcher == nil || link == "" {
		return nil
	}
	launcher := a.launcher
	return func() tea.Msg {
		if err := launcher.OpenImage(link); err != nil {
			return errorMsg{err: wrapErr("open image", err)}
		}
		return nil
	}
}

// retryOperation retries a store write up to 3 times with exponential backoff.
func retryOperation(operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.Retry(operation, backoff.WithMaxRetries(b, 2))
}
