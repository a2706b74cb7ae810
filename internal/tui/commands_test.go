package tui

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/headlines/internal/storage"
)

func TestArticleMarkdown(t *testing.T) {
	a := &storage.Article{
		URL:         "https://news.example/markets",
		Title:       "Markets rally",
		Content:     "<p>Stocks <strong>rose</strong> sharply.</p> [+1200 chars]",
		Description: "Stocks rose.",
		ImageURL:    "https://img.example/markets.jpg",
		SourceName:  "Wire",
		PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	md := articleMarkdown(a, "ctrl+")

	assert.True(t, strings.HasPrefix(md, "# Markets rally\n"))
	assert.Contains(t, md, "*Wire • ")
	assert.Contains(t, md, "**Image:** https://img.example/markets.jpg")
	assert.Contains(t, md, "**rose**")
	assert.NotContains(t, md, "<p>")
	assert.NotContains(t, md, "[+1200 chars]")
	assert.Contains(t, md, "[Read full article](https://news.example/markets)")
	assert.Contains(t, md, "ctrl+o")
}

func TestArticleMarkdownFallbacks(t *testing.T) {
	md := articleMarkdown(&storage.Article{Title: "Bare"}, "ctrl+")
	assert.Contains(t, md, "_No preview available._")
	assert.NotContains(t, md, "Read full article")
	assert.NotContains(t, md, "**Image:**")

	md = articleMarkdown(&storage.Article{Title: "Desc", Description: "Only a summary."}, "ctrl+")
	assert.Contains(t, md, "Only a summary.")
}

func TestRetryOperation(t *testing.T) {
	calls := 0
	err := retryOperation(func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryOperation(func() error {
		calls++
		return errors.New("read-only")
	})
	assert.EqualError(t, err, "read-only")
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestWriteOSC52(t *testing.T) {
	t.Setenv("TMUX", "")

	var buf bytes.Buffer
	assert.NoError(t, writeOSC52(&buf, "https://news.example/a"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b]52;c;"), "got %q", out)
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("https://news.example/a")))
}
