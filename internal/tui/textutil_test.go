package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		description string
		want        string
	}{
		{"strips clipped marker", "Markets rallied on Friday… [+2381 chars]", "desc", "Markets rallied on Friday…"},
		{"keeps plain content", "Full body.", "desc", "Full body."},
		{"falls back to description", "", "A short summary.", "A short summary."},
		{"marker only falls back", "[+120 chars]", "Summary", "Summary"},
		{"marker mid-text kept", "see [+5 chars] later", "", "see [+5 chars] later"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanContent(tt.content, tt.description))
		})
	}
}

func TestTruncateEnd(t *testing.T) {
	assert.Equal(t, "", truncateEnd("abc", 0))
	assert.Equal(t, "abc", truncateEnd("abc", 3))
	assert.Equal(t, "ab…", truncateEnd("abcd", 3))
	assert.Equal(t, "…", truncateEnd("abcd", 1))
	assert.Equal(t, "né…", truncateEnd("névé", 3))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "", truncateMiddle("abc", -1))
	assert.Equal(t, "abc", truncateMiddle("abc", 5))
	assert.Equal(t, "ab…fg", truncateMiddle("abcdefg", 5))
	assert.Equal(t, "…", truncateMiddle("abcdefg", 1))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML("<p>Hello</p>"))
	assert.True(t, looksLikeHTML("line<br/>break"))
	assert.False(t, looksLikeHTML("2 < 3 and 4 > 1"))
}

func TestMsgError(t *testing.T) {
	assert.Equal(t, "Error: disk full", MsgError(errors.New("disk full")))
	assert.Equal(t, "Error 429: slow down", MsgError(errors.New("Error 429: slow down")))
}

func TestMsgCounts(t *testing.T) {
	assert.Equal(t, "1 result", MsgResultsCount(1))
	assert.Equal(t, "4 results", MsgResultsCount(4))
	assert.Equal(t, "3 articles", MsgLoadedCount(3, -1))
	assert.Equal(t, "3 of 9 articles", MsgLoadedCount(3, 9))
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr("ctx", nil))
	base := errors.New("boom")
	err := wrapErr("search", base)
	assert.EqualError(t, err, "search: boom")
	assert.ErrorIs(t, err, base)
}
