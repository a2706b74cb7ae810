package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/feed"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderTabs draws the category bar with active highlighted. In favorites
// mode no tab is highlighted.
func renderTabs(active feed.Category, mode feed.ViewMode, width int) string {
	tabs := make([]string, 0, len(feed.Categories()))
	for n, c := range feed.Categories() {
		label := string(rune('1'+n)) + " " + c.Title()
		if mode == feed.ModeFeed && c == active {
			tabs = append(tabs, ActiveTabStyle.Render(label))
			continue
		}
		tabs = append(tabs, TabStyle.Render(label))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderSeparator(width int) string {
	return SeparatorStyle.Render(strings.Repeat("─", max(width, 1)))
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}
