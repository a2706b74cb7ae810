package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/config"
)

const AppName = "headlines"

// ASCII art logo lines - canonical definition
var LogoLines = []string{
	"█  █ █▀▀ ▄▀▄ █▀▄ █   █ █▄ █ █▀▀ ▄▀▀",
	"█▀▀█ █▀▀ █▀█ █ █ █   █ █ ▀█ █▀▀  ▀▄",
	"▀  ▀ ▀▀▀ ▀ ▀ ▀▀  ▀▀▀ ▀ ▀  ▀ ▀▀▀ ▀▀ ",
}

const CompactLogo = `headlines ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
}

// Palette colors. They are reassigned by applyPalette when the theme flips.
var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	BookmarkColor = lipgloss.Color("#FFE66D")
	ErrorColor    = lipgloss.Color("#EF4444")
	SuccessColor  = lipgloss.Color("#10B981")
)

// Styled components
var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	TabStyle           lipgloss.Style
	ActiveTabStyle     lipgloss.Style
	StatusBarStyle     lipgloss.Style
	BookmarkStyle      lipgloss.Style
	HelpStyle          lipgloss.Style
	TimeStyle          lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	EmptyStyle         = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

// applyPalette swaps the package colors for p and rebuilds every style.
// Empty entries keep the current color.
func applyPalette(p config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, p.Primary)
	set(&SecondaryColor, p.Secondary)
	set(&AccentColor, p.Accent)
	set(&BackgroundColor, p.Background)
	set(&SurfaceColor, p.Surface)
	set(&TextColor, p.Text)
	set(&MutedColor, p.Muted)
	set(&ErrorColor, p.Error)
	set(&SuccessColor, p.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	TabStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(PrimaryColor).
		Bold(true).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	BookmarkStyle = lipgloss.NewStyle().
		Foreground(BookmarkColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(BookmarkColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// statusStyle picks the style for a status line of the given kind.
func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// bannerLines returns the logo followed by the tagline for version.
func bannerLines(version string) []string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		return append(lines, fmt.Sprintf("Top stories, one keystroke away %s", versionTag))
	}
	return append(lines, "Top stories, one keystroke away")
}

func ShowBanner(version string) {
	lines := bannerLines(version)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	banner := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(borderStyle.Render(banner)))
}
