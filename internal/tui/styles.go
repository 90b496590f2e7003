package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Zachkp/termfolio/internal/theme"
)

type palette struct {
	Text   string
	Muted  string
	Accent string
	Blue   string
	Border string
}

var (
	darkPalette = palette{
		Text:   "#c9d1d9",
		Muted:  "#8b949e",
		Accent: "#3fb950",
		Blue:   "#58a6ff",
		Border: "#30363d",
	}
	lightPalette = palette{
		Text:   "#24292f",
		Muted:  "#57606a",
		Accent: "#1a7f37",
		Blue:   "#0969da",
		Border: "#d0d7de",
	}
)

type styles struct {
	Base    lipgloss.Style
	Title   lipgloss.Style
	Heading lipgloss.Style
	Accent  lipgloss.Style
	Link    lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Rule    lipgloss.Style
	Window  lipgloss.Style
	BarFill lipgloss.Style
	BarRest lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	p := darkPalette
	if t == theme.Light {
		p = lightPalette
	}
	return styles{
		Base:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Text)),
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Text)).Bold(true),
		Heading: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)).Bold(true),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)),
		Link:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Blue)).Underline(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		Faint:   lipgloss.NewStyle().Faint(true),
		Rule:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Border)),
		Window: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(0, 1),
		BarFill: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)),
		BarRest: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Border)),
	}
}
