package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/rota/core/model"
)

var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorMagenta   = lipgloss.Color("#C678DD")
	ColorBorder    = lipgloss.Color("#3F4451")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	StatusStyle = lipgloss.NewStyle().Foreground(ColorFgMuted)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	CursorStyle = lipgloss.NewStyle().Reverse(true)
)

var highlightStyles = map[model.HighlightState]lipgloss.Style{
	model.Normal:           lipgloss.NewStyle().Foreground(ColorFgPrimary),
	model.MovableAvailable: lipgloss.NewStyle().Foreground(ColorGreen).Bold(true),
	model.MovableTentative: lipgloss.NewStyle().Foreground(ColorYellow),
	model.Selected:         lipgloss.NewStyle().Foreground(ColorBlue).Bold(true).Underline(true),
	model.Locked:           lipgloss.NewStyle().Foreground(ColorFgMuted).Faint(true),
}

// styleFor returns the style of a header or cell highlight.
func styleFor(h model.HighlightState) lipgloss.Style {
	if s, ok := highlightStyles[h]; ok {
		return s
	}
	return highlightStyles[model.Normal]
}
