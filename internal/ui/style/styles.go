package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

// Styles are the text styles of the CLI reports.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Panel    lipgloss.Style

	Buy     lipgloss.Style
	Sell    lipgloss.Style
	Profit  lipgloss.Style
	Loss    lipgloss.Style
	Neutral lipgloss.Style
	Warning lipgloss.Style

	Creator lipgloss.Style
	Video   lipgloss.Style
}

// NewStyles creates report styles with the given palette
func NewStyles(palette Palette) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(palette.Title).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(palette.Heading).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(palette.TextDim),

		Value: lipgloss.NewStyle().
			Foreground(palette.Text).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(palette.Faint),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Faint).
			Padding(0, 1),

		Buy: lipgloss.NewStyle().
			Foreground(palette.Buy).
			Bold(true),

		Sell: lipgloss.NewStyle().
			Foreground(palette.Sell).
			Bold(true),

		Profit: lipgloss.NewStyle().
			Foreground(palette.Gain),

		Loss: lipgloss.NewStyle().
			Foreground(palette.Loss),

		Neutral: lipgloss.NewStyle().
			Foreground(palette.Faint),

		Warning: lipgloss.NewStyle().
			Foreground(palette.Alert).
			Bold(true),

		Creator: lipgloss.NewStyle().
			Foreground(palette.Creator),

		Video: lipgloss.NewStyle().
			Foreground(palette.Video),
	}
}

// Default is built from DefaultPalette.
var Default = NewStyles(DefaultPalette())

// Side renders a trade side in its color.
func (s Styles) Side(side string) string {
	switch strings.ToUpper(side) {
	case "BUY":
		return s.Buy.Render(side)
	case "SELL":
		return s.Sell.Render(side)
	default:
		return s.Neutral.Render(side)
	}
}

// TokenType renders a token type in its color.
func (s Styles) TokenType(t curve.TokenType) string {
	if t == curve.Video {
		return s.Video.Render(string(t))
	}
	return s.Creator.Render(string(t))
}

// Change renders a signed value (already formatted as text) as a gain or loss.
func (s Styles) Change(value float64, text string) string {
	switch {
	case value > 0:
		return s.Profit.Render(text)
	case value < 0:
		return s.Loss.Render(text)
	default:
		return s.Neutral.Render(text)
	}
}

// KeyValue renders aligned "label value" lines.
func (s Styles) KeyValue(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		label := s.Label.Width(width + 2).Render(p[0])
		lines = append(lines, label+s.Value.Render(p[1]))
	}
	return strings.Join(lines, "\n")
}
