package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

// Palette maps report roles to terminal colors.
type Palette struct {
	Title   lipgloss.Color
	Heading lipgloss.Color
	Text    lipgloss.Color
	TextDim lipgloss.Color
	Faint   lipgloss.Color
	Alert   lipgloss.Color

	// Price movement and trade sides.
	Gain lipgloss.Color
	Loss lipgloss.Color
	Buy  lipgloss.Color
	Sell lipgloss.Color

	// One color per bonding curve.
	Creator lipgloss.Color
	Video   lipgloss.Color
}

// DefaultPalette is tuned for dark terminals.
func DefaultPalette() Palette {
	const (
		teal   = lipgloss.Color("#00E5FF")
		rose   = lipgloss.Color("#FF1B6B")
		amber  = lipgloss.Color("#FFB500")
		mint   = lipgloss.Color("#2AFFAA")
		coral  = lipgloss.Color("#FF5555")
		violet = lipgloss.Color("#8B5CF6")
	)
	return Palette{
		Title:   teal,
		Heading: rose,
		Text:    lipgloss.Color("#ECEFF4"),
		TextDim: lipgloss.Color("#B4BCC8"),
		Faint:   lipgloss.Color("#6C7280"),
		Alert:   amber,

		Gain: mint,
		Loss: coral,
		Buy:  mint,
		Sell: coral,

		Creator: teal,
		Video:   violet,
	}
}

// Token returns the color of a token's curve.
func (p Palette) Token(t curve.TokenType) lipgloss.Color {
	if t == curve.Video {
		return p.Video
	}
	return p.Creator
}

// Movement colors a signed change, treating |change| < flat as no movement.
func (p Palette) Movement(change, flat float64) lipgloss.Color {
	switch {
	case change >= flat && change > 0:
		return p.Gain
	case change <= -flat && change < 0:
		return p.Loss
	default:
		return p.Faint
	}
}
