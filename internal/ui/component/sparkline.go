package component

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ui/style"
)

// Spark characters from lowest to highest
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline represents a mini graph component for showing price trends
type Sparkline struct {
	data     []float64
	width    int
	color    lipgloss.Color
	showText bool
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	return &Sparkline{
		width: max(width, 1),
		color: style.DefaultPalette().Title,
	}
}

// SetData sets the data points. Series longer than the width are
// downsampled by taking evenly spaced points, always keeping the last.
func (s *Sparkline) SetData(data []float64) *Sparkline {
	if len(data) <= s.width {
		s.data = append([]float64(nil), data...)
		return s
	}
	s.data = make([]float64, s.width)
	step := float64(len(data)-1) / float64(max(s.width-1, 1))
	for i := range s.data {
		s.data[i] = data[int(math.Round(float64(i)*step))]
	}
	s.data[s.width-1] = data[len(data)-1]
	return s
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.color = color
	return s
}

// ShowText enables/disables the change percentage after the sparkline
func (s *Sparkline) ShowText(show bool) *Sparkline {
	s.showText = show
	return s
}

// View renders the sparkline
func (s *Sparkline) View() string {
	blocks := lipgloss.NewStyle().Foreground(s.color).Render(s.Blocks())
	if !s.showText || len(s.data) < 2 {
		return blocks
	}

	change := s.ChangePercent()
	trendColor := style.DefaultPalette().Movement(change, flatPercent)
	text := lipgloss.NewStyle().Foreground(trendColor).
		Render(s.Trend() + " " + formatSignedPercent(change))
	return blocks + " " + text
}

// Blocks returns the uncolored spark characters, padded to the width.
func (s *Sparkline) Blocks() string {
	if len(s.data) == 0 {
		return strings.Repeat("▁", s.width)
	}

	lo, hi := s.minMax()

	var result strings.Builder
	for _, value := range s.data {
		if lo == hi {
			result.WriteRune(sparkChars[len(sparkChars)/2])
			continue
		}
		normalized := (value - lo) / (hi - lo)
		index := int(math.Round(normalized * float64(len(sparkChars)-1)))
		index = min(max(index, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[index])
	}

	if pad := s.width - len(s.data); pad > 0 {
		result.WriteString(strings.Repeat(" ", pad))
	}
	return result.String()
}

func (s *Sparkline) minMax() (float64, float64) {
	lo, hi := s.data[0], s.data[0]
	for _, value := range s.data[1:] {
		lo = math.Min(lo, value)
		hi = math.Max(hi, value)
	}
	return lo, hi
}

// flatPercent is the smallest change shown as a move.
const flatPercent = 0.1

// Trend returns the overall direction of the data
func (s *Sparkline) Trend() string {
	change := s.ChangePercent()
	switch {
	case math.Abs(change) < flatPercent:
		return "→"
	case change > 0:
		return "↗"
	default:
		return "↘"
	}
}

// ChangePercent returns the percentage change from first to last data point
func (s *Sparkline) ChangePercent() float64 {
	if len(s.data) < 2 || s.data[0] == 0 {
		return 0
	}
	first := s.data[0]
	last := s.data[len(s.data)-1]
	return (last - first) / first * 100
}

func formatSignedPercent(pct float64) string {
	text := curve.FormatPercent(pct/100, 2)
	if pct > 0 {
		return "+" + text
	}
	return text
}
