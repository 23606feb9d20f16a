package component

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableView(t *testing.T) {
	table := NewTable().
		SetShowBorder(false).
		AddColumn("Token", 0, lipgloss.Left).
		AddColumn("Price", 0, lipgloss.Right).
		AddColumn("Note", 6, lipgloss.Left)

	table.AddRow("$TECH", "0.003000000", "a long note")
	table.AddRow("$WEB3", "0.000102")

	lines := strings.Split(table.View(), "\n")
	require.Len(t, lines, 4)

	for _, line := range lines {
		assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(line))
	}
	assert.Contains(t, lines[0], "Token")
	assert.Contains(t, lines[2], "a l...")
	assert.Contains(t, lines[3], "   0.000102")
	assert.Equal(t, 2, table.RowCount())
}

func TestTableBorder(t *testing.T) {
	view := NewTable().AddColumn("A", 0, lipgloss.Left).AddRow("x").View()
	assert.True(t, strings.HasPrefix(view, "╭"))
	assert.Empty(t, NewTable().View())
}

func TestSparklineBlocks(t *testing.T) {
	s := NewSparkline(5).SetData([]float64{1, 2, 3})
	assert.Equal(t, "▁▅█  ", s.Blocks())
	assert.Equal(t, "↗", s.Trend())
	assert.InDelta(t, 200, s.ChangePercent(), 1e-9)

	flat := NewSparkline(3).SetData([]float64{2, 2})
	assert.Equal(t, "▅▅ ", flat.Blocks())
	assert.Equal(t, "→", flat.Trend())

	assert.Equal(t, "▁▁▁▁", NewSparkline(4).Blocks())
}

func TestSparklineDownsamples(t *testing.T) {
	data := make([]float64, 101)
	for i := range data {
		data[i] = float64(100 - i)
	}
	s := NewSparkline(10).SetData(data)

	blocks := []rune(s.Blocks())
	require.Len(t, blocks, 10)
	assert.Equal(t, '█', blocks[0])
	assert.Equal(t, '▁', blocks[9])
	assert.Equal(t, "↘", s.Trend())
	assert.Contains(t, s.ShowText(true).View(), "-100.00%")
}
