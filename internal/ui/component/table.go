package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/rovshanmuradov/sipzy/internal/ui/style"
)

// TableColumn represents a column configuration. A zero Width sizes the
// column to its widest cell.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// Table renders rows of text as a static, optionally bordered table.
type Table struct {
	columns []TableColumn
	rows    [][]string

	// Styling
	headerStyle lipgloss.Style
	rowStyle    lipgloss.Style
	altRowStyle lipgloss.Style
	borderStyle lipgloss.Style

	// Configuration
	showBorder bool
	zebra      bool // Alternating row colors
}

// NewTable creates a new table component
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Heading).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		altRowStyle: lipgloss.NewStyle().
			Foreground(palette.TextDim).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Faint),

		showBorder: true,
	}
}

// AddColumn adds a column to the table
func (t *Table) AddColumn(header string, width int, align lipgloss.Position) *Table {
	t.columns = append(t.columns, TableColumn{
		Header: header,
		Width:  width,
		Align:  align,
	})
	return t
}

// AddRow adds a row to the table. Missing cells render empty.
func (t *Table) AddRow(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// SetShowBorder enables/disables table border
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// SetZebra enables/disables alternating row colors
func (t *Table) SetZebra(zebra bool) *Table {
	t.zebra = zebra
	return t
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.rows)
}

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return ""
	}

	widths := t.columnWidths()
	lines := make([]string, 0, len(t.rows)+2)

	header := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = renderCell(col.Header, widths[i], col.Align, t.headerStyle)
	}
	lines = append(lines, strings.Join(header, "│"))

	separator := make([]string, len(t.columns))
	for i, w := range widths {
		// Cells carry one column of padding on each side
		separator[i] = strings.Repeat("─", w+2)
	}
	lines = append(lines, strings.Join(separator, "┼"))

	for rowIndex, row := range t.rows {
		rowStyle := t.rowStyle
		if t.zebra && rowIndex%2 == 1 {
			rowStyle = t.altRowStyle
		}

		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			cellData := ""
			if i < len(row) {
				cellData = row[i]
			}
			cells[i] = renderCell(cellData, widths[i], col.Align, rowStyle)
		}
		lines = append(lines, strings.Join(cells, "│"))
	}

	result := strings.Join(lines, "\n")
	if t.showBorder {
		result = t.borderStyle.Render(result)
	}
	return result
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := lipgloss.Width(col.Header)
		for _, row := range t.rows {
			if i < len(row) {
				w = max(w, lipgloss.Width(row[i]))
			}
		}
		widths[i] = w
	}
	return widths
}

// renderCell renders a single table cell, truncating text wider than width.
func renderCell(content string, width int, align lipgloss.Position, cellStyle lipgloss.Style) string {
	if lipgloss.Width(content) > width {
		tail := "..."
		if width <= 3 {
			tail = ""
		}
		content = ansi.Truncate(content, width, tail)
	}
	// Width includes padding in lipgloss
	return cellStyle.Width(width + 2).Align(align).Render(content)
}
