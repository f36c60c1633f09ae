// Package render turns a column/row entity table into styled text output,
// the minimal table renderer spec.md treats the rest of as an external
// collaborator ("assume a capable renderer exists"). It uses lipgloss for
// styling only -- no interactive TUI loop.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cellStyle   = lipgloss.NewStyle()
)

// Table is the shape render consumes: any module can produce one (eg.
// modules/command.Table) without importing this package's dependencies.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Text renders t as a left-aligned, space-padded table with a styled
// header row, column widths sized to their widest cell.
func Text(t Table) string {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	cells := make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		cells[ri] = make([]string, len(t.Columns))
		for ci := range t.Columns {
			s := ""
			if ci < len(row) {
				s = fmt.Sprintf("%v", row[ci])
			}
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	var b strings.Builder
	for i, c := range t.Columns {
		b.WriteString(headerStyle.Render(pad(c, widths[i])))
	}
	b.WriteString("\n")
	for _, row := range cells {
		for i, cell := range row {
			b.WriteString(cellStyle.Render(pad(cell, widths[i])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s + "  "
	}
	return s + strings.Repeat(" ", w-len(s)+2)
}
