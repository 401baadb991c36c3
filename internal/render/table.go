// Package render formats query results for terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

// Color palette - keeping it minimal and accessible.
var (
	colorPrimary = lipgloss.Color("39")  // Blue
	colorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	nullStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	summaryStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

const nullLiteral = "NULL"

// Table renders columns and rows as an aligned text table in the style of
// psql. Column headers come from the cursor description; a trailing summary
// line reports the row count.
func Table(columns []asyncdb.Column, rows []asyncdb.Row) string {
	if len(columns) == 0 {
		return Summary(len(rows))
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = lipgloss.Width(col.Name)
	}

	cells := make([][]string, len(rows))
	nulls := make([][]bool, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		nulls[r] = make([]bool, len(columns))
		for c := range columns {
			var v any
			if c < len(row) {
				v = row[c]
			}
			text, isNull := formatValue(v)
			cells[r][c] = text
			nulls[r][c] = isNull
			if w := lipgloss.Width(text); w > widths[c] {
				widths[c] = w
			}
		}
	}

	var b strings.Builder

	for c, col := range columns {
		if c > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(headerStyle.Render(pad(col.Name, widths[c])))
	}
	b.WriteString("\n")

	for c := range columns {
		if c > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", widths[c]))
	}
	b.WriteString("\n")

	for r := range cells {
		for c := range columns {
			if c > 0 {
				b.WriteString(" | ")
			}
			cell := pad(cells[r][c], widths[c])
			if nulls[r][c] {
				cell = nullStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	b.WriteString(Summary(len(rows)))
	return b.String()
}

// Summary returns the "(N rows)" trailer line.
func Summary(count int) string {
	if count == 1 {
		return summaryStyle.Render("(1 row)") + "\n"
	}
	return summaryStyle.Render(fmt.Sprintf("(%d rows)", count)) + "\n"
}

// Affected returns a status line for statements that return no rows.
func Affected(count int64) string {
	if count < 0 {
		return "OK\n"
	}
	return fmt.Sprintf("OK (%d affected)\n", count)
}

// formatValue converts a result value to display text. The second return
// reports whether the value was NULL so callers can style it.
func formatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return nullLiteral, true
	case []byte:
		return string(val), false
	case string:
		return val, false
	case float64:
		return fmt.Sprintf("%g", val), false
	default:
		return fmt.Sprintf("%v", val), false
	}
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
