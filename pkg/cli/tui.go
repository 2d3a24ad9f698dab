package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for table output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
	Footer lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Cell:   lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Footer: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Table is a titled grid of cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  string
}

// RenderTable draws t with box borders. Numeric-looking cells are
// right-aligned.
func (s Styles) RenderTable(t Table) string {
	cols := len(t.Headers)
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(t.Headers)
	for _, r := range t.Rows {
		measure(r)
	}

	bc := s.Border
	rule := func(l, m, r string) string {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return bc.Render(l + strings.Join(parts, m) + r)
	}
	line := func(row []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(bc.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", w-lipgloss.Width(cell))
			if isNumeric(cell) {
				cell = pad + style.Render(cell)
			} else {
				cell = style.Render(cell) + pad
			}
			b.WriteString(" " + cell + " " + bc.Render("│"))
		}
		return b.String()
	}

	var lines []string
	if t.Title != "" {
		lines = append(lines, s.Title.Render(t.Title))
	}
	lines = append(lines, rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		lines = append(lines, line(t.Headers, s.Header), rule("├", "┼", "┤"))
	}
	for _, r := range t.Rows {
		lines = append(lines, line(r, s.Cell))
	}
	lines = append(lines, rule("╰", "┴", "╯"))
	if t.Footer != "" {
		lines = append(lines, s.Footer.Render(t.Footer))
	}
	return strings.Join(lines, "\n")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != ',' {
			return false
		}
	}
	return true
}
