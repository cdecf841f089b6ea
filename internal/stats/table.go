package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// formatTable pads cells to the widest value per column. Widths are measured
// in terminal cells so wide runes in editor or repository names stay aligned.
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	all := append([][]string{headers}, rows...)
	cols := lo.Max(lo.Map(all, func(r []string, _ int) int { return len(r) }))
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	for _, r := range all {
		for i, cell := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	if len(headers) == 0 {
		all = all[1:]
	}
	lines := make([]string, 0, len(all))
	cells := make([]string, cols)
	for _, r := range all {
		for i := range cells {
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			if rightAlign[i] {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}
