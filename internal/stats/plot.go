package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// Plot is a braille line chart. Series are scaled independently unless Shared is set.
type Plot struct {
	Title  string
	Series []Series
	// Labels are the x positions; the first and last are printed under the chart.
	Labels []string
	Width  int
	Height int
	Color  bool
	Shared bool
}

type valueRange struct {
	min float64
	max float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// PlotSeries renders independently scaled series without forced color.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return Plot{Title: title, Series: series, Width: width, Height: height}.Render(w)
}

// Render writes the chart. Empty series are skipped; nothing is written when none remain.
func (p Plot) Render(w io.Writer) error {
	series := filterSeries(p.Series)
	if len(series) == 0 {
		return nil
	}
	height := p.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := p.Width
	if width <= 0 {
		width = autoPlotWidth()
	}
	width = max(width, minPlotWidth)

	scaled := make([]Series, 0, len(series))
	for _, s := range series {
		scaled = append(scaled, Series{Name: s.Name, Values: resampleSeries(s.Values, width)})
	}
	ranges := seriesRanges(scaled, p.Shared)

	canvases := make([]*canvas, len(scaled))
	for si, s := range scaled {
		c := newCanvas(width, height)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range s.Values {
			px := x * 2
			py := valueToRow(v, ranges[si].min, ranges[si].max, height*4)
			if prevX >= 0 {
				c.line(prevX, prevY, px, py, style)
			} else if style.shouldPlot(px) {
				c.dot(px, py)
			}
			prevX, prevY = px, py
		}
		canvases[si] = c
	}

	useColor := shouldUseColor(w, p.Color)
	lines := make([]string, 0, height+len(scaled)+4)
	if p.Title != "" {
		lines = append(lines, p.Title)
	}
	if p.Shared {
		lines = append(lines, fmt.Sprintf("Range: %s to %s", formatAxisValue(ranges[0].min), formatAxisValue(ranges[0].max)))
	} else {
		lines = append(lines, scaleNote)
		for i, s := range scaled {
			lines = append(lines, fmt.Sprintf("%s: min=%.2f max=%.2f", s.Name, ranges[i].min, ranges[i].max))
		}
	}

	axisLabels := makeAxisLabels(height, p.Shared, ranges[0])
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(axisLabels[y], axisLabelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(canvases, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		lines = append(lines, row.String())
	}
	if axis := renderXAxis(p.Labels, width); axis != "" {
		lines = append(lines, axis)
	}
	lines = append(lines, renderLegend(scaled, useColor), "")

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func seriesRanges(series []Series, shared bool) []valueRange {
	ranges := make([]valueRange, len(series))
	for i, s := range series {
		minVal, maxVal := seriesMinMaxSingle(s.Values)
		ranges[i] = valueRange{min: minVal, max: maxVal}
	}
	if shared {
		all := ranges[0]
		for _, r := range ranges[1:] {
			all.min = math.Min(all.min, r.min)
			all.max = math.Max(all.max, r.max)
		}
		for i := range ranges {
			ranges[i] = all
		}
	}
	for i := range ranges {
		if math.Abs(ranges[i].max-ranges[i].min) < 1e-9 {
			ranges[i].min--
			ranges[i].max++
		}
	}
	return ranges
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// makeAxisLabels labels the top, middle and bottom rows. Shared plots show
// values, independent plots show the position within each series' range.
func makeAxisLabels(height int, shared bool, r valueRange) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	top, mid, bottom := "100%", "50%", "0%"
	if shared {
		top = formatAxisValue(r.max)
		mid = formatAxisValue((r.max + r.min) / 2)
		bottom = formatAxisValue(r.min)
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func formatAxisValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.0fk", v/1e3)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case abs == math.Trunc(abs):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func renderXAxis(labels []string, width int) string {
	if len(labels) == 0 {
		return ""
	}
	first, last := labels[0], labels[len(labels)-1]
	pad := strings.Repeat(" ", axisLabelWidth+utf8.RuneCountInString(axisSeparator))
	if len(labels) == 1 || runewidth.StringWidth(first)+runewidth.StringWidth(last)+1 > width {
		return pad + first
	}
	gap := width - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	return pad + first + strings.Repeat(" ", gap) + last
}

func composeCell(canvases []*canvas, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, c := range canvases {
		cellMask := c.cell(x, y)
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) == width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	if len(values) > width {
		for i := 0; i < width; i++ {
			start := int(float64(i) * float64(len(values)) / float64(width))
			end := int(float64(i+1) * float64(len(values)) / float64(width))
			end = min(max(end, start+1), len(values))
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if width == 1 || len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := max(int(math.Floor(pos)), 0)
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func seriesMinMaxSingle(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

// valueToRow maps v to a dot row where row 0 is the top of the chart.
func valueToRow(v, minVal, maxVal float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return min(max(row, 0), rows-1)
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// canvas holds braille cells; each cell is 2 dots wide and 4 dots tall.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) cell(x, y int) uint8 {
	if y < 0 || y >= len(c.cells) || x < 0 || x >= len(c.cells[y]) {
		return 0
	}
	return c.cells[y][x]
}

func (c *canvas) dot(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellX, cellY := x/2, y/4
	if cellY >= len(c.cells) || cellX >= len(c.cells[cellY]) {
		return
	}
	c.cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// line draws a Bresenham segment, skipping dots the style leaves blank.
func (c *canvas) line(x0, y0, x1, y1 int, style lineStyle) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if style.shouldPlot(x0) {
			c.dot(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
