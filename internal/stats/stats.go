// Package stats aggregates usage rows and renders terminal reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/samber/lo"
)

const (
	sparkChars        = " .:-=+*#%@"
	rateWindow        = 7
	defaultTrendCount = 5
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMaxSingle(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func toFloats(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// RenderSummary prints the headline numbers of a dashboard.
func RenderSummary(w io.Writer, d Dashboard) error {
	total := d.Totals()
	peak := int64(0)
	for _, v := range d.ActiveUsers {
		peak = max(peak, v)
	}
	lines := []string{
		"Summary",
		d.Timeframe.Label(),
		fmt.Sprintf("Days: %d", len(d.Dates)),
		fmt.Sprintf("Languages: %d", len(d.Languages)),
		fmt.Sprintf("Suggestions: %d", total.Suggestions),
		fmt.Sprintf("Acceptances: %d", total.Acceptances),
		fmt.Sprintf("Acceptance rate: %.2f%%", total.Rate),
		fmt.Sprintf("Lines accepted: %d of %d suggested", total.LinesAccepted, total.LinesSuggested),
		fmt.Sprintf("Peak active users: %d", peak),
		fmt.Sprintf("Active users: %s", Sparkline(toFloats(d.ActiveUsers))),
	}
	if weak := WeakLanguages(d.LanguageStats, 3, 1); len(weak) > 0 {
		names := make([]string, len(weak))
		for i, s := range weak {
			names[i] = fmt.Sprintf("%s (%.1f%%)", s.Name, s.Rate)
		}
		lines = append(lines, "Lowest acceptance: "+strings.Join(names, ", "))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrends prints braille line plots for the dashboard's time series.
func RenderTrends(w io.Writer, d Dashboard) error {
	return RenderTrendsWithSize(w, d, 0, defaultPlotHeight, false)
}

// RenderTrendsWithSize prints the trend plots sized to a given total width.
func RenderTrendsWithSize(w io.Writer, d Dashboard, totalWidth, height int, useColor bool) error {
	if len(d.Dates) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}

	top := TopLanguages(d.LanguageStats, defaultTrendCount)
	cumulative := make([]Series, 0, len(top))
	for _, s := range d.CumulativeLines {
		if lo.Contains(top, s.Name) {
			cumulative = append(cumulative, Series{Name: s.Name, Values: toFloats(s.Values)})
		}
	}
	plots := []Plot{
		{
			Title:  TitleCumulativeLines,
			Series: cumulative,
			Labels: d.Dates,
			Shared: true,
		},
		{
			Title: "Daily Activity",
			Series: []Series{
				{Name: "Lines accepted", Values: toFloats(d.LinesAccepted)},
				{Name: "Active users", Values: toFloats(d.ActiveUsers)},
			},
			Labels: d.Dates,
		},
		{
			Title: "Acceptance Rate",
			Series: []Series{
				{Name: "Daily %", Values: d.DailyRate},
				{Name: fmt.Sprintf("%d-day avg %%", rateWindow), Values: MovingAverage(d.DailyRate, rateWindow)},
			},
			Labels: d.Dates,
			Shared: true,
		},
	}
	for _, p := range plots {
		p.Width = width
		p.Height = height
		p.Color = useColor
		if err := p.Render(w); err != nil {
			return err
		}
	}
	return nil
}

// RenderLanguageTable prints per-language completion totals.
func RenderLanguageTable(w io.Writer, d Dashboard) error {
	if len(d.LanguageStats) == 0 {
		_, err := fmt.Fprintln(w, "No language stats found.")
		return err
	}
	headers := []string{"Language", "Suggestions", "Acceptances", "Rate", "Lines Suggested", "Lines Accepted"}
	rows := make([][]string, 0, len(d.LanguageStats)+1)
	for _, s := range append(append([]LanguageStat(nil), d.LanguageStats...), d.Totals()) {
		rows = append(rows, []string{
			s.Name,
			fmt.Sprintf("%d", s.Suggestions),
			fmt.Sprintf("%d", s.Acceptances),
			fmt.Sprintf("%.2f%%", s.Rate),
			fmt.Sprintf("%d", s.LinesSuggested),
			fmt.Sprintf("%d", s.LinesAccepted),
		})
	}
	return writeTable(w, TitleAcceptanceRate, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
}

// RenderEditorTable prints accepted lines per editor with their share.
func RenderEditorTable(w io.Writer, d Dashboard) error {
	if len(d.Editors) == 0 {
		_, err := fmt.Fprintln(w, "No editor stats found.")
		return err
	}
	var total int64
	for _, e := range d.Editors {
		total += e.Value
	}
	headers := []string{"Editor", "Lines Accepted", "Share"}
	rows := make([][]string, 0, len(d.Editors))
	for _, e := range d.Editors {
		share := 0.0
		if total > 0 {
			share = float64(e.Value) / float64(total) * 100
		}
		rows = append(rows, []string{e.Name, fmt.Sprintf("%d", e.Value), fmt.Sprintf("%.1f%%", share)})
	}
	return writeTable(w, TitleEditorLines, headers, rows, map[int]bool{1: true, 2: true})
}

// RenderActivityTable prints chat totals and PR summaries per repository.
func RenderActivityTable(w io.Writer, d Dashboard) error {
	if d.Chat.Rows == 0 {
		if _, err := fmt.Fprintln(w, "No chat data."); err != nil {
			return err
		}
	} else {
		rows := [][]string{
			{"Total Chats", fmt.Sprintf("%d", d.Chat.Chats)},
			{"Copies", fmt.Sprintf("%d", d.Chat.CopyEvents)},
			{"Inserts", fmt.Sprintf("%d", d.Chat.InsertionEvents)},
		}
		if err := writeTable(w, TitleChatUsage, []string{"Metric", "Count"}, rows, map[int]bool{1: true}); err != nil {
			return err
		}
	}
	if len(d.PullRequests) == 0 {
		_, err := fmt.Fprintln(w, "No PR data.")
		return err
	}
	rows := make([][]string, 0, len(d.PullRequests))
	for _, pr := range d.PullRequests {
		rows = append(rows, []string{pr.Name, fmt.Sprintf("%d", pr.Value)})
	}
	return writeTable(w, TitlePullRequests, []string{"Repository", "PR Summaries"}, rows, map[int]bool{1: true})
}

// RenderReport prints the summary, trends and every table.
func RenderReport(w io.Writer, d Dashboard, totalWidth int, useColor bool) error {
	if err := RenderSummary(w, d); err != nil {
		return err
	}
	if err := RenderTrendsWithSize(w, d, totalWidth, defaultPlotHeight, useColor); err != nil {
		return err
	}
	if err := RenderLanguageTable(w, d); err != nil {
		return err
	}
	if err := RenderEditorTable(w, d); err != nil {
		return err
	}
	return RenderActivityTable(w, d)
}

func writeTable(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
