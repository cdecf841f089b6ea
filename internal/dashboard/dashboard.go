// Package dashboard renders usage aggregates as a standalone HTML page.
package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/pilotmetrics/internal/stats"
)

const (
	chartWidth  = "1100px"
	chartHeight = "480px"
	stackName   = "total"
)

// Render writes the seven-panel dashboard page to w.
func Render(w io.Writer, d stats.Dashboard) error {
	page := components.NewPage()
	page.PageTitle = stats.TitleDashboard
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		cumulativeLinesChart(d),
		acceptancesChart(d),
		editorChart(d),
		activeUsersChart(d),
		acceptanceRateChart(d),
		pullRequestChart(d),
		chatChart(d),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// WriteFile renders the dashboard and replaces path with it.
func WriteFile(path string, d stats.Dashboard) error {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dashboard dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "dashboard-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temp dashboard: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dashboard: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	return nil
}

// Open launches the platform's default handler for path without waiting for it.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

func globalOptions(d stats.Dashboard, title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: d.Timeframe.Label()}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	}
}

func cumulativeLinesChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitleCumulativeLines),
		charts.WithYAxisOpts(opts.YAxis{Name: "Lines of code"}))...)
	bar.SetXAxis(d.Dates)
	for _, s := range d.CumulativeLines {
		bar.AddSeries(s.Name, barData(s.Values), charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
	}
	return bar
}

func acceptancesChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitleAcceptances),
		charts.WithYAxisOpts(opts.YAxis{Name: "Acceptances"}))...)
	bar.SetXAxis(d.Dates)
	for _, s := range d.Acceptances {
		bar.AddSeries(s.Name, barData(s.Values), charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
	}

	bar.ExtendYAxis(opts.YAxis{Name: "Lines accepted"})
	line := charts.NewLine()
	line.SetXAxis(d.Dates)
	line.AddSeries("Total lines accepted", lineData(d.LinesAccepted), charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	bar.Overlap(line)
	return bar
}

func editorChart(d stats.Dashboard) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: stats.TitleEditorLines, Subtitle: d.Timeframe.Label()}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item", Formatter: "{b}: {c} ({d}%)"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)
	items := make([]opts.PieData, 0, len(d.Editors))
	for _, e := range d.Editors {
		items = append(items, opts.PieData{Name: e.Name, Value: e.Value})
	}
	pie.AddSeries("Editors", items, charts.WithPieChartOpts(opts.PieChart{Radius: "60%"}))
	return pie
}

func activeUsersChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitleActiveUsers),
		charts.WithYAxisOpts(opts.YAxis{Name: "Users"}))...)
	bar.SetXAxis(d.Dates)
	bar.AddSeries("Active users", barData(d.ActiveUsers))
	return bar
}

func acceptanceRateChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitleAcceptanceRate),
		charts.WithYAxisOpts(opts.YAxis{Name: "Acceptance rate (%)"}))...)
	names := make([]string, 0, len(d.LanguageStats))
	items := make([]opts.BarData, 0, len(d.LanguageStats))
	for _, s := range d.LanguageStats {
		names = append(names, s.Name)
		items = append(items, opts.BarData{Value: math.Round(s.Rate*100) / 100})
	}
	bar.SetXAxis(names)
	bar.AddSeries("Acceptance rate", items)
	return bar
}

func pullRequestChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitlePullRequests),
		charts.WithYAxisOpts(opts.YAxis{Name: "PR summaries"}))...)
	names := make([]string, 0, len(d.PullRequests))
	values := make([]int64, 0, len(d.PullRequests))
	for _, pr := range d.PullRequests {
		names = append(names, pr.Name)
		values = append(values, pr.Value)
	}
	bar.SetXAxis(names)
	bar.AddSeries("PR summaries", barData(values))
	return bar
}

func chatChart(d stats.Dashboard) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(globalOptions(d, stats.TitleChatUsage),
		charts.WithYAxisOpts(opts.YAxis{Name: "Events"}))...)
	if d.Chat.Rows == 0 {
		bar.SetXAxis([]string{})
		bar.AddSeries("Chat usage", []opts.BarData{})
		return bar
	}
	bar.SetXAxis([]string{"Total Chats", "Copies", "Inserts"})
	bar.AddSeries("Chat usage", barData([]int64{d.Chat.Chats, d.Chat.CopyEvents, d.Chat.InsertionEvents}))
	return bar
}

func barData(values []int64) []opts.BarData {
	items := make([]opts.BarData, len(values))
	for i, v := range values {
		items[i] = opts.BarData{Value: v}
	}
	return items
}

func lineData(values []int64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}
	return items
}
