package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/verte-zerg/pilotmetrics/internal/model"
)

// Panel titles shared by the HTML and terminal renderers.
const (
	TitleDashboard       = "GitHub Copilot Usage Dashboard"
	TitleCumulativeLines = "Accumulated Lines of Code Over Time"
	TitleAcceptances     = "Code Acceptances by Language Over Time"
	TitleEditorLines     = "Accepted Lines of Code by Editor"
	TitleActiveUsers     = "Unique Active Users Per Day"
	TitleAcceptanceRate  = "Acceptance Rate by Language"
	TitlePullRequests    = "PR Summaries by Repository"
	TitleChatUsage       = "Chat Usage (Chats/Copies/Inserts)"
)

// Timeframe is the inclusive date range covered by the completion rows.
type Timeframe struct {
	Start string
	End   string
}

// Label renders the timeframe as a dashboard subtitle.
func (t Timeframe) Label() string {
	return "Data from " + t.Start + " to " + t.End
}

// DateSeries holds one value per dashboard date.
type DateSeries struct {
	Name   string
	Values []int64
}

// Slice is a named total, used for pie and category bars.
type Slice struct {
	Name  string
	Value int64
}

// LanguageStat aggregates completion counters for one language.
type LanguageStat struct {
	Name           string
	Suggestions    int64
	Acceptances    int64
	LinesSuggested int64
	LinesAccepted  int64
	Rate           float64
}

// ChatTotals sums the chat rows.
type ChatTotals struct {
	Rows            int
	Chats           int64
	CopyEvents      int64
	InsertionEvents int64
}

// Dashboard holds every aggregate the presentation sinks draw.
type Dashboard struct {
	Timeframe Timeframe
	Dates     []string
	Languages []string

	// CumulativeLines is the running total of accepted lines per language.
	CumulativeLines []DateSeries

	// Acceptances is the daily acceptance count per language.
	Acceptances []DateSeries

	// LinesAccepted is the daily total of accepted lines across languages.
	LinesAccepted []int64

	// ActiveUsers is the per-date maximum of engaged users across completion rows.
	ActiveUsers []int64

	// DailyRate is the acceptance rate across all languages per date.
	DailyRate []float64

	Editors       []Slice
	LanguageStats []LanguageStat
	PullRequests  []Slice
	Chat          ChatTotals
}

// BuildDashboard aggregates a batch. It reports false when there are no
// completion rows, in which case nothing should be rendered.
func BuildDashboard(batch model.Batch) (Dashboard, bool) {
	rows := batch.Completions
	if len(rows) == 0 {
		return Dashboard{}, false
	}

	dates := sortedUniq(lo.Map(rows, func(r model.CompletionRecord, _ int) string { return r.Date }))
	languages := sortedUniq(lo.Map(rows, func(r model.CompletionRecord, _ int) string { return r.Language }))
	byDate := lo.GroupBy(rows, func(r model.CompletionRecord) string { return r.Date })

	d := Dashboard{
		Timeframe: Timeframe{Start: dates[0], End: dates[len(dates)-1]},
		Dates:     dates,
		Languages: languages,
	}

	d.CumulativeLines = pivot(byDate, dates, languages, func(r model.CompletionRecord) int64 { return r.TotalCodeLinesAccepted })
	for i := range d.CumulativeLines {
		d.CumulativeLines[i].Values = cumulative(d.CumulativeLines[i].Values)
	}
	d.Acceptances = pivot(byDate, dates, languages, func(r model.CompletionRecord) int64 { return r.TotalCodeAcceptances })

	d.LinesAccepted = make([]int64, len(dates))
	d.ActiveUsers = make([]int64, len(dates))
	d.DailyRate = make([]float64, len(dates))
	for i, date := range dates {
		day := byDate[date]
		d.LinesAccepted[i] = lo.SumBy(day, func(r model.CompletionRecord) int64 { return r.TotalCodeLinesAccepted })
		d.ActiveUsers[i] = lo.Max(lo.Map(day, func(r model.CompletionRecord, _ int) int64 { return r.TotalEngagedUsers }))
		d.DailyRate[i] = AcceptanceRate(
			lo.SumBy(day, func(r model.CompletionRecord) int64 { return r.TotalCodeAcceptances }),
			lo.SumBy(day, func(r model.CompletionRecord) int64 { return r.TotalCodeSuggestions }),
		)
	}

	d.Editors = sumByName(rows,
		func(r model.CompletionRecord) string { return r.Editor },
		func(r model.CompletionRecord) int64 { return r.TotalCodeLinesAccepted })
	d.LanguageStats = languageStats(rows, languages)
	d.PullRequests = sumByName(batch.PullRequests,
		func(r model.PullRequestRecord) string { return r.Repository },
		func(r model.PullRequestRecord) int64 { return r.TotalPRSummariesCreated })
	d.Chat = ChatTotals{
		Rows:            len(batch.Chats),
		Chats:           lo.SumBy(batch.Chats, func(r model.ChatRecord) int64 { return r.TotalChats }),
		CopyEvents:      lo.SumBy(batch.Chats, func(r model.ChatRecord) int64 { return r.TotalChatCopyEvents }),
		InsertionEvents: lo.SumBy(batch.Chats, func(r model.ChatRecord) int64 { return r.TotalChatInsertionEvents }),
	}
	return d, true
}

// AcceptanceRate returns acceptances as a percentage of suggestions, or 0 when nothing was suggested.
func AcceptanceRate(acceptances, suggestions int64) float64 {
	if suggestions <= 0 {
		return 0
	}
	return float64(acceptances) / float64(suggestions) * 100
}

// Totals sums the language stats.
func (d Dashboard) Totals() LanguageStat {
	total := LanguageStat{Name: "Total"}
	for _, s := range d.LanguageStats {
		total.Suggestions += s.Suggestions
		total.Acceptances += s.Acceptances
		total.LinesSuggested += s.LinesSuggested
		total.LinesAccepted += s.LinesAccepted
	}
	total.Rate = AcceptanceRate(total.Acceptances, total.Suggestions)
	return total
}

func pivot(byDate map[string][]model.CompletionRecord, dates, languages []string, value func(model.CompletionRecord) int64) []DateSeries {
	series := make([]DateSeries, len(languages))
	index := make(map[string]int, len(languages))
	for i, lang := range languages {
		series[i] = DateSeries{Name: lang, Values: make([]int64, len(dates))}
		index[lang] = i
	}
	for di, date := range dates {
		for _, r := range byDate[date] {
			series[index[r.Language]].Values[di] += value(r)
		}
	}
	return series
}

func cumulative(values []int64) []int64 {
	out := make([]int64, len(values))
	var sum int64
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

func languageStats(rows []model.CompletionRecord, languages []string) []LanguageStat {
	byLang := lo.GroupBy(rows, func(r model.CompletionRecord) string { return r.Language })
	out := make([]LanguageStat, 0, len(languages))
	for _, lang := range languages {
		group := byLang[lang]
		s := LanguageStat{
			Name:           lang,
			Suggestions:    lo.SumBy(group, func(r model.CompletionRecord) int64 { return r.TotalCodeSuggestions }),
			Acceptances:    lo.SumBy(group, func(r model.CompletionRecord) int64 { return r.TotalCodeAcceptances }),
			LinesSuggested: lo.SumBy(group, func(r model.CompletionRecord) int64 { return r.TotalCodeLinesSuggested }),
			LinesAccepted:  lo.SumBy(group, func(r model.CompletionRecord) int64 { return r.TotalCodeLinesAccepted }),
		}
		s.Rate = AcceptanceRate(s.Acceptances, s.Suggestions)
		out = append(out, s)
	}
	return out
}

func sumByName[T any](rows []T, name func(T) string, value func(T) int64) []Slice {
	groups := lo.GroupBy(rows, name)
	names := lo.Keys(groups)
	sort.Strings(names)
	out := make([]Slice, 0, len(names))
	for _, n := range names {
		out = append(out, Slice{Name: n, Value: lo.SumBy(groups[n], value)})
	}
	return out
}

func sortedUniq(values []string) []string {
	out := lo.Uniq(values)
	sort.Strings(out)
	return out
}
