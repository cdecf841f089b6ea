package stats

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/pilotmetrics/internal/model"
)

func sampleBatch() model.Batch {
	vscode := "vscode"
	return model.Batch{
		Completions: []model.CompletionRecord{
			{Date: "2024-01-15", Editor: "vscode", Model: "gpt-4", Language: "python", TotalEngagedUsers: 20, TotalCodeAcceptances: 100, TotalCodeSuggestions: 150, TotalCodeLinesAccepted: 200, TotalCodeLinesSuggested: 300},
			{Date: "2024-01-15", Editor: "vscode", Model: "gpt-4", Language: "go", TotalEngagedUsers: 12, TotalCodeAcceptances: 10, TotalCodeSuggestions: 40, TotalCodeLinesAccepted: 30, TotalCodeLinesSuggested: 90},
			{Date: "2024-01-17", Editor: "vscode", Model: "gpt-4", Language: "python", TotalEngagedUsers: 15, TotalCodeAcceptances: 80, TotalCodeSuggestions: 120, TotalCodeLinesAccepted: 160, TotalCodeLinesSuggested: 240},
			{Date: "2024-01-16", Editor: "jetbrains", Model: "gpt-4", Language: "markdown", TotalEngagedUsers: 3},
		},
		Chats: []model.ChatRecord{
			{Date: "2024-01-15", ChatType: model.ChatTypeIDE, Editor: &vscode, Model: "gpt-4", TotalChats: 50, TotalChatCopyEvents: 10, TotalChatInsertionEvents: 15},
			{Date: "2024-01-15", ChatType: model.ChatTypeDotcom, Model: "gpt-4", TotalChats: 25, TotalChatCopyEvents: 5, TotalChatInsertionEvents: 8},
		},
		PullRequests: []model.PullRequestRecord{
			{Date: "2024-01-17", Repository: "org/web", Model: "default", TotalPRSummariesCreated: 4},
			{Date: "2024-01-14", Repository: "org/api", Model: "default", TotalPRSummariesCreated: 2},
		},
	}
}

func TestBuildDashboardNoCompletions(t *testing.T) {
	b := sampleBatch()
	b.Completions = nil
	if _, ok := BuildDashboard(b); ok {
		t.Fatalf("expected ok=false without completion rows")
	}
}

func TestBuildDashboardPivots(t *testing.T) {
	d, ok := BuildDashboard(sampleBatch())
	if !ok {
		t.Fatalf("expected dashboard")
	}

	wantDates := []string{"2024-01-15", "2024-01-16", "2024-01-17"}
	if !reflect.DeepEqual(d.Dates, wantDates) {
		t.Fatalf("dates = %v, want %v", d.Dates, wantDates)
	}
	if d.Timeframe.Label() != "Data from 2024-01-15 to 2024-01-17" {
		t.Fatalf("unexpected timeframe label %q", d.Timeframe.Label())
	}
	if !reflect.DeepEqual(d.Languages, []string{"go", "markdown", "python"}) {
		t.Fatalf("unexpected languages %v", d.Languages)
	}

	cumulative := map[string][]int64{}
	for _, s := range d.CumulativeLines {
		cumulative[s.Name] = s.Values
	}
	if !reflect.DeepEqual(cumulative["python"], []int64{200, 200, 360}) {
		t.Fatalf("unexpected python cumulative lines %v", cumulative["python"])
	}
	if !reflect.DeepEqual(cumulative["go"], []int64{30, 30, 30}) {
		t.Fatalf("unexpected go cumulative lines %v", cumulative["go"])
	}

	acceptances := map[string][]int64{}
	for _, s := range d.Acceptances {
		acceptances[s.Name] = s.Values
	}
	if !reflect.DeepEqual(acceptances["python"], []int64{100, 0, 80}) {
		t.Fatalf("unexpected python acceptances %v", acceptances["python"])
	}
	if !reflect.DeepEqual(d.LinesAccepted, []int64{230, 0, 160}) {
		t.Fatalf("unexpected lines accepted %v", d.LinesAccepted)
	}
	if !reflect.DeepEqual(d.ActiveUsers, []int64{20, 3, 15}) {
		t.Fatalf("unexpected active users %v", d.ActiveUsers)
	}
	if math.Abs(d.DailyRate[0]-(110.0/190.0*100)) > 1e-9 || d.DailyRate[1] != 0 {
		t.Fatalf("unexpected daily rate %v", d.DailyRate)
	}
}

func TestBuildDashboardBreakdowns(t *testing.T) {
	d, _ := BuildDashboard(sampleBatch())

	wantEditors := []Slice{{Name: "jetbrains", Value: 0}, {Name: "vscode", Value: 390}}
	if !reflect.DeepEqual(d.Editors, wantEditors) {
		t.Fatalf("editors = %+v, want %+v", d.Editors, wantEditors)
	}

	rates := map[string]float64{}
	for _, s := range d.LanguageStats {
		rates[s.Name] = s.Rate
	}
	if math.Abs(rates["python"]-(180.0/270.0*100)) > 1e-9 {
		t.Fatalf("unexpected python rate %v", rates["python"])
	}
	if rates["go"] != 25 {
		t.Fatalf("unexpected go rate %v", rates["go"])
	}
	if rates["markdown"] != 0 {
		t.Fatalf("expected 0 rate without suggestions, got %v", rates["markdown"])
	}

	wantPRs := []Slice{{Name: "org/api", Value: 2}, {Name: "org/web", Value: 4}}
	if !reflect.DeepEqual(d.PullRequests, wantPRs) {
		t.Fatalf("pull requests = %+v, want %+v", d.PullRequests, wantPRs)
	}
	if d.Chat != (ChatTotals{Rows: 2, Chats: 75, CopyEvents: 15, InsertionEvents: 23}) {
		t.Fatalf("unexpected chat totals %+v", d.Chat)
	}

	total := d.Totals()
	if total.Suggestions != 310 || total.Acceptances != 190 || total.LinesAccepted != 390 {
		t.Fatalf("unexpected totals %+v", total)
	}
}

func TestBuildDashboardWithoutChatsOrPRs(t *testing.T) {
	b := sampleBatch()
	b.Chats = nil
	b.PullRequests = nil
	d, ok := BuildDashboard(b)
	if !ok {
		t.Fatalf("expected dashboard")
	}
	if len(d.PullRequests) != 0 || d.Chat.Rows != 0 {
		t.Fatalf("expected empty PR and chat panels, got %+v %+v", d.PullRequests, d.Chat)
	}

	var buf bytes.Buffer
	if err := RenderActivityTable(&buf, d); err != nil {
		t.Fatalf("render activity: %v", err)
	}
	if !strings.Contains(buf.String(), "No chat data.") || !strings.Contains(buf.String(), "No PR data.") {
		t.Fatalf("unexpected activity output:\n%s", buf.String())
	}
}

func TestAcceptanceRate(t *testing.T) {
	if got := AcceptanceRate(5, 0); got != 0 {
		t.Fatalf("expected 0 for no suggestions, got %v", got)
	}
	if got := AcceptanceRate(1, 4); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
}

func TestRenderReport(t *testing.T) {
	d, _ := BuildDashboard(sampleBatch())
	var buf bytes.Buffer
	if err := RenderReport(&buf, d, 80, false); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Summary",
		"Data from 2024-01-15 to 2024-01-17",
		"Acceptance rate: 61.29%",
		"Peak active users: 20",
		"Lowest acceptance: go (25.0%)",
		TitleCumulativeLines,
		TitleAcceptanceRate,
		TitleEditorLines,
		TitleChatUsage,
		TitlePullRequests,
		"org/web",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MovingAverage = %v, want %v", got, want)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}
