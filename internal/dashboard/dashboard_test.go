package dashboard

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/stats"
)

func sampleDashboard(t *testing.T) stats.Dashboard {
	t.Helper()
	editor := "vscode"
	d, ok := stats.BuildDashboard(model.Batch{
		Completions: []model.CompletionRecord{
			{Date: "2024-01-15", Editor: "vscode", Model: "gpt-4", Language: "python", TotalEngagedUsers: 20,
				TotalCodeAcceptances: 100, TotalCodeSuggestions: 150, TotalCodeLinesAccepted: 200, TotalCodeLinesSuggested: 300},
			{Date: "2024-01-16", Editor: "neovim", Model: "gpt-4", Language: "go", TotalEngagedUsers: 4,
				TotalCodeAcceptances: 7, TotalCodeSuggestions: 20, TotalCodeLinesAccepted: 9, TotalCodeLinesSuggested: 30},
		},
		Chats: []model.ChatRecord{
			{Date: "2024-01-15", ChatType: model.ChatTypeIDE, Editor: &editor, Model: "gpt-4", TotalChats: 50},
		},
		PullRequests: []model.PullRequestRecord{
			{Date: "2024-01-15", Repository: "org/service", Model: "default", TotalPRSummariesCreated: 3},
		},
	})
	require.True(t, ok)
	return d
}

func TestRenderContainsPanels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleDashboard(t)))

	html := buf.String()
	for _, title := range []string{
		stats.TitleDashboard,
		stats.TitleCumulativeLines,
		stats.TitleAcceptances,
		stats.TitleEditorLines,
		stats.TitleActiveUsers,
		stats.TitleAcceptanceRate,
		stats.TitlePullRequests,
		stats.TitleChatUsage,
	} {
		assert.Contains(t, html, title)
	}
	assert.Contains(t, html, "Data from 2024-01-15 to 2024-01-16")
	assert.Contains(t, html, "org/service")
	assert.Contains(t, html, "neovim")
}

func TestRenderWithoutChatsOrPullRequests(t *testing.T) {
	d := sampleDashboard(t)
	d.PullRequests = nil
	d.Chat = stats.ChatTotals{}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d))
	assert.Contains(t, buf.String(), stats.TitlePullRequests)
	assert.Contains(t, buf.String(), stats.TitleChatUsage)
	assert.NotContains(t, buf.String(), "org/service")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dashboard.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteFile(path, sampleDashboard(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), stats.TitleDashboard)
	assert.NotContains(t, string(data), "stale")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "dashboard.html")
	require.NoError(t, WriteFile(path, sampleDashboard(t)))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
