package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSample(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "sample.json"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.Close()
	})

	days, err := Parse(f)
	require.NoError(t, err)
	require.Len(t, days, 1)

	day := days[0]
	assert.Equal(t, "2024-01-15", day.Date)
	assert.Equal(t, int64(100), day.TotalActiveUsers)
	assert.Equal(t, int64(80), day.TotalEngagedUsers)
	assert.Equal(t, int64(60), day.IDECompletions.TotalEngagedUsers)

	require.Len(t, day.IDECompletions.Editors, 1)
	editor := day.IDECompletions.Editors[0]
	assert.Equal(t, "vscode", editor.Name)
	require.Len(t, editor.Models, 1)
	require.Len(t, editor.Models[0].Languages, 1)
	lang := editor.Models[0].Languages[0]
	assert.Equal(t, LanguageMetrics{
		Name:                    "python",
		TotalEngagedUsers:       20,
		TotalCodeAcceptances:    100,
		TotalCodeSuggestions:    150,
		TotalCodeLinesAccepted:  200,
		TotalCodeLinesSuggested: 300,
	}, lang)

	require.Len(t, day.DotcomChat.Models, 1)
	chat := day.DotcomChat.Models[0]
	require.NotNil(t, chat.CopyEvents)
	assert.Equal(t, int64(5), *chat.CopyEvents)
	assert.Empty(t, day.DotcomPullRequests.Repositories)
	assert.Equal(t, int64(15), day.DotcomPullRequests.TotalEngagedUsers)
}

func TestValidateDefaults(t *testing.T) {
	days, err := Parse(strings.NewReader(`[{
		"date": "2024-02-01",
		"total_active_users": 3,
		"total_engaged_users": 2,
		"copilot_ide_code_completions": {
			"editors": [{"name": "jetbrains", "models": [{
				"name": "default", "is_custom_model": true,
				"languages": [{"name": "go"}]
			}]}]
		}
	}]`))
	require.NoError(t, err)
	require.Len(t, days, 1)

	day := days[0]
	assert.Zero(t, day.IDECompletions.TotalEngagedUsers)
	lang := day.IDECompletions.Editors[0].Models[0].Languages[0]
	assert.Equal(t, LanguageMetrics{Name: "go"}, lang)
	assert.True(t, day.IDECompletions.Editors[0].Models[0].IsCustomModel)

	assert.Empty(t, day.IDEChat.Editors)
	assert.Zero(t, day.IDEChat.TotalEngagedUsers)
	assert.Empty(t, day.DotcomChat.Models)
	assert.Empty(t, day.DotcomPullRequests.Repositories)
}

func TestValidateNullableChatCounters(t *testing.T) {
	days, err := Parse(strings.NewReader(`[{
		"date": "2024-02-01",
		"total_active_users": 1,
		"total_engaged_users": 1,
		"copilot_dotcom_chat": {"models": [
			{"name": "a", "is_custom_model": false, "total_chat_copy_events": null},
			{"name": "b", "is_custom_model": false, "total_chat_copy_events": 4, "total_chat_insertion_events": 2}
		]}
	}]`))
	require.NoError(t, err)

	models := days[0].DotcomChat.Models
	require.Len(t, models, 2)
	assert.Nil(t, models[0].CopyEvents)
	assert.Nil(t, models[0].InsertionEvents)
	require.NotNil(t, models[1].CopyEvents)
	require.NotNil(t, models[1].InsertionEvents)
	assert.Equal(t, int64(4), *models[1].CopyEvents)
	assert.Equal(t, int64(2), *models[1].InsertionEvents)
}

func TestValidateIntegralFloats(t *testing.T) {
	days, err := Parse(strings.NewReader(`[{"date": "2024-02-01", "total_active_users": 10.0, "total_engaged_users": 1e1}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(10), days[0].TotalActiveUsers)
	assert.Equal(t, int64(10), days[0].TotalEngagedUsers)
}

func TestValidateEmptyArray(t *testing.T) {
	days, err := Parse(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestValidateUnnamedDayLanguage(t *testing.T) {
	days, err := Parse(strings.NewReader(`[{"date": "2024-01-15", "total_active_users": 1, "total_engaged_users": 1,
		"copilot_ide_code_completions": {"languages": [{"total_engaged_users": 3}]}}]`))
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].IDECompletions.Languages, 1)
	assert.Equal(t, "", days[0].IDECompletions.Languages[0].Name)
	assert.Equal(t, int64(3), days[0].IDECompletions.Languages[0].TotalEngagedUsers)
}

func TestValidateRejects(t *testing.T) {
	const valid = `"date": "2024-01-15", "total_active_users": 1, "total_engaged_users": 1`

	tests := []struct {
		name     string
		input    string
		path     string
		expected string
	}{
		{
			name:     "top level object",
			input:    `{"date": "2024-01-15"}`,
			path:     "$",
			expected: "array of daily records",
		},
		{
			name:     "record not an object",
			input:    `[{` + valid + `}, 7]`,
			path:     "$[1]",
			expected: "object",
		},
		{
			name:     "missing date",
			input:    `[{"total_active_users": 1, "total_engaged_users": 1}]`,
			path:     "$[0].date",
			expected: "string",
		},
		{
			name:     "empty date",
			input:    `[{"date": "", "total_active_users": 1, "total_engaged_users": 1}]`,
			path:     "$[0].date",
			expected: "non-empty date",
		},
		{
			name:     "unparseable date",
			input:    `[{"date": "15/01/2024", "total_active_users": 1, "total_engaged_users": 1}]`,
			path:     "$[0].date",
			expected: "date (YYYY-MM-DD)",
		},
		{
			name:     "active users as string",
			input:    `[{"date": "2024-01-15", "total_active_users": "100", "total_engaged_users": 1}]`,
			path:     "$[0].total_active_users",
			expected: "integer",
		},
		{
			name:     "missing engaged users",
			input:    `[{"date": "2024-01-15", "total_active_users": 1}]`,
			path:     "$[0].total_engaged_users",
			expected: "integer",
		},
		{
			name:     "fractional count",
			input:    `[{"date": "2024-01-15", "total_active_users": 1.5, "total_engaged_users": 1}]`,
			path:     "$[0].total_active_users",
			expected: "integer",
		},
		{
			name:     "negative count",
			input:    `[{"date": "2024-01-15", "total_active_users": -1, "total_engaged_users": 1}]`,
			path:     "$[0].total_active_users",
			expected: "non-negative integer",
		},
		{
			name:     "boolean count",
			input:    `[{"date": "2024-01-15", "total_active_users": true, "total_engaged_users": 1}]`,
			path:     "$[0].total_active_users",
			expected: "integer",
		},
		{
			name: "chat is_custom_model as string",
			input: `[{` + valid + `, "copilot_ide_chat": {"editors": [{"name": "vscode", "models": [
				{"name": "gpt-4", "is_custom_model": "not_boolean"}
			]}]}}]`,
			path:     "$[0].copilot_ide_chat.editors[0].models[0].is_custom_model",
			expected: "boolean",
		},
		{
			name:     "null counter outside chat events",
			input:    `[{` + valid + `, "copilot_dotcom_chat": {"models": [{"name": "a", "is_custom_model": false, "total_chats": null}]}}]`,
			path:     "$[0].copilot_dotcom_chat.models[0].total_chats",
			expected: "integer",
		},
		{
			name:     "language name not a string",
			input:    `[{` + valid + `, "copilot_ide_code_completions": {"editors": [{"name": "vscode", "models": [{"name": "m", "is_custom_model": false, "languages": [{"name": 123}]}]}]}}]`,
			path:     "$[0].copilot_ide_code_completions.editors[0].models[0].languages[0].name",
			expected: "string",
		},
		{
			name:     "day-level language name not a string",
			input:    `[{` + valid + `, "copilot_ide_code_completions": {"languages": [{"name": 5, "total_engaged_users": 3}]}}]`,
			path:     "$[0].copilot_ide_code_completions.languages[0].name",
			expected: "string",
		},
		{
			name:     "day-level language not an object",
			input:    `[{` + valid + `, "copilot_ide_code_completions": {"languages": ["go"]}}]`,
			path:     "$[0].copilot_ide_code_completions.languages[0]",
			expected: "object",
		},
		{
			name:     "editors not a list",
			input:    `[{` + valid + `, "copilot_ide_chat": {"editors": {"name": "vscode"}}}]`,
			path:     "$[0].copilot_ide_chat.editors",
			expected: "array",
		},
		{
			name:     "aggregate not an object",
			input:    `[{` + valid + `, "copilot_dotcom_pull_requests": []}]`,
			path:     "$[0].copilot_dotcom_pull_requests",
			expected: "object",
		},
		{
			name:     "pr model missing flag",
			input:    `[{` + valid + `, "copilot_dotcom_pull_requests": {"repositories": [{"name": "org/repo", "models": [{"name": "m"}]}]}}]`,
			path:     "$[0].copilot_dotcom_pull_requests.repositories[0].models[0].is_custom_model",
			expected: "boolean",
		},
		{
			name:     "bad second record rejects batch",
			input:    `[{` + valid + `}, {"date": "2024-01-16", "total_active_users": "x", "total_engaged_users": 1}]`,
			path:     "$[1].total_active_users",
			expected: "integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, days)
			assert.ErrorIs(t, err, ErrViolation)
			assert.NotErrorIs(t, err, ErrMalformed)

			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.path, v.Path)
			assert.Equal(t, tt.expected, v.Expected)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "syntax error", input: `[{"date": "2024-01-15",}]`},
		{name: "truncated", input: `[{"date": `},
		{name: "empty", input: ``},
		{name: "trailing data", input: `[] []`},
		{name: "not json", input: `date,total_active_users`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.NotErrorIs(t, err, ErrViolation)
		})
	}
}

func TestViolationMessage(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"date": "2024-01-15", "total_active_users": "100", "total_engaged_users": 1}]`))
	require.Error(t, err)
	assert.Equal(t, `schema violation at $[0].total_active_users: expected integer, got string "100"`, err.Error())
}
