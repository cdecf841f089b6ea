// Package schema decodes and validates daily Copilot usage documents.
//
// A document is a JSON array of daily records. Each record nests per-editor,
// per-model and per-language aggregates. Validate builds the typed records
// below from a parsed JSON value and injects defaults for every optional field
// while it does so. The first structural problem rejects the whole document.
package schema

// DailyRecord is one calendar day of usage across all product surfaces.
type DailyRecord struct {
	Date               string
	TotalActiveUsers   int64
	TotalEngagedUsers  int64
	IDECompletions     IDECompletions
	IDEChat            IDEChat
	DotcomChat         DotcomChat
	DotcomPullRequests DotcomPullRequests
}

// IDECompletions aggregates code completions in editors.
type IDECompletions struct {
	TotalEngagedUsers int64
	Editors           []CompletionEditor
	Languages         []LanguageSummary
}

// LanguageSummary is the day-level language breakdown reported next to the editors.
type LanguageSummary struct {
	Name              string
	TotalEngagedUsers int64
}

// CompletionEditor groups completion models used in one editor.
type CompletionEditor struct {
	Name              string
	TotalEngagedUsers int64
	Models            []CompletionModel
}

// CompletionModel groups language metrics for one model.
type CompletionModel struct {
	Name              string
	IsCustomModel     bool
	TotalEngagedUsers int64
	Languages         []LanguageMetrics
}

// LanguageMetrics is the leaf of the completions tree.
type LanguageMetrics struct {
	Name                    string
	TotalEngagedUsers       int64
	TotalCodeAcceptances    int64
	TotalCodeSuggestions    int64
	TotalCodeLinesAccepted  int64
	TotalCodeLinesSuggested int64
}

// IDEChat aggregates chat usage inside editors.
type IDEChat struct {
	TotalEngagedUsers int64
	Editors           []ChatEditor
}

// ChatEditor groups chat models used in one editor.
type ChatEditor struct {
	Name              string
	TotalEngagedUsers int64
	Models            []ChatModel
}

// DotcomChat aggregates chat usage on the website.
type DotcomChat struct {
	TotalEngagedUsers int64
	Models            []ChatModel
}

// ChatModel holds chat counters for one model.
//
// CopyEvents and InsertionEvents are nil when the input omitted them or sent
// an explicit null.
type ChatModel struct {
	Name              string
	IsCustomModel     bool
	TotalChats        int64
	TotalEngagedUsers int64
	CopyEvents        *int64
	InsertionEvents   *int64
}

// DotcomPullRequests aggregates pull request summaries per repository.
type DotcomPullRequests struct {
	TotalEngagedUsers int64
	Repositories      []Repository
}

// Repository groups pull request summary models for one repository.
type Repository struct {
	Name              string
	TotalEngagedUsers int64
	Models            []PRModel
}

// PRModel holds pull request summary counters for one model.
type PRModel struct {
	Name                    string
	IsCustomModel           bool
	TotalEngagedUsers       int64
	TotalPRSummariesCreated int64
}
