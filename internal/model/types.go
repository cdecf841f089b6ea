// Package model defines shared data structures.
package model

// ChatType tags where a chat interaction happened.
type ChatType string

const (
	ChatTypeIDE    ChatType = "ide"
	ChatTypeDotcom ChatType = "dotcom"
)

// CompletionRecord is one row per (date, editor, model, language).
type CompletionRecord struct {
	Date                    string `json:"date"`
	Editor                  string `json:"editor"`
	Model                   string `json:"model"`
	IsCustomModel           bool   `json:"is_custom_model"`
	Language                string `json:"language"`
	TotalEngagedUsers       int64  `json:"total_engaged_users"`
	TotalCodeAcceptances    int64  `json:"total_code_acceptances"`
	TotalCodeSuggestions    int64  `json:"total_code_suggestions"`
	TotalCodeLinesAccepted  int64  `json:"total_code_lines_accepted"`
	TotalCodeLinesSuggested int64  `json:"total_code_lines_suggested"`
}

// ChatRecord is one row per (date, chat type, editor, model).
// Editor is nil for dotcom chats.
type ChatRecord struct {
	Date                     string   `json:"date"`
	ChatType                 ChatType `json:"chat_type"`
	Editor                   *string  `json:"editor"`
	Model                    string   `json:"model"`
	IsCustomModel            bool     `json:"is_custom_model"`
	TotalChats               int64    `json:"total_chats"`
	TotalEngagedUsers        int64    `json:"total_engaged_users"`
	TotalChatCopyEvents      int64    `json:"total_chat_copy_events"`
	TotalChatInsertionEvents int64    `json:"total_chat_insertion_events"`
}

// EditorName returns the editor or an empty string for dotcom chats.
func (r ChatRecord) EditorName() string {
	if r.Editor == nil {
		return ""
	}
	return *r.Editor
}

// PullRequestRecord is one row per (date, repository, model).
type PullRequestRecord struct {
	Date                    string `json:"date"`
	Repository              string `json:"repository"`
	Model                   string `json:"model"`
	IsCustomModel           bool   `json:"is_custom_model"`
	TotalEngagedUsers       int64  `json:"total_engaged_users"`
	TotalPRSummariesCreated int64  `json:"total_pr_summaries_created"`
}

// Batch holds the flat sequences produced from one input document.
type Batch struct {
	Completions  []CompletionRecord
	Chats        []ChatRecord
	PullRequests []PullRequestRecord
}

// Empty reports whether the batch has no rows at all.
func (b Batch) Empty() bool {
	return len(b.Completions) == 0 && len(b.Chats) == 0 && len(b.PullRequests) == 0
}

// Filter narrows rows read back from a warehouse. Dates are YYYY-MM-DD; empty means unbounded.
type Filter struct {
	Since  string
	Until  string
	Editor string
}
