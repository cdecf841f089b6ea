// Package flatten expands validated daily records into flat rows.
package flatten

import (
	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/schema"
)

// Flatten walks days in order and emits one row per leaf combination.
//
// Completions expand editor -> model -> language. Chats emit every IDE
// editor -> model row for a day before that day's dotcom model rows. Pull
// requests expand repository -> model. Empty aggregates emit nothing.
func Flatten(days []schema.DailyRecord) model.Batch {
	counts := Counts(days)
	batch := model.Batch{
		Completions:  make([]model.CompletionRecord, 0, counts.Completions),
		Chats:        make([]model.ChatRecord, 0, counts.Chats),
		PullRequests: make([]model.PullRequestRecord, 0, counts.PullRequests),
	}
	for _, day := range days {
		batch.Completions = appendCompletions(batch.Completions, day)
		batch.Chats = appendChats(batch.Chats, day)
		batch.PullRequests = appendPullRequests(batch.PullRequests, day)
	}
	return batch
}

func appendCompletions(out []model.CompletionRecord, day schema.DailyRecord) []model.CompletionRecord {
	for _, editor := range day.IDECompletions.Editors {
		for _, m := range editor.Models {
			for _, lang := range m.Languages {
				out = append(out, model.CompletionRecord{
					Date:                    day.Date,
					Editor:                  editor.Name,
					Model:                   m.Name,
					IsCustomModel:           m.IsCustomModel,
					Language:                lang.Name,
					TotalEngagedUsers:       lang.TotalEngagedUsers,
					TotalCodeAcceptances:    lang.TotalCodeAcceptances,
					TotalCodeSuggestions:    lang.TotalCodeSuggestions,
					TotalCodeLinesAccepted:  lang.TotalCodeLinesAccepted,
					TotalCodeLinesSuggested: lang.TotalCodeLinesSuggested,
				})
			}
		}
	}
	return out
}

func appendChats(out []model.ChatRecord, day schema.DailyRecord) []model.ChatRecord {
	for _, editor := range day.IDEChat.Editors {
		name := editor.Name
		for _, m := range editor.Models {
			out = append(out, chatRecord(day.Date, model.ChatTypeIDE, &name, m))
		}
	}
	for _, m := range day.DotcomChat.Models {
		out = append(out, chatRecord(day.Date, model.ChatTypeDotcom, nil, m))
	}
	return out
}

func chatRecord(date string, chatType model.ChatType, editor *string, m schema.ChatModel) model.ChatRecord {
	return model.ChatRecord{
		Date:                     date,
		ChatType:                 chatType,
		Editor:                   editor,
		Model:                    m.Name,
		IsCustomModel:            m.IsCustomModel,
		TotalChats:               m.TotalChats,
		TotalEngagedUsers:        m.TotalEngagedUsers,
		TotalChatCopyEvents:      coerceEventCount(m.CopyEvents),
		TotalChatInsertionEvents: coerceEventCount(m.InsertionEvents),
	}
}

// coerceEventCount maps a null or absent chat event counter to 0.
// Only the copy and insertion counters are nullable.
func coerceEventCount(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func appendPullRequests(out []model.PullRequestRecord, day schema.DailyRecord) []model.PullRequestRecord {
	for _, repo := range day.DotcomPullRequests.Repositories {
		for _, m := range repo.Models {
			out = append(out, model.PullRequestRecord{
				Date:                    day.Date,
				Repository:              repo.Name,
				Model:                   m.Name,
				IsCustomModel:           m.IsCustomModel,
				TotalEngagedUsers:       m.TotalEngagedUsers,
				TotalPRSummariesCreated: m.TotalPRSummariesCreated,
			})
		}
	}
	return out
}

// RowCounts is the number of rows each flat sequence will hold.
type RowCounts struct {
	Completions  int
	Chats        int
	PullRequests int
}

// Counts computes row counts from the nested shape without building rows.
func Counts(days []schema.DailyRecord) RowCounts {
	var c RowCounts
	for _, day := range days {
		for _, editor := range day.IDECompletions.Editors {
			for _, m := range editor.Models {
				c.Completions += len(m.Languages)
			}
		}
		for _, editor := range day.IDEChat.Editors {
			c.Chats += len(editor.Models)
		}
		c.Chats += len(day.DotcomChat.Models)
		for _, repo := range day.DotcomPullRequests.Repositories {
			c.PullRequests += len(repo.Models)
		}
	}
	return c
}
