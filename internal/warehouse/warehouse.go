// Package warehouse defines the tabular sink contract shared by the BigQuery
// and SQL loaders: the fixed table layouts, row encoding and failure kind.
package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/verte-zerg/pilotmetrics/internal/model"
)

// ErrSink marks a failure inside a tabular sink. The cause stays in the chain.
var ErrSink = errors.New("sink failure")

// Sink appends a flattened batch to durable tables.
//
// Implementations create missing containers and tables, skip empty sequences
// and never retry.
type Sink interface {
	Load(ctx context.Context, batch model.Batch) error
}

// Options selects optional tables.
type Options struct {
	WithPullRequests bool
}

// Fail wraps err as a sink failure for the named step.
func Fail(step string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrSink, step, err)
}

// Part is one table's share of a batch.
type Part struct {
	Table Table
	Len   int

	row    func(i int) []any
	encode func(w io.Writer) error
}

// Row returns the column-ordered values of row i. A nil editor stays a nil value.
func (p Part) Row(i int) []any {
	return p.row(i)
}

// EncodeNDJSON writes the part's rows as newline-delimited JSON.
func (p Part) EncodeNDJSON(w io.Writer) error {
	return p.encode(w)
}

// Parts splits a batch into per-table parts in load order. Empty parts are
// included so sinks can still ensure their tables.
func Parts(batch model.Batch, opts Options) []Part {
	parts := []Part{
		{
			Table: CompletionsTable,
			Len:   len(batch.Completions),
			row: func(i int) []any {
				return completionValues(batch.Completions[i])
			},
			encode: func(w io.Writer) error {
				return EncodeNDJSON(w, batch.Completions)
			},
		},
		{
			Table: ChatsTable,
			Len:   len(batch.Chats),
			row: func(i int) []any {
				return chatValues(batch.Chats[i])
			},
			encode: func(w io.Writer) error {
				return EncodeNDJSON(w, batch.Chats)
			},
		},
	}
	if opts.WithPullRequests {
		parts = append(parts, Part{
			Table: PullRequestsTable,
			Len:   len(batch.PullRequests),
			row: func(i int) []any {
				return pullRequestValues(batch.PullRequests[i])
			},
			encode: func(w io.Writer) error {
				return EncodeNDJSON(w, batch.PullRequests)
			},
		})
	}
	return parts
}

// EncodeNDJSON writes one JSON object per line using the records' column tags.
func EncodeNDJSON[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}
	return nil
}

func completionValues(r model.CompletionRecord) []any {
	return []any{
		r.Date,
		r.Editor,
		r.Model,
		r.IsCustomModel,
		r.Language,
		r.TotalEngagedUsers,
		r.TotalCodeAcceptances,
		r.TotalCodeSuggestions,
		r.TotalCodeLinesAccepted,
		r.TotalCodeLinesSuggested,
	}
}

func chatValues(r model.ChatRecord) []any {
	var editor any
	if r.Editor != nil {
		editor = *r.Editor
	}
	return []any{
		r.Date,
		string(r.ChatType),
		editor,
		r.Model,
		r.IsCustomModel,
		r.TotalChats,
		r.TotalEngagedUsers,
		r.TotalChatCopyEvents,
		r.TotalChatInsertionEvents,
	}
}

func pullRequestValues(r model.PullRequestRecord) []any {
	return []any{
		r.Date,
		r.Repository,
		r.Model,
		r.IsCustomModel,
		r.TotalEngagedUsers,
		r.TotalPRSummariesCreated,
	}
}
