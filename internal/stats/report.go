package stats

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/verte-zerg/pilotmetrics/internal/model"
)

// BatchSource reads stored rows back, e.g. a SQL warehouse.
type BatchSource interface {
	Batch(ctx context.Context, filter model.Filter) (model.Batch, error)
}

// BuildReport loads the filtered batch from src and aggregates it. ok is false
// when no completion rows match.
func BuildReport(ctx context.Context, src BatchSource, filter model.Filter) (Dashboard, bool, error) {
	batch, err := src.Batch(ctx, filter)
	if err != nil {
		return Dashboard{}, false, fmt.Errorf("failed to read stored rows: %w", err)
	}
	d, ok := BuildDashboard(batch)
	return d, ok, nil
}

// FilterBatch applies a filter to rows already in memory. Dates compare as
// YYYY-MM-DD strings. The editor filter drops dotcom chats and leaves pull
// requests untouched.
func FilterBatch(batch model.Batch, filter model.Filter) model.Batch {
	inRange := func(date string) bool {
		return (filter.Since == "" || date >= filter.Since) && (filter.Until == "" || date <= filter.Until)
	}
	return model.Batch{
		Completions: lo.Filter(batch.Completions, func(r model.CompletionRecord, _ int) bool {
			return inRange(r.Date) && (filter.Editor == "" || r.Editor == filter.Editor)
		}),
		Chats: lo.Filter(batch.Chats, func(r model.ChatRecord, _ int) bool {
			return inRange(r.Date) && (filter.Editor == "" || r.EditorName() == filter.Editor)
		}),
		PullRequests: lo.Filter(batch.PullRequests, func(r model.PullRequestRecord, _ int) bool {
			return inRange(r.Date)
		}),
	}
}
