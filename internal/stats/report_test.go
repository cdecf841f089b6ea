package stats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/store"
	"github.com/verte-zerg/pilotmetrics/internal/warehouse"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, filepath.Join(dir, "usage.db"), warehouse.Options{WithPullRequests: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	if err := st.Load(ctx, sampleBatch()); err != nil {
		t.Fatalf("load: %v", err)
	}

	d, ok, err := BuildReport(ctx, st, model.Filter{Since: "2024-01-16"})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if !ok {
		t.Fatalf("expected completions after 2024-01-16")
	}
	if d.Timeframe.Start != "2024-01-16" || d.Timeframe.End != "2024-01-17" {
		t.Fatalf("unexpected timeframe: %+v", d.Timeframe)
	}
	if len(d.PullRequests) != 1 || d.PullRequests[0].Value != 4 {
		t.Fatalf("unexpected pull requests: %+v", d.PullRequests)
	}

	_, ok, err = BuildReport(ctx, st, model.Filter{Since: "2025-01-01"})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if ok {
		t.Fatalf("expected no dashboard for an empty range")
	}
}

type failingSource struct{}

func (failingSource) Batch(context.Context, model.Filter) (model.Batch, error) {
	return model.Batch{}, errors.New("connection refused")
}

func TestBuildReportSourceError(t *testing.T) {
	if _, _, err := BuildReport(context.Background(), failingSource{}, model.Filter{}); err == nil {
		t.Fatalf("expected error from failing source")
	}
}

func TestFilterBatch(t *testing.T) {
	b := sampleBatch()

	got := FilterBatch(b, model.Filter{Until: "2024-01-15"})
	if len(got.Completions) != 2 || len(got.Chats) != 2 || len(got.PullRequests) != 1 {
		t.Fatalf("unexpected counts: %d/%d/%d", len(got.Completions), len(got.Chats), len(got.PullRequests))
	}

	got = FilterBatch(b, model.Filter{Editor: "jetbrains"})
	if len(got.Completions) != 1 || got.Completions[0].Editor != "jetbrains" {
		t.Fatalf("unexpected completions: %+v", got.Completions)
	}
	if len(got.Chats) != 0 {
		t.Fatalf("expected dotcom and vscode chats to be dropped, got %+v", got.Chats)
	}
	if len(got.PullRequests) != len(b.PullRequests) {
		t.Fatalf("editor filter must not drop pull requests")
	}

	got = FilterBatch(b, model.Filter{})
	if len(got.Completions) != len(b.Completions) || len(got.Chats) != len(b.Chats) {
		t.Fatalf("empty filter must keep every row")
	}
}
