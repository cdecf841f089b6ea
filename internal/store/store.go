// Package store persists flattened usage rows in a SQL warehouse.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/warehouse"
)

// Store wraps SQL access for usage rows.
type Store struct {
	db      *sql.DB
	dialect dialect
	opts    warehouse.Options
}

var _ warehouse.Sink = (*Store)(nil)

// Open connects to the warehouse and applies migrations. For sqlite the dsn is
// a file path and its directory is created.
func Open(ctx context.Context, driver, dsn string, opts warehouse.Options) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, warehouse.Fail("open store", err)
	}
	if d.name == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, warehouse.Fail("create database directory", err)
		}
	}
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, warehouse.Fail("open "+d.name+" database", err)
	}
	store := &Store{db: db, dialect: d, opts: opts}
	if err := store.migrate(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, warehouse.Fail("migrate "+d.name+" database", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, table := range warehouse.Tables(s.opts) {
		for _, stmt := range s.dialect.createTable(table) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load appends every non-empty part of the batch in a single transaction.
func (s *Store) Load(ctx context.Context, batch model.Batch) (err error) {
	parts := warehouse.Parts(batch, s.opts)
	total := 0
	for _, part := range parts {
		total += part.Len
	}
	if total == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return warehouse.Fail("begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, part := range parts {
		if part.Len == 0 {
			continue
		}
		if err = s.insertPart(ctx, tx, part); err != nil {
			return warehouse.Fail("insert into "+part.Table.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return warehouse.Fail("commit", err)
	}
	return nil
}

func (s *Store) insertPart(ctx context.Context, tx *sql.Tx, part warehouse.Part) error {
	stmt, err := tx.PrepareContext(ctx, s.dialect.insert(part.Table))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < part.Len; i++ {
		if _, err := stmt.ExecContext(ctx, part.Row(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Batch reads every sequence matching the filter. Pull requests are read only
// when the store manages that table.
func (s *Store) Batch(ctx context.Context, filter model.Filter) (model.Batch, error) {
	var batch model.Batch
	var err error
	if batch.Completions, err = s.ListCompletions(ctx, filter); err != nil {
		return model.Batch{}, err
	}
	if batch.Chats, err = s.ListChats(ctx, filter); err != nil {
		return model.Batch{}, err
	}
	if s.opts.WithPullRequests {
		if batch.PullRequests, err = s.ListPullRequests(ctx, filter); err != nil {
			return model.Batch{}, err
		}
	}
	return batch, nil
}

// ListCompletions returns completion rows in insertion order.
func (s *Store) ListCompletions(ctx context.Context, filter model.Filter) ([]model.CompletionRecord, error) {
	where, args := s.where(filter, true)
	query := fmt.Sprintf(`SELECT %s, editor, model, is_custom_model, language, total_engaged_users,
		total_code_acceptances, total_code_suggestions, total_code_lines_accepted, total_code_lines_suggested
		FROM code_completions
		WHERE %s
		ORDER BY id ASC`, s.dialect.dateExpr, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CompletionRecord
	for rows.Next() {
		var r model.CompletionRecord
		if err := rows.Scan(&r.Date, &r.Editor, &r.Model, &r.IsCustomModel, &r.Language, &r.TotalEngagedUsers,
			&r.TotalCodeAcceptances, &r.TotalCodeSuggestions, &r.TotalCodeLinesAccepted, &r.TotalCodeLinesSuggested); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read completions: %w", err)
	}
	return result, nil
}

// ListChats returns chat rows in insertion order. Dotcom rows have a nil editor
// and never match an editor filter.
func (s *Store) ListChats(ctx context.Context, filter model.Filter) ([]model.ChatRecord, error) {
	where, args := s.where(filter, true)
	query := fmt.Sprintf(`SELECT %s, chat_type, editor, model, is_custom_model, total_chats,
		total_engaged_users, total_chat_copy_events, total_chat_insertion_events
		FROM chats
		WHERE %s
		ORDER BY id ASC`, s.dialect.dateExpr, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChatRecord
	for rows.Next() {
		var r model.ChatRecord
		var chatType string
		var editor sql.NullString
		if err := rows.Scan(&r.Date, &chatType, &editor, &r.Model, &r.IsCustomModel, &r.TotalChats,
			&r.TotalEngagedUsers, &r.TotalChatCopyEvents, &r.TotalChatInsertionEvents); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		r.ChatType = model.ChatType(chatType)
		if editor.Valid {
			name := editor.String
			r.Editor = &name
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}
	return result, nil
}

// ListPullRequests returns pull request summary rows in insertion order. The
// editor filter does not apply.
func (s *Store) ListPullRequests(ctx context.Context, filter model.Filter) ([]model.PullRequestRecord, error) {
	where, args := s.where(filter, false)
	query := fmt.Sprintf(`SELECT %s, repository, model, is_custom_model, total_engaged_users, total_pr_summaries_created
		FROM pull_request_summaries
		WHERE %s
		ORDER BY id ASC`, s.dialect.dateExpr, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pull request summaries: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.PullRequestRecord
	for rows.Next() {
		var r model.PullRequestRecord
		if err := rows.Scan(&r.Date, &r.Repository, &r.Model, &r.IsCustomModel, &r.TotalEngagedUsers, &r.TotalPRSummariesCreated); err != nil {
			return nil, fmt.Errorf("failed to scan pull request summary: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pull request summaries: %w", err)
	}
	return result, nil
}

func (s *Store) where(filter model.Filter, hasEditor bool) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, clause+" "+s.dialect.placeholder(len(args)))
	}
	if filter.Since != "" {
		add("date >=", filter.Since)
	}
	if filter.Until != "" {
		add("date <=", filter.Until)
	}
	if hasEditor && filter.Editor != "" {
		add("editor =", filter.Editor)
	}
	return strings.Join(clauses, " AND "), args
}
