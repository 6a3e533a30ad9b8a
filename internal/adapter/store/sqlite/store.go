// Package sqlite persists review run history so past runs can be listed
// and audited from the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// Store implements the review.Store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and ensures the
// schema exists. Use ":memory:" for an in-memory database in tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One row per review run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		pr_number INTEGER NOT NULL,
		commit_sha TEXT NOT NULL,
		model TEXT,
		files_reviewed INTEGER NOT NULL DEFAULT 0,
		files_skipped INTEGER NOT NULL DEFAULT 0,
		comments_posted INTEGER NOT NULL DEFAULT 0,
		tokens_in INTEGER NOT NULL DEFAULT 0,
		tokens_out INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0.0
	);

	-- Suggestions that survived filtering in each run
	CREATE TABLE IF NOT EXISTS suggestions (
		suggestion_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		severity TEXT NOT NULL,
		category TEXT,
		comment TEXT NOT NULL,
		posted INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (suggestion_id, run_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_repo_pr ON runs(repository, pr_number);
	CREATE INDEX IF NOT EXISTS idx_suggestions_run ON suggestions(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a review run.
func (s *Store) SaveRun(ctx context.Context, run review.StoreRun) error {
	query := `
		INSERT INTO runs (run_id, timestamp, repository, pr_number, commit_sha, model,
			files_reviewed, files_skipped, comments_posted, tokens_in, tokens_out, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Repository,
		run.PRNumber,
		run.CommitSHA,
		run.Model,
		run.FilesReviewed,
		run.FilesSkipped,
		run.CommentsPosted,
		run.TokensIn,
		run.TokensOut,
		run.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveSuggestions stores the run's suggestions in one transaction.
func (s *Store) SaveSuggestions(ctx context.Context, runID string, suggestions []review.StoreSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO suggestions (suggestion_id, run_id, file, line, severity, category, comment, posted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sg := range suggestions {
		posted := 0
		if sg.Posted {
			posted = 1
		}
		if _, err := stmt.ExecContext(ctx,
			sg.SuggestionID, runID, sg.File, sg.Line, sg.Severity, sg.Category, sg.Comment, posted,
		); err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (review.StoreRun, error) {
	query := `
		SELECT run_id, timestamp, repository, pr_number, commit_sha, model,
			files_reviewed, files_skipped, comments_posted, tokens_in, tokens_out, total_cost
		FROM runs
		WHERE run_id = ?
	`

	var run review.StoreRun
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.Repository,
		&run.PRNumber,
		&run.CommitSHA,
		&run.Model,
		&run.FilesReviewed,
		&run.FilesSkipped,
		&run.CommentsPosted,
		&run.TokensIn,
		&run.TokensOut,
		&run.TotalCost,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return review.StoreRun{}, fmt.Errorf("run not found: %s", runID)
		}
		return review.StoreRun{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0).UTC()
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]review.StoreRun, error) {
	query := `
		SELECT run_id, timestamp, repository, pr_number, commit_sha, model,
			files_reviewed, files_skipped, comments_posted, tokens_in, tokens_out, total_cost
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []review.StoreRun
	for rows.Next() {
		var run review.StoreRun
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.Repository,
			&run.PRNumber,
			&run.CommitSHA,
			&run.Model,
			&run.FilesReviewed,
			&run.FilesSkipped,
			&run.CommentsPosted,
			&run.TokensIn,
			&run.TokensOut,
			&run.TotalCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0).UTC()
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetSuggestionsByRun retrieves a run's suggestions ordered by file and line.
func (s *Store) GetSuggestionsByRun(ctx context.Context, runID string) ([]review.StoreSuggestion, error) {
	query := `
		SELECT suggestion_id, run_id, file, line, severity, category, comment, posted
		FROM suggestions
		WHERE run_id = ?
		ORDER BY file ASC, line ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []review.StoreSuggestion
	for rows.Next() {
		var sg review.StoreSuggestion
		var posted int

		if err := rows.Scan(
			&sg.SuggestionID,
			&sg.RunID,
			&sg.File,
			&sg.Line,
			&sg.Severity,
			&sg.Category,
			&sg.Comment,
			&posted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		sg.Posted = posted == 1
		suggestions = append(suggestions, sg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}
	return suggestions, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
