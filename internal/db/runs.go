package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one batch invocation.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Mode       string    `json:"mode"`
	InputDir   string    `json:"input_dir"`
	Selection  string    `json:"selection"`
	ParamsTag  string    `json:"params_tag"`
	FPS        int       `json:"fps"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
}

// OutputRecord is the outcome of one source within a run.
type OutputRecord struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	OutputPath string        `json:"output_path,omitempty"`
	Frames     int           `json:"frames"`
	Clusters   int           `json:"clusters"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// RecordRun inserts or replaces a run row.
func (db *DB) RecordRun(ctx context.Context, r RunRecord) error {
	var finished sql.NullInt64
	if !r.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: r.FinishedAt.UnixNano(), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			run_id, started_at, finished_at, mode, input_dir, selection,
			params_tag, fps, attempted, succeeded
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixNano(), finished, r.Mode, r.InputDir, r.Selection,
		r.ParamsTag, r.FPS, r.Attempted, r.Succeeded,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// RecordOutput inserts or replaces an output row.
func (db *DB) RecordOutput(ctx context.Context, o OutputRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_outputs (
			run_id, source, output_path, frames, clusters, status, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.Source, nullString(o.OutputPath), o.Frames, o.Clusters, o.Status,
		nullString(o.Error), o.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record output %s/%s: %w", o.RunID, o.Source, err)
	}
	return nil
}

// Runs returns the most recent runs first, at most limit rows (all if
// limit <= 0).
func (db *DB) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT run_id, started_at, finished_at, mode, input_dir, selection,
		params_tag, fps, attempted, succeeded
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Mode, &r.InputDir, &r.Selection,
			&r.ParamsTag, &r.FPS, &r.Attempted, &r.Succeeded); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outputs returns the outputs of a run ordered by source.
func (db *DB) Outputs(ctx context.Context, runID string) ([]OutputRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, source, COALESCE(output_path, ''), frames, clusters, status,
			COALESCE(error, ''), duration_ms
		FROM run_outputs WHERE run_id = ? ORDER BY source`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	var out []OutputRecord
	for rows.Next() {
		var (
			o  OutputRecord
			ms int64
		)
		if err := rows.Scan(&o.RunID, &o.Source, &o.OutputPath, &o.Frames, &o.Clusters,
			&o.Status, &o.Error, &ms); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
