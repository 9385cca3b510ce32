package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one completed relabel run.
type RunRecord struct {
	RunID             string
	StartedAt         time.Time
	Duration          time.Duration
	InputPath         string
	LabelPath         string
	OutputPath        string
	Strategy          string
	Labels            int64
	PointsRead        int64
	PointsLabeled     int64
	AlreadyClassified int64
	Clamped           int64
	Unmapped          int64
	BytesWritten      int64
	ToolVersion       string
	// Classes maps an output classification to its point count. Zero
	// counts are not stored.
	Classes map[uint8]int64
}

// RecordRun stores r and its class histogram in one transaction.
func (db *DB) RecordRun(r *RunRecord) error {
	if r.RunID == "" {
		return fmt.Errorf("run record has no id")
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO relabel_runs (
			run_id, started_unix_nanos, duration_ms, input_path, label_path, output_path,
			strategy, labels, points_read, points_labeled, already_classified,
			clamped, unmapped, bytes_written, tool_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixNano(), r.Duration.Milliseconds(), r.InputPath, r.LabelPath, r.OutputPath,
		r.Strategy, r.Labels, r.PointsRead, r.PointsLabeled, r.AlreadyClassified,
		r.Clamped, r.Unmapped, r.BytesWritten, r.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.RunID, err)
	}

	for class, count := range r.Classes {
		if count == 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO relabel_run_classes (run_id, classification, point_count) VALUES (?, ?, ?)`,
			r.RunID, int(class), count,
		); err != nil {
			return fmt.Errorf("failed to insert class %d of run %s: %w", class, r.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = `run_id, started_unix_nanos, duration_ms, input_path, label_path, output_path,
	strategy, labels, points_read, points_labeled, already_classified,
	clamped, unmapped, bytes_written, tool_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		r          RunRecord
		startNanos int64
		durationMs int64
	)
	if err := row.Scan(
		&r.RunID, &startNanos, &durationMs, &r.InputPath, &r.LabelPath, &r.OutputPath,
		&r.Strategy, &r.Labels, &r.PointsRead, &r.PointsLabeled, &r.AlreadyClassified,
		&r.Clamped, &r.Unmapped, &r.BytesWritten, &r.ToolVersion,
	); err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, startNanos).UTC()
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}

// GetRun returns the run with the given id, including its class histogram.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM relabel_runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	if r.Classes, err = db.runClasses(runID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first, without their class
// histograms. A limit of 0 or less returns every run.
func (db *DB) ListRuns(limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM relabel_runs ORDER BY started_unix_nanos DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (db *DB) runClasses(runID string) (map[uint8]int64, error) {
	rows, err := db.Query(
		`SELECT classification, point_count FROM relabel_run_classes WHERE run_id = ? ORDER BY classification`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes of run %s: %w", runID, err)
	}
	defer rows.Close()

	classes := make(map[uint8]int64)
	for rows.Next() {
		var class int
		var count int64
		if err := rows.Scan(&class, &count); err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		classes[uint8(class)] = count
	}
	return classes, rows.Err()
}
