package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one completed comparison.
type Run struct {
	ID             string     `json:"id"`
	FileA          string     `json:"file_a"`
	FileB          string     `json:"file_b"`
	WindowStart    *time.Time `json:"window_start,omitempty"`
	WindowEnd      *time.Time `json:"window_end,omitempty"`
	SampleCount    int        `json:"sample_count"`
	MaxHeightDiffM float64    `json:"max_height_diff_m"`
	MinHeightDiffM float64    `json:"min_height_diff_m"`
	MaxDistance3DM float64    `json:"max_distance_3d_m"`
	DurationMS     int64      `json:"duration_ms"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RecordRun stores r, assigning an ID if it has none, and returns the ID.
func (db *DB) RecordRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `INSERT INTO comparison_runs (
			id, file_a, file_b, window_start, window_end, sample_count,
			max_height_diff_m, min_height_diff_m, max_distance_3d_m,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FileA, r.FileB, nullMillis(r.WindowStart), nullMillis(r.WindowEnd), r.SampleCount,
		r.MaxHeightDiffM, r.MinHeightDiffM, r.MaxDistance3DM,
		r.DurationMS, r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return r.ID, nil
}

// RecentRuns returns at most limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `SELECT id, file_a, file_b, window_start, window_end, sample_count,
			max_height_diff_m, min_height_diff_m, max_distance_3d_m, duration_ms, created_at
		FROM comparison_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r          Run
			start, end sql.NullInt64
			created    int64
		)
		if err := rows.Scan(&r.ID, &r.FileA, &r.FileB, &start, &end, &r.SampleCount,
			&r.MaxHeightDiffM, &r.MinHeightDiffM, &r.MaxDistance3DM, &r.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.WindowStart = fromNullMillis(start)
		r.WindowEnd = fromNullMillis(end)
		r.CreatedAt = time.UnixMilli(created).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
