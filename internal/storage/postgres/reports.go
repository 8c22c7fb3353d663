package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportRun is one row of pipeline-run history.
type ImportRun struct {
	ImportID     uuid.UUID  `json:"import_id"`
	FileName     string     `json:"file_name"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	RecordsCount *int64     `json:"records_count,omitempty"`
}

// SeverityCount is the number of quality issues at one severity level.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

// RecentImports returns the latest pipeline runs, newest first.
func (db *DB) RecentImports(ctx context.Context, limit int) ([]ImportRun, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT import_id, file_name, processing_status,
		       processing_started_at, processing_completed_at, records_count
		FROM raw_imports
		ORDER BY processing_started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(&run.ImportID, &run.FileName, &run.Status,
			&run.StartedAt, &run.CompletedAt, &run.RecordsCount); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// IssueBreakdown returns quality-issue counts by severity for one run,
// ordered most severe first.
func (db *DB) IssueBreakdown(ctx context.Context, importID uuid.UUID) ([]SeverityCount, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT severity, COUNT(*)::bigint
		FROM data_quality_issues
		WHERE import_id = $1
		GROUP BY severity
		ORDER BY CASE severity
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3
		END`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeverityCount
	for rows.Next() {
		var sc SeverityCount
		if err := rows.Scan(&sc.Severity, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
