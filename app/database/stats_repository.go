package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
)

// SQLStatsRepository records aggregation cycles and per-source health.
type SQLStatsRepository struct {
	db *DB
}

func NewStatsRepository(db *DB) *SQLStatsRepository {
	return &SQLStatsRepository{db: db}
}

const upsertSourceStats = `
	INSERT INTO source_stats (
		url, title, attempts, failures, consecutive_failures,
		last_status, last_error, last_http_status, last_candidates,
		last_duration_ms, last_fetched_at, last_success_at
	) VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (url) DO UPDATE SET
		title = CASE WHEN excluded.title != '' THEN excluded.title ELSE source_stats.title END,
		attempts = source_stats.attempts + 1,
		failures = source_stats.failures + excluded.failures,
		consecutive_failures = CASE WHEN excluded.failures > 0 THEN source_stats.consecutive_failures + 1 ELSE 0 END,
		last_status = excluded.last_status,
		last_error = excluded.last_error,
		last_http_status = excluded.last_http_status,
		last_candidates = excluded.last_candidates,
		last_duration_ms = excluded.last_duration_ms,
		last_fetched_at = excluded.last_fetched_at,
		last_success_at = COALESCE(excluded.last_success_at, source_stats.last_success_at)
`

// RecordCycle stores the cycle summary and folds every source report into
// that source's running stats, in one transaction.
func (r *SQLStatsRepository) RecordCycle(ctx context.Context, result *aggregator.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fetchedAt := result.GeneratedAt.Unix()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles (id, generated_at, sources, failed_sources, items, trending, breaking)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.CycleID, fetchedAt, len(result.Sources), result.FailedSources(), result.Count,
		len(result.Sections[aggregator.SectionTrending]), len(result.Sections[aggregator.SectionBreaking]))
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	for _, report := range result.Sources {
		failures := 0
		var lastSuccess sql.NullInt64
		if report.OK() {
			lastSuccess = sql.NullInt64{Int64: fetchedAt, Valid: true}
		} else {
			failures = 1
		}

		_, err = tx.ExecContext(ctx, upsertSourceStats,
			report.URL, report.Title, failures, failures,
			report.Status, report.Error, report.HTTPStatus, report.Candidates,
			report.DurationMs, fetchedAt, lastSuccess)
		if err != nil {
			return fmt.Errorf("failed to update source stats for %s: %w", report.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cycle: %w", err)
	}

	return nil
}

func (r *SQLStatsRepository) GetRecentCycles(ctx context.Context, limit int) ([]Cycle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, generated_at, sources, failed_sources, items, trending, breaking
		FROM cycles
		ORDER BY generated_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		var generatedAt int64
		if err := rows.Scan(&c.ID, &generatedAt, &c.Sources, &c.FailedSources, &c.Items, &c.Trending, &c.Breaking); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		c.GeneratedAt = time.Unix(generatedAt, 0).UTC()
		cycles = append(cycles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}

	return cycles, nil
}

const selectSourceStats = `
	SELECT url, title, attempts, failures, consecutive_failures,
		last_status, last_error, last_http_status, last_candidates,
		last_duration_ms, last_fetched_at, last_success_at
	FROM source_stats
`

func (r *SQLStatsRepository) GetSourceStats(ctx context.Context) ([]SourceStats, error) {
	rows, err := r.db.QueryContext(ctx, selectSourceStats+` ORDER BY consecutive_failures DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source stats: %w", err)
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		s, err := scanSourceStats(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source stats: %w", err)
	}

	return stats, nil
}

// GetSource returns nil, nil when the source has never been fetched.
func (r *SQLStatsRepository) GetSource(ctx context.Context, url string) (*SourceStats, error) {
	row := r.db.QueryRowContext(ctx, selectSourceStats+` WHERE url = ?`, url)

	s, err := scanSourceStats(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSourceStats(row scanner) (*SourceStats, error) {
	var s SourceStats
	var fetchedAt int64
	var successAt sql.NullInt64

	err := row.Scan(&s.URL, &s.Title, &s.Attempts, &s.Failures, &s.ConsecutiveFailures,
		&s.LastStatus, &s.LastError, &s.LastHTTPStatus, &s.LastCandidates,
		&s.LastDurationMs, &fetchedAt, &successAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan source stats: %w", err)
	}

	s.LastFetchedAt = time.Unix(fetchedAt, 0).UTC()
	if successAt.Valid {
		t := time.Unix(successAt.Int64, 0).UTC()
		s.LastSuccessAt = &t
	}

	return &s, nil
}
