package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// GetCachedResponse returns the body stored under key if it was fetched
// within maxAge.
func (db *DB) GetCachedResponse(key string, maxAge time.Duration) ([]byte, bool, error) {
	query := `
		SELECT body FROM response_cache
		WHERE cache_key = ? AND fetched_at >= ?
	`

	cutoff := formatTime(db.now().Add(-maxAge))

	var body []byte
	err := db.QueryRowContext(context.Background(), query, key, cutoff).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}

	return body, true, nil
}

// PutCachedResponse stores body under key, replacing any previous entry.
func (db *DB) PutCachedResponse(key string, body []byte) error {
	query := `
		INSERT INTO response_cache (cache_key, body, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`

	if _, err := db.ExecContext(context.Background(), query, key, body, formatTime(db.now())); err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

// ClearCache removes every cached response.
func (db *DB) ClearCache() error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM response_cache"); err != nil {
		return fmt.Errorf("failed to clear response cache: %w", err)
	}
	return nil
}

// PruneExpired deletes cached responses older than cacheTTL and call log rows
// older than CallRetention. It returns the number of rows removed.
func (db *DB) PruneExpired(cacheTTL time.Duration) (int64, error) {
	now := db.now()

	cacheRes, err := db.ExecContext(context.Background(),
		"DELETE FROM response_cache WHERE fetched_at < ?",
		formatTime(now.Add(-cacheTTL)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune response cache: %w", err)
	}

	callRes, err := db.ExecContext(context.Background(),
		"DELETE FROM upstream_calls WHERE timestamp < ?",
		formatTime(now.Add(-CallRetention)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune upstream calls: %w", err)
	}

	cacheRows, _ := cacheRes.RowsAffected()
	callRows, _ := callRes.RowsAffected()
	return cacheRows + callRows, nil
}

// InsertUpstreamCall logs an upstream request.
func (db *DB) InsertUpstreamCall(call *models.UpstreamCall) error {
	query := `
		INSERT INTO upstream_calls (
			timestamp, endpoint, status_code, duration_ms, cache_hit, error
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	timestamp := call.Timestamp
	if timestamp.IsZero() {
		timestamp = db.now()
	}

	result, err := db.ExecContext(context.Background(), query,
		formatTime(timestamp),
		call.Endpoint,
		call.StatusCode,
		call.DurationMs,
		call.CacheHit,
		nullString(call.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upstream call: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		call.ID = id
	}

	return nil
}

// RecentUpstreamCalls returns the most recent upstream calls, newest first.
func (db *DB) RecentUpstreamCalls(limit int) ([]models.UpstreamCall, error) {
	query := `
		SELECT id, timestamp, endpoint, status_code, duration_ms, cache_hit, error
		FROM upstream_calls
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upstream calls: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var calls []models.UpstreamCall
	for rows.Next() {
		var call models.UpstreamCall
		var ts string
		var errStr sql.NullString

		err := rows.Scan(
			&call.ID,
			&ts,
			&call.Endpoint,
			&call.StatusCode,
			&call.DurationMs,
			&call.CacheHit,
			&errStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upstream call: %w", err)
		}

		call.Timestamp, _ = time.ParseInLocation(timeLayout, ts, time.UTC)
		call.Error = errStr.String
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// UpstreamCallStats summarizes the call log.
type UpstreamCallStats struct {
	Total     int
	CacheHits int
	Errors    int
	AvgMs     float64
}

// GetUpstreamCallStats returns totals over the retained call log.
func (db *DB) GetUpstreamCallStats() (*UpstreamCallStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(cache_hit), 0),
			COALESCE(SUM(CASE WHEN status_code >= 400 OR error IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN cache_hit = 0 THEN duration_ms END), 0)
		FROM upstream_calls
	`

	var stats UpstreamCallStats
	err := db.QueryRowContext(context.Background(), query).Scan(
		&stats.Total,
		&stats.CacheHits,
		&stats.Errors,
		&stats.AvgMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query upstream call stats: %w", err)
	}

	return &stats, nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
