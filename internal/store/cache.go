package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CacheRow struct {
	Key       string
	Query     string
	Location  string
	Results   string // JSON array of businesses
	Hits      int
	CreatedAt time.Time
}

func GetCacheEntry(ctx context.Context, db *sql.DB, key string) (CacheRow, bool, error) {
	var row CacheRow
	var created string
	err := db.QueryRowContext(ctx, `
SELECT key, query, location, results, hits, created_at
FROM cache_entries WHERE key = ? LIMIT 1;`, key).Scan(
		&row.Key, &row.Query, &row.Location, &row.Results, &row.Hits, &created)
	if err == sql.ErrNoRows {
		return CacheRow{}, false, nil
	}
	if err != nil {
		return CacheRow{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	row.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return row, true, nil
}

// PutCacheEntry writes a snapshot, last-write-wins per key.
func PutCacheEntry(ctx context.Context, db *sql.DB, key, query, location, resultsJSON string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO cache_entries(key, query, location, results, hits, created_at)
VALUES(?,?,?,?,0,?)
ON CONFLICT(key) DO UPDATE SET
  results = excluded.results,
  created_at = excluded.created_at;
`, key, query, location, resultsJSON, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func BumpCacheHits(ctx context.Context, db *sql.DB, key string) {
	_, _ = db.ExecContext(ctx, `UPDATE cache_entries SET hits = hits + 1 WHERE key = ?;`, key)
}

func DeleteCacheBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
DELETE FROM cache_entries WHERE created_at < ?;`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// BumpQueryCount tracks repeat frequency for the popularity heuristic and
// returns the updated count.
func BumpQueryCount(ctx context.Context, db *sql.DB, key, query, location string) (int, error) {
	_, err := db.ExecContext(ctx, `
INSERT INTO query_counts(key, query, location, count)
VALUES(?,?,?,1)
ON CONFLICT(key) DO UPDATE SET count = count + 1;
`, key, query, location)
	if err != nil {
		return 0, fmt.Errorf("bump query count: %w", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT count FROM query_counts WHERE key = ?;`, key).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func QueryCount(ctx context.Context, db *sql.DB, key string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT count FROM query_counts WHERE key = ? LIMIT 1;`, key).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

type PopularQuery struct {
	Query    string
	Location string
	Count    int
}

func TopQueries(ctx context.Context, db *sql.DB, limit int) ([]PopularQuery, error) {
	rows, err := db.QueryContext(ctx, `
SELECT query, location, count FROM query_counts
ORDER BY count DESC, key ASC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("top queries: %w", err)
	}
	defer rows.Close()

	var out []PopularQuery
	for rows.Next() {
		var q PopularQuery
		if err := rows.Scan(&q.Query, &q.Location, &q.Count); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CacheStats supports the health endpoint's hit-rate report.
type CacheStats struct {
	Entries   int `json:"entries"`
	TotalHits int `json:"totalHits"`
}

func GetCacheStats(ctx context.Context, db *sql.DB) (CacheStats, error) {
	var s CacheStats
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM cache_entries;`).Scan(&s.Entries, &s.TotalHits)
	if err != nil {
		return CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return s, nil
}
