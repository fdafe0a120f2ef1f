package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const hitQuery = `
	INSERT INTO rate_limits (bucket, window_start, hits)
	VALUES ($1, $2, 1)
	ON CONFLICT (bucket) DO UPDATE SET
		hits = CASE WHEN rate_limits.window_start <= $3 THEN 1 ELSE rate_limits.hits + 1 END,
		window_start = CASE WHEN rate_limits.window_start <= $3 THEN excluded.window_start ELSE rate_limits.window_start END
	RETURNING hits, window_start`

// SQLStore keeps counters in the rate_limits table so that every instance
// sharing the database enforces one quota. Each hit is a single UPSERT, which
// the database serializes per row.
type SQLStore struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewSQLStore creates a SQLStore over db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// Hit implements Store.
func (s *SQLStore) Hit(ctx context.Context, key string, d time.Duration, now time.Time) (int, time.Time, error) {
	var (
		hits  int
		start int64
	)
	err := s.DB.QueryRowContext(ctx, hitQuery, key, now.UnixNano(), now.Add(-d).UnixNano()).Scan(&hits, &start)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit hit: %w", err)
	}
	return hits, time.Unix(0, start), nil
}
