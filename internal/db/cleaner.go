package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RateLimitCleaner purges database rate-limit windows that can no longer
// affect a decision.
type RateLimitCleaner struct {
	DB *sql.DB
	// Retention must be at least the longest policy window.
	Retention time.Duration
	Log       *zap.Logger
}

// Clean deletes windows that started more than Retention before now and
// returns how many were removed.
func (c *RateLimitCleaner) Clean(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-c.Retention).UnixNano()
	res, err := c.DB.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale windows: %w", err)
	}
	return res.RowsAffected()
}

// Start runs Clean every interval in a background goroutine until ctx is done.
func (c *RateLimitCleaner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := c.Clean(ctx, now)
				if err != nil {
					if ctx.Err() == nil {
						c.Log.Error("failed to clean rate limit windows", zap.Error(err))
					}
					continue
				}
				if removed > 0 {
					c.Log.Debug("cleaned rate limit windows", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
