package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/store"
)

// PostgresUsageStore implements store.UsageStatsStore using a PostgreSQL
// database. Each day's counters live in a single row keyed by the date,
// maintained with an upsert so concurrent recordings never race.
type PostgresUsageStore struct {
	db store.DBTX
}

var _ store.UsageStatsStore = (*PostgresUsageStore)(nil)

// NewPostgresUsageStore creates a new PostgresUsageStore.
func NewPostgresUsageStore(db store.DBTX) *PostgresUsageStore {
	return &PostgresUsageStore{db: db}
}

// UpsertDailyUsage increments the counters for the given day, creating
// the row if it does not exist yet. Every call counts one attempt; the
// success flag decides which outcome counter moves with it.
func (s *PostgresUsageStore) UpsertDailyUsage(ctx context.Context, day time.Time, success bool) error {
	successDelta, failureDelta := 0, 1
	if success {
		successDelta, failureDelta = 1, 0
	}

	query := `
		INSERT INTO usage_stats (day, image_count, success_count, failure_count)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (day) DO UPDATE SET
			image_count = usage_stats.image_count + 1,
			success_count = usage_stats.success_count + EXCLUDED.success_count,
			failure_count = usage_stats.failure_count + EXCLUDED.failure_count`

	_, err := s.db.ExecContext(ctx, query, dateKey(day), successDelta, failureDelta)
	if err != nil {
		return fmt.Errorf("upserting usage stats: %w", MapError(err))
	}

	return nil
}

// GetDailyUsage returns the counters for the given day, or zero counters
// when nothing has been recorded for it.
func (s *PostgresUsageStore) GetDailyUsage(ctx context.Context, day time.Time) (*domain.UsageStats, error) {
	query := `
		SELECT day, image_count, success_count, failure_count
		FROM usage_stats
		WHERE day = $1`

	var stats domain.UsageStats
	err := s.db.QueryRowContext(ctx, query, dateKey(day)).Scan(
		&stats.Day,
		&stats.ImageCount,
		&stats.SuccessCount,
		&stats.FailureCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return &domain.UsageStats{Day: day}, nil
		}
		return nil, fmt.Errorf("querying usage stats: %w", MapError(err))
	}

	return &stats, nil
}

// dateKey renders the day as a plain date string. Binding a time.Time
// against a DATE column would convert through the session timezone and
// can land on the wrong side of midnight.
func dateKey(day time.Time) string {
	return day.Format("2006-01-02")
}
