package store

import (
	"context"
	"time"

	"github.com/stickerforge/sticker-api/internal/domain"
)

// UsageStatsStore defines the persistence contract for daily generation
// usage counters. One row exists per calendar day.
type UsageStatsStore interface {
	// UpsertDailyUsage creates the counter row for day if absent, then
	// increments the attempted count and exactly one of the success or
	// failure counts. The day value should already be truncated to
	// midnight; implementations store only the date part.
	UpsertDailyUsage(ctx context.Context, day time.Time, success bool) error

	// GetDailyUsage fetches the counter row for day. Returns ErrNotFound
	// if no generations were recorded that day.
	GetDailyUsage(ctx context.Context, day time.Time) (*domain.UsageStats, error)
}
