// Package usage accounts completed generations in daily counters. Each
// task outcome is recorded exactly once by its caller; recording is
// best-effort and never fails the operation being accounted.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stickerforge/sticker-api/internal/store"
)

// Recorder updates the daily usage counters. Days are computed at
// local-midnight granularity in the process's time zone.
type Recorder struct {
	store  store.UsageStatsStore
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(statsStore store.UsageStatsStore, logger *slog.Logger) (*Recorder, error) {
	if statsStore == nil {
		return nil, errors.New("usage stats store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Recorder{
		store:  statsStore,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Record counts one generation outcome against today's counter. Store
// failures are logged and swallowed: accounting must never fail the
// generation whose outcome it records.
func (r *Recorder) Record(ctx context.Context, success bool) {
	day := Midnight(r.now())

	if err := r.store.UpsertDailyUsage(ctx, day, success); err != nil {
		r.logger.Error("failed to record usage",
			"day", day.Format("2006-01-02"),
			"success", success,
			"error", err)
	}
}

// Midnight truncates t to local midnight of its day.
func Midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
