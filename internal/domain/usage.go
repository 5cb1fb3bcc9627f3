package domain

import "time"

// UsageStats is the daily generation counter: one row per calendar day at
// local-midnight granularity. ImageCount counts every attempted
// generation; exactly one of SuccessCount or FailureCount is incremented
// alongside it. Counters never decrease.
type UsageStats struct {
	Day          time.Time `json:"day"`
	ImageCount   int64     `json:"image_count"`
	SuccessCount int64     `json:"success_count"`
	FailureCount int64     `json:"failure_count"`
}
