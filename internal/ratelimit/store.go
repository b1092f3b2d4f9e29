// Package ratelimit guards the registration endpoints against thundering
// herds around registration-open moments. Limits are per user; the admission
// engine's own serialization handles correctness, this only sheds load.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Reset(ctx context.Context, key string) error
}
