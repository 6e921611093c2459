package antigaming

import (
	"context"
	"time"
)

// Limit is the rate-limit policy: at most Max accepted submissions while
// the last one is younger than Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Usage is the recorded state for one client key.
type Usage struct {
	Count int
	Last  time.Time
}

// Blocks reports whether another submission at now would exceed limit.
// Once the window since the last submission has elapsed the count resets.
func (u Usage) Blocks(now time.Time, limit Limit) bool {
	if u.Last.IsZero() || now.Sub(u.Last) >= limit.Window {
		return false
	}
	return u.Count >= limit.Max
}

// next returns the usage after accepting a submission at now.
func (u Usage) next(now time.Time, limit Limit) Usage {
	if u.Last.IsZero() || now.Sub(u.Last) >= limit.Window {
		return Usage{Count: 1, Last: now}
	}
	return Usage{Count: u.Count + 1, Last: now}
}

// Bucket is one counter a submission is charged against.
type Bucket struct {
	Key   string
	Limit Limit
}

// Store keeps per-client submission counters shared by every request.
type Store interface {
	// Peek reads the usage for key without changing it.
	Peek(ctx context.Context, key string) (Usage, error)
	// Reserve checks every bucket and, only when none blocks, records a
	// submission at now in all of them. Check and increment happen as one
	// atomic step. The returned usages are in bucket order.
	Reserve(ctx context.Context, now time.Time, buckets ...Bucket) ([]Usage, bool, error)
}
