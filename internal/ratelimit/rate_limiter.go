// Package ratelimit implements a leaky-bucket order rate limiter: at most
// N order actions are admitted in any trailing one-second window.
package ratelimit

import (
	"isolex/internal/common"
)

const oneSecondNs = int64(1_000_000_000)

// OrderRateLimiter admits at most capacity actions per trailing second. It
// stores the timestamps of the last `capacity` admitted actions in a ring
// buffer and admits a new one only once the oldest recorded timestamp has
// aged out of the window, the same leaky-bucket shape the original
// simulator uses for per-account order throttling.
type OrderRateLimiter struct {
	timestamps []common.TimestampNs
	capacity   int
	next       int
	filled     int
}

func New(capacity int) *OrderRateLimiter {
	return &OrderRateLimiter{
		timestamps: make([]common.TimestampNs, capacity),
		capacity:   capacity,
	}
}

// Acquire admits an action at time now, or returns ErrRateLimitExceeded if
// the bucket has no room left in the trailing one-second window.
func (r *OrderRateLimiter) Acquire(now common.TimestampNs) error {
	if r.capacity <= 0 {
		return nil
	}
	if r.filled < r.capacity {
		r.record(now)
		return nil
	}
	oldest := r.timestamps[r.next]
	if int64(now)-int64(oldest) < oneSecondNs {
		return common.ErrRateLimitExceeded
	}
	r.record(now)
	return nil
}

func (r *OrderRateLimiter) record(now common.TimestampNs) {
	r.timestamps[r.next] = now
	r.next = (r.next + 1) % r.capacity
	if r.filled < r.capacity {
		r.filled++
	}
}
