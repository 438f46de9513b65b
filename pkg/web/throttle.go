/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: throttle.go
Description: Minimum inter-request interval enforcement. Wraps a single-token rate limiter so
every request waits until the configured interval has elapsed since the previous one.
*/

package web

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestThrottle enforces a minimum interval between requests.
// The limiter reads time.Now, whose monotonic component makes waits immune to
// wall-clock adjustments.
type RequestThrottle struct {
	mu       sync.RWMutex
	interval time.Duration
	limiter  *rate.Limiter
}

// NewRequestThrottle creates a throttle; an interval of 0 means unthrottled
func NewRequestThrottle(interval time.Duration) *RequestThrottle {
	if interval < 0 {
		interval = 0
	}
	return &RequestThrottle{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Acquire blocks until the minimum interval has elapsed since the previous
// Acquire returned. It returns early with ctx.Err() on cancellation.
func (t *RequestThrottle) Acquire(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// MinimumRequestInterval returns the configured interval
func (t *RequestThrottle) MinimumRequestInterval() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.interval
}

// SetMinimumRequestInterval changes the interval for subsequent requests
func (t *RequestThrottle) SetMinimumRequestInterval(interval time.Duration) {
	if interval < 0 {
		interval = 0
	}
	t.mu.Lock()
	t.interval = interval
	t.mu.Unlock()
	t.limiter.SetLimit(rate.Every(interval))
}
