package core

// limiter.go bounds how many sessions the HTTP front end runs at once.
//
// Each session holds its own connection for its whole lifetime, so the limit
// is also a cap on connections taken from the pool. Requests that cannot get
// a slot within maxWait fail with ErrTooManySessions.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManySessions is returned when all session slots stay occupied for the
// whole wait period. Clients should retry after a short delay.
var ErrTooManySessions = errors.New("too many concurrent sessions, please try again later")

// DefaultMaxConcurrentSessions is the default limit for parallel sessions.
const DefaultMaxConcurrentSessions = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// SessionLimiter controls concurrent session execution.
type SessionLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewSessionLimiter creates a limiter that allows at most maxConcurrent
// simultaneous sessions.
func NewSessionLimiter(maxConcurrent int, maxWait time.Duration) *SessionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSessions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &SessionLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a session slot. The caller must call Release when the
// session completes.
func (l *SessionLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish the caller giving up from our own wait expiring.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManySessions
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking.
func (l *SessionLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *SessionLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of running sessions.
func (l *SessionLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until all active sessions complete or ctx is done.
// Used for graceful shutdown.
func (l *SessionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SessionLimiterStatus is a snapshot of the limiter's state.
type SessionLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health reporting.
func (l *SessionLimiter) Status() SessionLimiterStatus {
	active := l.ActiveCount()
	return SessionLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
