// Package lock provides a distributed mutual-exclusion lock with bounded
// wait and lease-based auto-expiry, plus a decorator that wraps an
// operation in acquire/release.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned when the lock could not be acquired within
// the wait time, or when waiting was interrupted by context cancellation.
var ErrNotAcquired = errors.New("lock not acquired")

// Provider acquires and releases named distributed locks.
type Provider interface {
	// TryAcquire attempts to take the named lock, waiting up to waitTime.
	// On success it returns an opaque token identifying this acquisition;
	// an empty token means the lock was not acquired before waitTime
	// elapsed or waiting was interrupted by context cancellation. An
	// acquired lock expires automatically after leaseTime so that a
	// crashed holder cannot block other claimants forever.
	TryAcquire(ctx context.Context, name string, waitTime, leaseTime time.Duration) (string, error)

	// Release releases the acquisition identified by token. Releasing a
	// lock the token no longer holds (the lease expired and another
	// claimant reacquired it) is a no-op, never an error.
	Release(ctx context.Context, name, token string) error
}

// WithLock runs fn while holding the named lock.
//
// The lock name should be derived from the operation's arguments by the
// caller, e.g. "promo-event-join:" + eventID. If the lock cannot be
// acquired within waitTime the operation never runs and ErrNotAcquired
// is returned. The lock is released on every exit path; whatever fn
// returns is propagated unchanged.
func WithLock(ctx context.Context, provider Provider, name string, waitTime, leaseTime time.Duration, fn func(ctx context.Context) error) error {
	token, err := provider.TryAcquire(ctx, name, waitTime, leaseTime)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if token == "" {
		return fmt.Errorf("lock %s: %w", name, ErrNotAcquired)
	}

	defer func() {
		// Release must not mask fn's result; a failed release only means
		// the lease will expire on its own.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = provider.Release(releaseCtx, name, token)
	}()

	return fn(ctx)
}
