package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/spring-team-7/table-now-sub000/pkg/redis"
)

// releaseScript deletes the lock key only when it still stores the
// caller's owner token, so an expired lease reacquired by someone else
// is never released by mistake.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// defaultPollInterval is how often a waiting claimant re-attempts SET NX.
const defaultPollInterval = 50 * time.Millisecond

// RedisProvider implements Provider on a shared Redis instance using
// SET NX PX with a per-acquisition owner token. The token returned by
// TryAcquire is the sole record of ownership, so concurrent
// acquisitions of the same name never see each other's state.
type RedisProvider struct {
	client       *pkgredis.Client
	pollInterval time.Duration
}

// NewRedisProvider creates a Redis-backed lock provider
func NewRedisProvider(client *pkgredis.Client) *RedisProvider {
	return &RedisProvider{
		client:       client,
		pollInterval: defaultPollInterval,
	}
}

// TryAcquire attempts to take the named lock, polling until waitTime
// elapses. Context cancellation while waiting counts as a failed
// acquisition.
func (p *RedisProvider) TryAcquire(ctx context.Context, name string, waitTime, leaseTime time.Duration) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(waitTime)

	for {
		ok, err := p.client.SetNX(ctx, name, token, leaseTime).Result()
		if err != nil {
			return "", fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			return token, nil
		}

		if time.Now().After(deadline) {
			return "", nil
		}

		select {
		case <-ctx.Done():
			return "", nil
		case <-time.After(p.pollInterval):
		}
	}
}

// Release releases the acquisition identified by token. The
// compare-and-delete script guarantees that a stale token (lease
// expired, lock reacquired by another claimant) never deletes the new
// holder's lock.
func (p *RedisProvider) Release(ctx context.Context, name, token string) error {
	if token == "" {
		return nil
	}

	if err := p.client.Eval(ctx, releaseScript, []string{name}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

var _ Provider = (*RedisProvider)(nil)
