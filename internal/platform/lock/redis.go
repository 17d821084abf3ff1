package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key prefix for leases.
const leaseKeyPrefix = "lease:"

// defaultRetryInterval is how often a contended Acquire re-attempts. Kept
// well under the acquisition timeout so the timeout is respected closely.
const defaultRetryInterval = 50 * time.Millisecond

// releaseScript deletes the lease only if it still carries this holder's
// marker. A non-holder or an expired-and-reclaimed lease sees a different
// value and the call becomes a no-op.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker on a shared Redis instance using
// SET NX PX acquisition and compare-and-delete release.
type RedisLocker struct {
	client redis.Cmdable
	holder string
	retry  time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithHolder overrides the holder identity (defaults to hostname:pid).
func WithHolder(holder string) RedisOption {
	return func(l *RedisLocker) { l.holder = holder }
}

// WithRetryInterval overrides the contention poll interval.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.retry = d }
}

// NewRedis constructs a Redis-backed locker.
func NewRedis(client redis.Cmdable, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		holder: DefaultHolder(),
		retry:  defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*Lease, error) {
	if resource == "" {
		return nil, fmt.Errorf("lock resource name is required")
	}

	lease := &Lease{
		Resource: resource,
		Holder:   l.holder,
		token:    uuid.NewString(),
	}
	key := leaseKeyPrefix + resource
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.client.SetNX(ctx, key, lease.value(), ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lease %q: %w", resource, err)
		}
		if ok {
			lease.ExpiresAt = time.Now().Add(ttl)
			return lease, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("acquire lease %q: %w", resource, ErrTimeout)
		}
		wait := l.retry
		if wait > remaining {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	key := leaseKeyPrefix + lease.Resource
	if err := releaseScript.Run(ctx, l.client, []string{key}, lease.value()).Err(); err != nil {
		return fmt.Errorf("release lease %q: %w", lease.Resource, err)
	}
	return nil
}
