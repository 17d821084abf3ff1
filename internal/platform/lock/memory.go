package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRetryInterval is deliberately short: in-process contention resolves
// fast and tests rely on tight timeout behavior.
const memoryRetryInterval = 2 * time.Millisecond

type memoryLease struct {
	value     string
	expiresAt time.Time
}

// memoryState is the shared lease table. Sibling lockers point at the same
// state so tests can simulate multiple processes contending on one store.
type memoryState struct {
	mu     sync.Mutex
	leases map[string]memoryLease
}

// MemoryLocker implements Locker for a single process. It mirrors the Redis
// semantics (TTL reclaim, holder-checked release) so unit tests and
// store-less development runs exercise the same contract.
type MemoryLocker struct {
	state  *memoryState
	holder string
	retry  time.Duration
}

// MemoryOption configures a MemoryLocker.
type MemoryOption func(*MemoryLocker)

// WithMemoryHolder overrides the holder identity (defaults to hostname:pid).
func WithMemoryHolder(holder string) MemoryOption {
	return func(l *MemoryLocker) { l.holder = holder }
}

// NewMemory constructs an in-process locker.
func NewMemory(opts ...MemoryOption) *MemoryLocker {
	l := &MemoryLocker{
		state:  &memoryState{leases: make(map[string]memoryLease)},
		holder: DefaultHolder(),
		retry:  memoryRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sibling returns a locker that shares this locker's lease table under a
// different holder identity, standing in for another process.
func (l *MemoryLocker) Sibling(holder string) *MemoryLocker {
	return &MemoryLocker{state: l.state, holder: holder, retry: l.retry}
}

func (l *MemoryLocker) Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*Lease, error) {
	if resource == "" {
		return nil, fmt.Errorf("lock resource name is required")
	}

	lease := &Lease{
		Resource: resource,
		Holder:   l.holder,
		token:    uuid.NewString(),
	}
	deadline := time.Now().Add(timeout)

	for {
		if l.tryAcquire(resource, lease, ttl) {
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

func (l *MemoryLocker) tryAcquire(resource string, lease *Lease, ttl time.Duration) bool {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	now := time.Now()
	if current, ok := l.state.leases[resource]; ok && now.Before(current.expiresAt) {
		return false
	}
	lease.ExpiresAt = now.Add(ttl)
	l.state.leases[resource] = memoryLease{value: lease.value(), expiresAt: lease.ExpiresAt}
	return true
}

func (l *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if current, ok := l.state.leases[lease.Resource]; ok && current.value == lease.value() {
		delete(l.state.leases, lease.Resource)
	}
	return nil
}
