// Package lock provides named, expiring mutual-exclusion leases shared
// across processes. The Redis implementation is the production backend; the
// memory implementation mirrors its semantics for tests and store-less runs.
package lock

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrTimeout is returned when a lease could not be acquired within the
// caller's timeout. Callers must be able to tell this apart from "not found"
// or an empty result, so it is never swallowed downstream.
var ErrTimeout = errors.New("lock acquire timed out")

// Lease is a time-bounded grant of exclusive access to a named resource.
// The token makes each grant unique so a holder can never release a lease
// that was reclaimed and re-acquired by someone else after TTL expiry.
type Lease struct {
	Resource  string
	Holder    string
	ExpiresAt time.Time

	token string
}

// value is the owner marker stored in the backing store.
func (l *Lease) value() string {
	return l.Holder + ":" + l.token
}

// Locker acquires and releases leases. At most one live lease exists per
// resource at any instant across all processes sharing the backing store.
//
// Acquire blocks by polling until success or timeout elapses, at which point
// it fails with ErrTimeout. Release is safe to call on an expired or already
// released lease; it never removes a live lease held by someone else.
type Locker interface {
	Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*Lease, error)
	Release(ctx context.Context, lease *Lease) error
}

// DefaultHolder identifies this process as a lease holder.
func DefaultHolder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + ":" + strconv.Itoa(os.Getpid())
}

// Guard owns an ordered set of leases acquired by AcquireAll.
type Guard struct {
	locker Locker
	leases []*Lease
}

// AcquireAll takes leases on resources in the given order, which callers must
// keep fixed system-wide so lock-ordering deadlocks cannot occur. On any
// failure the leases taken so far are released and the error is returned.
func AcquireAll(ctx context.Context, locker Locker, resources []string, ttl, timeout time.Duration) (*Guard, error) {
	g := &Guard{locker: locker}
	for _, resource := range resources {
		lease, err := locker.Acquire(ctx, resource, ttl, timeout)
		if err != nil {
			g.Release(ctx)
			return nil, err
		}
		g.leases = append(g.leases, lease)
	}
	return g, nil
}

// Release releases the guarded leases in reverse acquisition order. It is
// idempotent and must run on every exit path of the guarded section.
func (g *Guard) Release(ctx context.Context) {
	for i := len(g.leases) - 1; i >= 0; i-- {
		_ = g.locker.Release(ctx, g.leases[i])
	}
	g.leases = nil
}
