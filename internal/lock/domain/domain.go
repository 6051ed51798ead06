package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLockTimeout = errors.New("lock_timeout")
	ErrEmptyKey    = errors.New("lock_key_empty")
	ErrNotHeld     = errors.New("lock_not_held")
)

// Locker hands out named, mutually exclusive leases. Acquire blocks for at
// most wait and returns ErrLockTimeout when the key stays busy. Locks are not
// reentrant: acquiring a key already held by the caller blocks like any
// other contender.
type Locker interface {
	Acquire(ctx context.Context, key string, wait time.Duration) (Lease, error)
}

// Lease is a held lock. Release is safe to call once; later calls return
// ErrNotHeld.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}
