// Package memory implements an in-process keyed lock for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/vindisync/internal/lock/domain"
)

type entry struct {
	sem  chan struct{}
	refs int
}

type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

func (l *Locker) Acquire(ctx context.Context, key string, wait time.Duration) (domain.Lease, error) {
	if key == "" {
		return nil, domain.ErrEmptyKey
	}

	e := l.ref(key)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return &lease{locker: l, key: key, entry: e}, nil
	case <-timer.C:
		l.unref(key, e)
		return nil, domain.ErrLockTimeout
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

func (l *Locker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// held reports the number of keys with at least one holder or waiter.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

type lease struct {
	locker *Locker
	key    string
	entry  *entry
	once   sync.Once
}

func (s *lease) Key() string { return s.key }

func (s *lease) Release(context.Context) error {
	released := false
	s.once.Do(func() {
		<-s.entry.sem
		s.locker.unref(s.key, s.entry)
		released = true
	})
	if !released {
		return domain.ErrNotHeld
	}
	return nil
}
