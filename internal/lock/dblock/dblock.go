// Package dblock implements the subscription lock with the database's named
// lock primitives: GET_LOCK on MySQL and advisory locks on Postgres. Both are
// session scoped, so every lease pins its own connection until release.
//
// Contenders inside one process queue on an in-memory gate before they touch
// the pool, so a burst of duplicate deliveries pins at most one waiting
// connection per key and the holder keeps a connection for its own queries.
package dblock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/vindisync/internal/lock/domain"
	"github.com/smallbiznis/vindisync/internal/lock/memory"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

const defaultPollInterval = 100 * time.Millisecond

var ErrUnsupportedDialect = errors.New("lock_dialect_unsupported")

type Locker struct {
	db      *sql.DB
	dialect string
	poll    time.Duration
	gate    *memory.Locker
}

func New(db *sql.DB, dialect string) (*Locker, error) {
	if db == nil {
		return nil, errors.New("lock database not configured")
	}
	switch dialect {
	case DialectMySQL, DialectPostgres:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
	return &Locker{db: db, dialect: dialect, poll: defaultPollInterval, gate: memory.New()}, nil
}

func (l *Locker) Acquire(ctx context.Context, key string, wait time.Duration) (domain.Lease, error) {
	if key == "" {
		return nil, domain.ErrEmptyKey
	}

	deadline := time.Now().Add(wait)
	gate, err := l.gate.Acquire(ctx, key, wait)
	if err != nil {
		return nil, err
	}

	held, err := l.acquireSession(ctx, key, time.Until(deadline))
	if err != nil {
		_ = gate.Release(ctx)
		return nil, err
	}
	held.gate = gate
	return held, nil
}

func (l *Locker) acquireSession(ctx context.Context, key string, wait time.Duration) (*lease, error) {
	if wait <= 0 {
		return nil, domain.ErrLockTimeout
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock connection: %w", err)
	}

	var ok bool
	switch l.dialect {
	case DialectMySQL:
		ok, err = l.getLock(ctx, conn, key, wait)
	default:
		ok, err = l.tryAdvisoryLock(ctx, conn, key, wait)
	}
	if err != nil || !ok {
		_ = conn.Close()
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrLockTimeout
	}

	return &lease{locker: l, conn: conn, key: key}, nil
}

// getLock lets the server do the waiting. GET_LOCK returns 1 on success, 0
// on timeout and NULL on error.
func (l *Locker) getLock(ctx context.Context, conn *sql.Conn, key string, wait time.Duration) (bool, error) {
	seconds := int(math.Ceil(wait.Seconds()))
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", key, seconds).Scan(&got); err != nil {
		return false, fmt.Errorf("get_lock: %w", err)
	}
	if !got.Valid {
		return false, fmt.Errorf("get_lock: server returned NULL for %s", key)
	}
	return got.Int64 == 1, nil
}

func (l *Locker) tryAdvisoryLock(ctx context.Context, conn *sql.Conn, key string, wait time.Duration) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		var got bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&got); err != nil {
			return false, fmt.Errorf("pg_try_advisory_lock: %w", err)
		}
		if got {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		pause := l.poll
		if remaining < pause {
			pause = remaining
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

type lease struct {
	locker *Locker
	conn   *sql.Conn
	gate   domain.Lease
	key    string
	mu     sync.Mutex
	done   bool
}

func (s *lease) Key() string { return s.key }

// Release unlocks on the pinned connection, hands it back to the pool and
// then opens the in-process gate for the next contender.
func (s *lease) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return domain.ErrNotHeld
	}
	s.done = true
	defer func() {
		_ = s.conn.Close()
		if s.gate != nil {
			_ = s.gate.Release(ctx)
		}
	}()

	query := "SELECT RELEASE_LOCK(?)"
	if s.locker.dialect == DialectPostgres {
		query = "SELECT pg_advisory_unlock(hashtext($1))"
	}

	var released sql.NullBool
	if err := s.conn.QueryRowContext(ctx, query, s.key).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", s.key, err)
	}
	if !released.Valid || !released.Bool {
		return domain.ErrNotHeld
	}
	return nil
}
