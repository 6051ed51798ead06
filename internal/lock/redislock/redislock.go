// Package redislock implements the subscription lock on top of redis so that
// several webhook receivers can share it.
package redislock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vindisync/internal/lock/domain"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const defaultRetryInterval = 25 * time.Millisecond

type Locker struct {
	client redis.Cmdable
	script *redis.Script
	ttl    time.Duration
	retry  time.Duration
}

// New returns a redis-backed locker. ttl bounds how long a crashed holder can
// keep the key; it should exceed the longest expected reconciliation.
func New(client redis.Cmdable, ttl time.Duration) (*Locker, error) {
	if client == nil {
		return nil, errors.New("lock client not configured")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		retry:  defaultRetryInterval,
	}, nil
}

func (l *Locker) Acquire(ctx context.Context, key string, wait time.Duration) (domain.Lease, error) {
	if key == "" {
		return nil, domain.ErrEmptyKey
	}

	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &lease{locker: l, key: key, token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, domain.ErrLockTimeout
		}
		pause := l.retry
		if remaining < pause {
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

type lease struct {
	locker *Locker
	key    string
	token  string
	mu     sync.Mutex
	done   bool
}

func (s *lease) Key() string { return s.key }

// Release deletes the key only while it still carries this lease's token, so
// a holder whose TTL expired cannot drop a newer holder's lock.
func (s *lease) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return domain.ErrNotHeld
	}
	s.done = true

	deleted, err := s.locker.script.Run(ctx, s.locker.client, []string{s.key}, s.token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotHeld
	}
	return nil
}
