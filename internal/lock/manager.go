package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/internal/lock/domain"
	obsmetrics "github.com/smallbiznis/vindisync/internal/observability/metrics"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Locker  domain.Locker
	Config  config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.ReconcileMetrics `optional:"true"`
}

// Manager serializes work per subscription.
type Manager struct {
	locker  domain.Locker
	prefix  string
	wait    time.Duration
	backend string
	log     *zap.Logger
	metrics *obsmetrics.ReconcileMetrics
}

func New(p Params) *Manager {
	return &Manager{
		locker:  p.Locker,
		prefix:  p.Config.Lock.Prefix,
		wait:    p.Config.Lock.Wait,
		backend: p.Config.Lock.Backend,
		log:     p.Log.Named("lock.manager"),
		metrics: p.Metrics,
	}
}

// Key derives the lock name for a subscription.
func (m *Manager) Key(subscriptionID string) string {
	return m.prefix + "_" + subscriptionID
}

// WithLock runs body while holding the subscription lock. It fails fast with
// domain.ErrLockTimeout when the lock stays busy past the configured wait.
// The lease is released on every exit path, panics included; a failed
// release is logged and never replaces body's result.
func (m *Manager) WithLock(ctx context.Context, subscriptionID string, body func(ctx context.Context) error) error {
	if subscriptionID == "" {
		return domain.ErrEmptyKey
	}
	key := m.Key(subscriptionID)
	log := ctxlogger.WithContext(ctx, m.log).With(
		zap.String("lock_key", key),
		zap.String("vindi_subscription_id", subscriptionID),
	)

	start := time.Now()
	lease, err := m.locker.Acquire(ctx, key, m.wait)
	m.metrics.ObserveLockWait(m.backend, time.Since(start))
	if err != nil {
		if errors.Is(err, domain.ErrLockTimeout) {
			m.metrics.IncLockTimeout(m.backend)
			log.Error("could not acquire lock for subscription", zap.Duration("wait", m.wait))
			return domain.ErrLockTimeout
		}
		log.Error("lock acquisition failed", zap.Error(err))
		return fmt.Errorf("acquire %s: %w", key, err)
	}

	defer func() {
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
			log.Warn("lock release failed", zap.Error(relErr))
		}
	}()

	return body(ctxlogger.ContextWithSubscription(ctx, subscriptionID))
}
