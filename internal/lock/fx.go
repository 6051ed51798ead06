package lock

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/internal/lock/dblock"
	"github.com/smallbiznis/vindisync/internal/lock/domain"
	"github.com/smallbiznis/vindisync/internal/lock/memory"
	"github.com/smallbiznis/vindisync/internal/lock/redislock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("lock",
	fx.Provide(NewLocker),
	fx.Provide(New),
)

type LockerParams struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB      `optional:"true"`
	Redis  *redis.Client `optional:"true"`
}

// NewLocker selects the lock backend named in config.
func NewLocker(p LockerParams) (domain.Locker, error) {
	backend := p.Config.Lock.Backend
	p.Log.Named("lock").Info("lock backend selected", zap.String("backend", backend))

	switch backend {
	case config.LockBackendMemory:
		return memory.New(), nil
	case config.LockBackendRedis:
		client := p.Redis
		if client == nil {
			client = redis.NewClient(&redis.Options{
				Addr:     p.Config.Redis.Addr,
				Password: p.Config.Redis.Password,
				DB:       p.Config.Redis.DB,
			})
		}
		return redislock.New(client, p.Config.Lock.TTL)
	case config.LockBackendDatabase:
		if p.DB == nil {
			return nil, fmt.Errorf("lock backend %s requires a database", backend)
		}
		sqlDB, err := p.DB.DB()
		if err != nil {
			return nil, err
		}
		return dblock.New(sqlDB, p.Config.DBType)
	default:
		return nil, fmt.Errorf("unknown lock backend %q", backend)
	}
}
