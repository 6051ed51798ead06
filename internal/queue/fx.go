package queue

import (
	"github.com/smallbiznis/vindisync/internal/queue/repository"
	"github.com/smallbiznis/vindisync/internal/queue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("queue.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
