package webhook

import (
	"github.com/smallbiznis/vindisync/internal/notification"
	"github.com/smallbiznis/vindisync/internal/webhook/billcreated"
	"github.com/smallbiznis/vindisync/internal/webhook/domain"
	"github.com/smallbiznis/vindisync/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook",
	fx.Provide(func(n *notification.Notifier) domain.Notifier { return n }),
	fx.Provide(billcreated.New),
	fx.Provide(service.New),
)
