package customer

import (
	"github.com/smallbiznis/vindisync/internal/customer/domain"
	"github.com/smallbiznis/vindisync/internal/customer/repository"
	"github.com/smallbiznis/vindisync/internal/customer/service"
	"github.com/smallbiznis/vindisync/internal/vindi"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.resolver",
	fx.Provide(repository.Provide),
	fx.Provide(func(c *vindi.Client) domain.RemoteCustomers { return c }),
	fx.Provide(service.New),
)
