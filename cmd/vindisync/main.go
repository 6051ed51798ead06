package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/internal/clock"
	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/internal/customer"
	"github.com/smallbiznis/vindisync/internal/lock"
	"github.com/smallbiznis/vindisync/internal/migration"
	"github.com/smallbiznis/vindisync/internal/notification"
	"github.com/smallbiznis/vindisync/internal/observability"
	"github.com/smallbiznis/vindisync/internal/order"
	"github.com/smallbiznis/vindisync/internal/providers"
	"github.com/smallbiznis/vindisync/internal/queue"
	"github.com/smallbiznis/vindisync/internal/server"
	"github.com/smallbiznis/vindisync/internal/vindi"
	"github.com/smallbiznis/vindisync/internal/webhook"
	"github.com/smallbiznis/vindisync/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,

		// Outbound
		vindi.Module,
		providers.Module,
		notification.Module,

		// Reconciliation
		order.Module,
		queue.Module,
		customer.Module,
		webhook.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
