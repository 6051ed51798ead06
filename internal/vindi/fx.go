package vindi

import "go.uber.org/fx"

var Module = fx.Module("vindi.client",
	fx.Provide(NewClient),
)
