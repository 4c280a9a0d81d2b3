package datarepair

import (
	"github.com/linkwell/orderdesk/internal/datarepair/service"
	"go.uber.org/fx"
)

var Module = fx.Module("datarepair.service",
	fx.Provide(service.New),
)
