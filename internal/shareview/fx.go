package shareview

import (
	"github.com/linkwell/orderdesk/internal/shareview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shareview.service",
	fx.Provide(service.New),
)
