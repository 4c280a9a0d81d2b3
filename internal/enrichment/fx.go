package enrichment

import (
	"github.com/linkwell/orderdesk/internal/enrichment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrichment.service",
	fx.Provide(service.New),
)
