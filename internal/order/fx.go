package order

import (
	"github.com/linkwell/orderdesk/internal/order/repository"
	"github.com/linkwell/orderdesk/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
