package publisher

import (
	"github.com/linkwell/orderdesk/internal/publisher/repository"
	"github.com/linkwell/orderdesk/internal/publisher/service"
	"go.uber.org/fx"
)

var Module = fx.Module("publisher.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
