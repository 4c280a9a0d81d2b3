package client

import (
	"github.com/linkwell/orderdesk/internal/client/repository"
	"github.com/linkwell/orderdesk/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
