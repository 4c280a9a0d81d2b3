package auth

import (
	"github.com/linkwell/orderdesk/internal/auth/repository"
	"github.com/linkwell/orderdesk/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
