package audit

import (
	"github.com/linkwell/orderdesk/internal/audit/repository"
	"github.com/linkwell/orderdesk/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
