package bulkanalysis

import (
	"github.com/linkwell/orderdesk/internal/bulkanalysis/repository"
	"github.com/linkwell/orderdesk/internal/bulkanalysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bulkanalysis.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
