package measure

import (
	"github.com/smallbiznis/meterscan/internal/measure/repository"
	"github.com/smallbiznis/meterscan/internal/measure/service"
	"go.uber.org/fx"
)

var Module = fx.Module("measure.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
