package imagestore

import (
	"github.com/smallbiznis/meterscan/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("imagestore",
	fx.Provide(fromAppConfig),
	fx.Provide(New),
)

func fromAppConfig(cfg config.Config) Config {
	return Config{
		Dir:     cfg.ImageDir,
		BaseURL: cfg.BaseURL,
	}
}
