package vision

import (
	"time"

	"github.com/smallbiznis/meterscan/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("vision",
	fx.Provide(fromAppConfig),
	fx.Provide(func(cfg Config, log *zap.Logger) Extractor {
		return NewGemini(cfg, log)
	}),
)

func fromAppConfig(cfg config.Config) Config {
	return Config{
		APIKey:   cfg.Gemini.APIKey,
		Model:    cfg.Gemini.Model,
		Endpoint: cfg.Gemini.Endpoint,
		Timeout:  time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	}
}
