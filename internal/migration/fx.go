package migration

import (
	"github.com/smallbiznis/meterscan/internal/config"
	measuredomain "github.com/smallbiznis/meterscan/internal/measure/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// mysql/sqlite are dev and test dialects; AutoMigrate keeps them
		// in sync with the entity, including the unique index.
		return conn.AutoMigrate(&measuredomain.Measure{})
	}),
)
