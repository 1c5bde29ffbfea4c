package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterscan/internal/config"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	"github.com/smallbiznis/meterscan/internal/measure"
	"github.com/smallbiznis/meterscan/internal/migration"
	"github.com/smallbiznis/meterscan/internal/observability"
	"github.com/smallbiznis/meterscan/internal/ratelimit"
	"github.com/smallbiznis/meterscan/internal/server"
	"github.com/smallbiznis/meterscan/internal/vision"
	"github.com/smallbiznis/meterscan/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		ratelimit.Module,
		vision.Module,
		imagestore.Module,
		measure.Module,
		server.Module,
	).Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
