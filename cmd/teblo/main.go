package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/teblo/teblo/internal/config"
	"github.com/teblo/teblo/internal/logger"
	"github.com/teblo/teblo/internal/migration"
	"github.com/teblo/teblo/internal/observability"
	"github.com/teblo/teblo/internal/seed"
	"github.com/teblo/teblo/internal/server"
	"github.com/teblo/teblo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		seed.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
