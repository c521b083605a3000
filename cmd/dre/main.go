package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/lock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/migration"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/scheduler"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/server"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,

		dre.Module,
		reportconfig.Module,
		scheduler.Module,
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
