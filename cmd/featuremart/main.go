package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/clock"
	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event/loader"
	"github.com/ecpslabs/featuremart/internal/logger"
	"github.com/ecpslabs/featuremart/internal/migration"
	"github.com/ecpslabs/featuremart/internal/observability"
	"github.com/ecpslabs/featuremart/internal/pipeline"
	"github.com/ecpslabs/featuremart/internal/sink"
	"github.com/ecpslabs/featuremart/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		loader.Module,
		sink.Module,
		pipeline.Module,

		fx.Invoke(RunPipeline),
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

// RunPipeline executes one feature computation and shuts the app down,
// carrying the run's outcome out as the process exit code.
func RunPipeline(lc fx.Lifecycle, sd fx.Shutdowner, runner *pipeline.Runner, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := runner.Run(context.Background()); err != nil {
					log.Error("pipeline run failed", zap.Error(err))
					sd.Shutdown(fx.ExitCode(1))
					return
				}
				sd.Shutdown()
			}()
			return nil
		},
	})
}
