package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event/catalog"
	"github.com/ecpslabs/featuremart/internal/logger"
	"github.com/ecpslabs/featuremart/internal/migration"
	"github.com/ecpslabs/featuremart/internal/observability"
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
		migration.Module,

		catalog.Module,

		fx.Invoke(RunIngest),
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

// RunIngest loads the configured event file into the catalog and exits.
func RunIngest(lc fx.Lifecycle, sd fx.Shutdowner, ing *catalog.Ingestor, cfg config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				n, err := ing.IngestFile(context.Background(), cfg.Pipeline.InputPath)
				if err != nil {
					log.Error("ingest failed", zap.Error(err))
					sd.Shutdown(fx.ExitCode(1))
					return
				}
				log.Info("ingest complete", zap.Int("events", n))
				sd.Shutdown()
			}()
			return nil
		},
	})
}
