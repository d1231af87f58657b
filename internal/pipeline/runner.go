package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecpslabs/featuremart/internal/clock"
	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event/loader"
	"github.com/ecpslabs/featuremart/internal/observability"
	"github.com/ecpslabs/featuremart/internal/sink"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Runner executes one end-to-end feature computation: load, resolve the
// as-of date, compute, and emit to the configured sinks.
type Runner struct {
	cfg      config.Config
	log      *zap.Logger
	metrics  *observability.Metrics
	source   loader.Source
	pipeline *Pipeline
	store    *sink.Store
	clk      clock.Clock
	genID    *snowflake.Node
}

type RunnerParams struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Metrics  *observability.Metrics
	Source   loader.Source
	Pipeline *Pipeline
	Store    *sink.Store
	Clock    clock.Clock
	GenID    *snowflake.Node
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		cfg:      p.Config,
		log:      p.Log.Named("pipeline.runner"),
		metrics:  p.Metrics,
		source:   p.Source,
		pipeline: p.Pipeline,
		store:    p.Store,
		clk:      p.Clock,
		genID:    p.GenID,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	runID := r.genID.Generate()
	log := r.log.With(zap.String("run_id", runID.String()))
	start := time.Now()

	events, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	pcfg := r.cfg.Pipeline
	asof, err := ResolveAsOf(pcfg, r.clk, events)
	if err != nil {
		return err
	}

	engine := Engine(pcfg.Engine)
	rows, err := r.pipeline.Run(ctx, events, asof, engine)
	if err != nil {
		return err
	}

	if pcfg.OutputPath != "" {
		if err := sink.WriteCSV(pcfg.OutputPath, rows); err != nil {
			return err
		}
		log.Info("wrote features", zap.String("path", pcfg.OutputPath), zap.Int("rows", len(rows)))
	}
	if pcfg.OutputDir != "" {
		path, err := sink.WritePartitioned(pcfg.OutputDir, asof, rows)
		if err != nil {
			return err
		}
		log.Info("wrote partition", zap.String("path", path), zap.Int("rows", len(rows)))
	}
	if pcfg.StoreEnabled {
		if err := r.store.Replace(ctx, asof, runID, rows); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	r.metrics.RecordRowsEmitted(ctx, string(engine), int64(len(rows)))
	r.metrics.RecordRunDuration(ctx, string(engine), elapsed.Seconds())
	log.Info("run complete",
		zap.Time("asof", asof),
		zap.String("engine", string(engine)),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}
