package pipeline

import (
	"github.com/ecpslabs/featuremart/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the pipeline and its runner.
var Module = fx.Module("pipeline",
	fx.Provide(NewFromConfig),
	fx.Provide(NewRunner),
)

// NewFromConfig builds the pipeline with the configured partition count.
func NewFromConfig(cfg config.Config, log *zap.Logger) *Pipeline {
	return New(log, cfg.Pipeline.Partitions)
}
