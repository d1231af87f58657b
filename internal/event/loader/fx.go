package loader

import (
	"context"
	"fmt"

	"github.com/ecpslabs/featuremart/internal/config"
	"github.com/ecpslabs/featuremart/internal/event"
	"github.com/ecpslabs/featuremart/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Source yields the full normalized event table for one run.
type Source interface {
	Load(ctx context.Context) ([]event.Event, error)
}

// Module provides the configured event source.
var Module = fx.Module("event.loader",
	fx.Provide(NewSource),
)

type Params struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *observability.Metrics
}

// NewSource selects the input source from configuration.
func NewSource(p Params) (Source, error) {
	switch p.Config.Pipeline.InputSource {
	case "file":
		return NewFileSource(p.Config.Pipeline.InputPath, p.Log, p.Metrics), nil
	case "catalog":
		return NewCatalogSource(p.DB, p.Log, p.Metrics), nil
	default:
		return nil, fmt.Errorf("unsupported input source %q", p.Config.Pipeline.InputSource)
	}
}
