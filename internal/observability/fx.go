package observability

import (
	"github.com/ecpslabs/featuremart/internal/config"
	"go.uber.org/fx"
)

// Module wires the meter provider and pipeline instruments.
var Module = fx.Module("observability",
	fx.Provide(
		provideMetricsConfig,
		NewProvider,
		New,
	),
)

func provideMetricsConfig(cfg config.Config) Config {
	return Config{
		Enabled:          cfg.Otel.Enabled,
		ExporterEndpoint: cfg.Otel.Endpoint,
		ExporterProtocol: cfg.Otel.Protocol,
		ServiceName:      cfg.AppName,
	}
}
