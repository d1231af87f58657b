package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes pipeline-level instruments.
type Metrics struct {
	eventsLoaded  metric.Int64Counter
	eventsDropped metric.Int64Counter
	rowsEmitted   metric.Int64Counter
	runDuration   metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the pipeline metric instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "featuremart"
	}
	meter := provider.Meter(name)

	eventsLoaded, err := meter.Int64Counter("featuremart_events_loaded_total")
	if err != nil {
		return nil, err
	}
	eventsDropped, err := meter.Int64Counter("featuremart_events_dropped_total")
	if err != nil {
		return nil, err
	}
	rowsEmitted, err := meter.Int64Counter("featuremart_feature_rows_total")
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("featuremart_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		eventsLoaded:  eventsLoaded,
		eventsDropped: eventsDropped,
		rowsEmitted:   rowsEmitted,
		runDuration:   runDuration,
	}, nil
}

// RecordEventsLoaded counts accepted events per source.
func (m *Metrics) RecordEventsLoaded(ctx context.Context, source string, n int64) {
	if m == nil {
		return
	}
	m.eventsLoaded.Add(ctx, n, metric.WithAttributes(attribute.String("source", source)))
}

// RecordEventsDropped counts records excluded at ingestion.
func (m *Metrics) RecordEventsDropped(ctx context.Context, reason string, n int64) {
	if m == nil {
		return
	}
	m.eventsDropped.Add(ctx, n, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRowsEmitted counts feature rows produced by a run.
func (m *Metrics) RecordRowsEmitted(ctx context.Context, engine string, n int64) {
	if m == nil {
		return
	}
	m.rowsEmitted.Add(ctx, n, metric.WithAttributes(attribute.String("engine", engine)))
}

// RecordRunDuration records end-to-end run latency.
func (m *Metrics) RecordRunDuration(ctx context.Context, engine string, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("engine", engine)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
