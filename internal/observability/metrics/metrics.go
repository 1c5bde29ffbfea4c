package metrics

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
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	uploads            metric.Int64Counter
	extractionFailures metric.Int64Counter
	confirmations      metric.Int64Counter
	rateLimitDenied    metric.Int64Counter
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "meterscan"
	}
	meter := provider.Meter(name)

	uploads, err := meter.Int64Counter("meterscan_uploads_total")
	if err != nil {
		return nil, err
	}
	extractionFailures, err := meter.Int64Counter("meterscan_extraction_failures_total")
	if err != nil {
		return nil, err
	}
	confirmations, err := meter.Int64Counter("meterscan_confirmations_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("meterscan_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		uploads:            uploads,
		extractionFailures: extractionFailures,
		confirmations:      confirmations,
		rateLimitDenied:    rateLimitDenied,
	}, nil
}

// RecordUpload increments the stored-measurement count.
func (m *Metrics) RecordUpload(ctx context.Context, measureType string) {
	if m == nil {
		return
	}
	m.uploads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("measure_type", strings.TrimSpace(measureType)),
	))
}

// RecordExtractionFailure increments the extraction failure count.
func (m *Metrics) RecordExtractionFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.extractionFailures.Add(ctx, 1)
}

// RecordConfirmation increments the confirmed-measurement count.
func (m *Metrics) RecordConfirmation(ctx context.Context) {
	if m == nil {
		return
	}
	m.confirmations.Add(ctx, 1)
}

// RecordRateLimitDenied increments the denied-upload count.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
