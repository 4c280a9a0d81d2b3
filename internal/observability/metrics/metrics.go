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
	ordersConfirmed    metric.Int64Counter
	projectsCreated    metric.Int64Counter
	enrichmentFailures metric.Int64Counter
	shareViews         metric.Int64Counter
	rateLimitAllowed   metric.Int64Counter
	rateLimitDenied    metric.Int64Counter
	repairRecords      metric.Int64Counter
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

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "orderdesk"
	}
	meter := provider.Meter(name)

	ordersConfirmed, err := meter.Int64Counter("orderdesk_orders_confirmed_total")
	if err != nil {
		return nil, err
	}
	projectsCreated, err := meter.Int64Counter("orderdesk_analysis_projects_created_total")
	if err != nil {
		return nil, err
	}
	enrichmentFailures, err := meter.Int64Counter("orderdesk_enrichment_failures_total")
	if err != nil {
		return nil, err
	}
	shareViews, err := meter.Int64Counter("orderdesk_share_views_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("orderdesk_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("orderdesk_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	repairRecords, err := meter.Int64Counter("orderdesk_repair_records_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersConfirmed:    ordersConfirmed,
		projectsCreated:    projectsCreated,
		enrichmentFailures: enrichmentFailures,
		shareViews:         shareViews,
		rateLimitAllowed:   rateLimitAllowed,
		rateLimitDenied:    rateLimitDenied,
		repairRecords:      repairRecords,
	}, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metric protocol %q", protocol)
	}
}

func (m *Metrics) RecordOrderConfirmed(ctx context.Context, projects int) {
	if m == nil {
		return
	}
	m.ordersConfirmed.Add(ctx, 1)
	if projects > 0 {
		m.projectsCreated.Add(ctx, int64(projects))
	}
}

func (m *Metrics) RecordEnrichmentFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.enrichmentFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordShareView(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.shareViews.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) RecordRepair(ctx context.Context, operation, outcome string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.repairRecords.Add(ctx, count, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
