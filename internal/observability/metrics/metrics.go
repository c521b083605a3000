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
	reportsComputed     metric.Int64Counter
	sourceFetchFailures metric.Int64Counter
	classificationGaps  metric.Int64Counter
	upsertConflicts     metric.Int64Counter
	computeDuration     metric.Float64Histogram
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
		name = "dre"
	}
	meter := provider.Meter(name)

	reportsComputed, err := meter.Int64Counter("dre_reports_computed_total")
	if err != nil {
		return nil, err
	}
	sourceFetchFailures, err := meter.Int64Counter("dre_source_fetch_failures_total")
	if err != nil {
		return nil, err
	}
	classificationGaps, err := meter.Int64Counter("dre_classification_gaps_total")
	if err != nil {
		return nil, err
	}
	upsertConflicts, err := meter.Int64Counter("dre_upsert_conflicts_total")
	if err != nil {
		return nil, err
	}
	computeDuration, err := meter.Float64Histogram("dre_compute_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reportsComputed:     reportsComputed,
		sourceFetchFailures: sourceFetchFailures,
		classificationGaps:  classificationGaps,
		upsertConflicts:     upsertConflicts,
		computeDuration:     computeDuration,
	}, nil
}

// RecordReportComputed counts a finished computation and its duration.
func (m *Metrics) RecordReportComputed(ctx context.Context, regime, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("regime", strings.TrimSpace(regime)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.reportsComputed.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.computeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSourceFetchFailure counts a failed fetch by source kind.
func (m *Metrics) RecordSourceFetchFailure(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.sourceFetchFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordClassificationGaps adds lines routed to the sentinel groups.
func (m *Metrics) RecordClassificationGaps(ctx context.Context, regime string, gaps int) {
	if m == nil || gaps <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.classificationGaps.Add(ctx, int64(gaps), metric.WithAttributes(attrs...))
}

// RecordUpsertConflict counts compare-and-swap misses on the report key.
func (m *Metrics) RecordUpsertConflict(ctx context.Context, regime string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.upsertConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"regime":      {},
	"status":      {},
	"source":      {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
