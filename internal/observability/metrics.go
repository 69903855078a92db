package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector manages the pipeline metrics
type MetricsCollector struct {
	meter metric.Meter

	submissions  metric.Int64Counter
	relayLatency metric.Float64Histogram
	uploadBytes  metric.Int64Histogram

	gatherer         prometheus.Gatherer
	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// NewMetricsCollector creates a new metrics collector backed by the default
// Prometheus registry.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	return NewMetricsCollectorWithRegistry(config, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsCollectorWithRegistry lets tests use a dedicated registry.
func NewMetricsCollectorWithRegistry(config MetricsConfig, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("menulens")

	submissions, err := meter.Int64Counter(
		"menulens.submissions.total",
		metric.WithDescription("Menu submissions by hop and outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions counter: %w", err)
	}

	relayLatency, err := meter.Float64Histogram(
		"menulens.relay.latency",
		metric.WithDescription("Relay call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay_latency histogram: %w", err)
	}

	uploadBytes, err := meter.Int64Histogram(
		"menulens.upload.bytes",
		metric.WithDescription("Size of relayed uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_bytes histogram: %w", err)
	}

	collector := &MetricsCollector{
		meter:        meter,
		submissions:  submissions,
		relayLatency: relayLatency,
		uploadBytes:  uploadBytes,
		gatherer:     gatherer,
	}

	if config.PrometheusPort > 0 {
		collector.prometheusServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.PrometheusPort),
			Handler:           collector.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return collector, nil
}

// Handler returns the /metrics mux for the collector's registry.
func (m *MetricsCollector) Handler() http.Handler {
	mux := http.NewServeMux()
	if m.gatherer != nil {
		mux.Handle("/metrics", promclient.HandlerFor(m.gatherer, promclient.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promclient.Handler())
	}
	return mux
}

// Serve runs the Prometheus metrics server until Shutdown. It returns nil
// immediately when no port is configured.
func (m *MetricsCollector) Serve() error {
	if m.prometheusServer == nil {
		return nil
	}
	log.Printf("Prometheus metrics server listening on %s", m.prometheusServer.Addr)
	if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("prometheus server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the metrics collector
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer != nil {
		return m.prometheusServer.Shutdown(ctx)
	}
	return nil
}

// RecordSubmission counts one finished submission.
func (m *MetricsCollector) RecordSubmission(ctx context.Context, hop, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("hop", hop),
		attribute.String("outcome", outcome),
	))
}

// RecordRelay records one relay call. status is the HTTP status, or the
// transport failure kind when no response arrived.
func (m *MetricsCollector) RecordRelay(ctx context.Context, hop, status string, latency time.Duration, bytes int) {
	if m == nil || m.relayLatency == nil {
		return
	}
	m.relayLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(
		attribute.String("hop", hop),
		attribute.String("status", status),
	))
	m.uploadBytes.Record(ctx, int64(bytes), metric.WithAttributes(attribute.String("hop", hop)))
}
