package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"menulens/internal/utils/id"
)

// TracingConfig configures distributed tracing
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Exporter       string  `yaml:"exporter"` // otlp, zipkin
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	ZipkinEndpoint string  `yaml:"zipkin_endpoint"`
	SampleRate     float64 `yaml:"sample_rate"` // 0.0 to 1.0
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"service_version"`
}

// TracerProvider wraps OpenTelemetry tracer
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracerProvider creates a new tracer provider
func NewTracerProvider(config TracingConfig) (*TracerProvider, error) {
	if !config.Enabled {
		return &TracerProvider{
			tracer: noop.NewTracerProvider().Tracer("menulens"),
		}, nil
	}

	if config.ServiceName == "" {
		config.ServiceName = "menulens"
	}
	if config.SampleRate <= 0 || config.SampleRate > 1.0 {
		config.SampleRate = 1.0
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch config.Exporter {
	case "otlp":
		endpoint := config.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4318"
		}
		exporter, err = otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		)
	case "zipkin":
		endpoint := config.ZipkinEndpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}
		exporter, err = zipkin.New(endpoint)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", config.Exporter)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.SampleRate)),
	)

	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer("menulens"),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the tracer
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartSpan starts a span on tracer, tagging it with the log and request
// identifiers carried by ctx.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ids := id.IDsFromContext(ctx)
	if ids.LogID != "" {
		attrs = append(attrs, attribute.String(AttrLogID, ids.LogID))
	}
	if ids.RequestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, ids.RequestID))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Span names
const (
	SpanPipelineProcess = "menulens.pipeline.process"
	SpanRelaySend       = "menulens.relay.send"
	SpanHTTPServer      = "menulens.http.request"
)

// Attribute keys
const (
	AttrLogID       = "menulens.log_id"
	AttrRequestID   = "menulens.request_id"
	AttrHop         = "menulens.hop"
	AttrEndpoint    = "menulens.endpoint"
	AttrContentType = "menulens.upload.content_type"
	AttrUploadBytes = "menulens.upload.bytes"
	AttrLanguage    = "menulens.target_language"
	AttrStatusCode  = "menulens.upstream.status_code"
	AttrOutcome     = "menulens.outcome"
	AttrItemCount   = "menulens.item_count"
)

// UploadAttrs describes the file being relayed.
func UploadAttrs(contentType string, size int64, language string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrContentType, contentType),
		attribute.Int64(AttrUploadBytes, size),
	}
	if language != "" {
		attrs = append(attrs, attribute.String(AttrLanguage, language))
	}
	return attrs
}

// RelayAttrs describes the relay target.
func RelayAttrs(hop, endpoint string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrHop, hop),
		attribute.String(AttrEndpoint, endpoint),
	}
}

// OutcomeAttrs describes how a submission finished.
func OutcomeAttrs(outcome string, items int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrItemCount, items),
	}
}
