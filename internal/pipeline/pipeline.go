// Package pipeline runs one menu submission through validation, a single
// relay call and response normalization.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "menulens/internal/errors"
	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/normalize"
	"menulens/internal/observability"
	"menulens/internal/relay"
	"menulens/internal/utils/id"
)

// Sender performs the single outbound call. *relay.Relay implements it.
type Sender interface {
	Send(ctx context.Context, payload menu.UploadPayload) (*relay.RawResponse, error)
}

// Pipeline is safe for concurrent use; each Process call is independent.
type Pipeline struct {
	hop        string
	validator  *menu.Validator
	sender     Sender
	normalizer *normalize.Normalizer
	metrics    *observability.MetricsCollector
	rejections *observability.RejectionMetrics
	logger     logging.Logger
	tracer     trace.Tracer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithHop labels logs, spans and metrics.
func WithHop(hop string) Option {
	return func(p *Pipeline) {
		if hop != "" {
			p.hop = hop
		}
	}
}

// WithNormalizer overrides the default Normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithMetrics attaches the otel collector and the failure counters.
func WithMetrics(metrics *observability.MetricsCollector, rejections *observability.RejectionMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
		p.rejections = rejections
	}
}

// WithLogger sets the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.OrNop(logger)
	}
}

// New wires a pipeline around validator and sender.
func New(validator *menu.Validator, sender Sender, opts ...Option) *Pipeline {
	if validator == nil {
		validator = menu.NewValidator(menu.DefaultPolicy())
	}
	p := &Pipeline{
		hop:       "upstream",
		validator: validator,
		sender:    sender,
		logger:    logging.Nop(),
		tracer:    otel.Tracer("menulens/pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(normalize.WithLogger(p.logger), normalize.WithMetrics(p.rejections))
	}
	return p
}

// Process always returns an Outcome. An invalid payload never reaches the
// sender.
func (p *Pipeline) Process(ctx context.Context, payload menu.UploadPayload) menu.Outcome {
	if id.LogIDFromContext(ctx) == "" {
		ctx = id.WithLogID(ctx, id.NewLogID())
	}

	attrs := observability.UploadAttrs(payload.ContentType, int64(len(payload.Data)), payload.TargetLanguage)
	ctx, span := observability.StartSpan(ctx, p.tracer, observability.SpanPipelineProcess, attrs...)
	defer span.End()

	logger := logging.FromContext(ctx, p.logger)

	outcome := p.run(ctx, logger, payload)

	switch o := outcome.(type) {
	case *menu.Success:
		span.SetAttributes(observability.OutcomeAttrs("success", len(o.Items))...)
		logger.Info("%s submission succeeded with %d items", p.hop, len(o.Items))
		p.metrics.RecordSubmission(ctx, p.hop, "success")
	case *menu.Failure:
		span.SetAttributes(observability.OutcomeAttrs(o.Kind.String(), 0)...)
		span.SetStatus(codes.Error, o.Kind.String())
		logger.Info("%s submission failed: kind=%s status=%d", p.hop, o.Kind, o.StatusCode)
		p.metrics.RecordSubmission(ctx, p.hop, o.Kind.String())
		p.rejections.RecordFailure(p.hop, o.Kind.String())
	}
	return outcome
}

func (p *Pipeline) run(ctx context.Context, logger logging.Logger, payload menu.UploadPayload) menu.Outcome {
	if failure := p.validator.Validate(payload); failure != nil {
		logger.Info("rejected upload: %s (type=%q size=%d)", failure.Message, payload.ContentType, len(payload.Data))
		return failure
	}
	if p.sender == nil {
		logger.Error("pipeline has no sender configured")
		return menu.Fail(menu.KindTransportConnection, menu.MsgGeneric)
	}

	started := time.Now()
	resp, err := p.sender.Send(ctx, payload)
	p.metrics.RecordRelay(ctx, p.hop, relayStatus(resp, err), time.Since(started), len(payload.Data))

	return p.normalizer.Normalize(resp, err)
}

func relayStatus(resp *relay.RawResponse, err error) string {
	if err != nil {
		var transportErr *apperrors.TransportError
		if errors.As(err, &transportErr) {
			return transportErr.Kind.String()
		}
		return "error"
	}
	if resp == nil {
		return "none"
	}
	return strconv.Itoa(resp.StatusCode)
}
