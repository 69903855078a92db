// Package relay sends one validated upload to a downstream endpoint under a
// single absolute deadline.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "menulens/internal/errors"
	"menulens/internal/httpclient"
	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/observability"
	"menulens/internal/utils/id"
)

// DefaultMaxResponseBytes bounds how much of a reply body is read.
const DefaultMaxResponseBytes int64 = 8 * 1024 * 1024

// Config describes one hop.
type Config struct {
	// Endpoint is the absolute URL the upload is posted to.
	Endpoint string
	// Timeout is the absolute budget for the whole call, body read included.
	Timeout time.Duration
	// FileField and LanguageField name the multipart fields.
	FileField     string
	LanguageField string
	// MaxResponseBytes caps the reply body; zero means DefaultMaxResponseBytes.
	// A longer body is a connection failure.
	MaxResponseBytes int64
	// Hop names the target for logs, spans and metrics ("upstream" or "proxy").
	Hop string
}

// RawResponse is whatever the endpoint answered, status uninterpreted.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Relay posts uploads to a single endpoint. It is safe for concurrent use.
type Relay struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
	tracer trace.Tracer
}

// Option customizes a Relay.
type Option func(*Relay)

// WithHTTPClient overrides the HTTP client. The client's own Timeout is left
// alone; the relay deadline is applied through the request context.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Relay) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Relay) {
		r.logger = logging.OrNop(logger)
	}
}

// New validates cfg and returns a Relay.
func New(cfg Config, opts ...Option) (*Relay, error) {
	endpoint, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("relay endpoint %q must be an absolute URL", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("relay timeout must be positive, got %s", cfg.Timeout)
	}
	cfg.Endpoint = endpoint.String()
	if cfg.FileField == "" {
		cfg.FileField = menu.UpstreamFileField
	}
	if cfg.LanguageField == "" {
		cfg.LanguageField = menu.LanguageField
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.Hop == "" {
		cfg.Hop = "upstream"
	}

	r := &Relay{
		cfg:    cfg,
		logger: logging.Nop(),
		tracer: otel.Tracer("menulens/relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httpclient.New(r.logger)
	}
	return r, nil
}

// Config returns the hop configuration.
func (r *Relay) Config() Config {
	return r.cfg
}

// Send makes exactly one attempt. A non-nil error is always a
// *errors.TransportError; any HTTP reply, whatever its status, is returned as
// a RawResponse.
//
// Cancellation of ctx is ignored: only the relay's own deadline aborts the
// call. Values on ctx (log id, span) are kept.
func (r *Relay) Send(ctx context.Context, payload menu.UploadPayload) (*RawResponse, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	defer cancel()

	attrs := observability.RelayAttrs(r.cfg.Hop, r.cfg.Endpoint)
	attrs = append(attrs, observability.UploadAttrs(payload.ContentType, int64(len(payload.Data)), payload.TargetLanguage)...)
	ctx, span := observability.StartSpan(ctx, r.tracer, observability.SpanRelaySend, attrs...)
	defer span.End()

	logger := logging.FromContext(ctx, r.logger)

	body, contentType, err := r.encode(payload)
	if err != nil {
		// Encoding into memory cannot hit the network; report it as a
		// connection-class failure so the caller still gets an outcome.
		span.SetStatus(codes.Error, err.Error())
		return nil, &apperrors.TransportError{Kind: apperrors.TransportConnection, Endpoint: r.cfg.Endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &apperrors.TransportError{Kind: apperrors.TransportConnection, Endpoint: r.cfg.Endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if logID := id.LogIDFromContext(ctx); logID != "" {
		req.Header.Set(id.LogIDHeader, logID)
	}

	started := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.transportFailure(ctx, span, logger, err, started)
	}
	defer resp.Body.Close()

	raw, err := httpclient.ReadBody(resp.Body, r.cfg.MaxResponseBytes)
	if err != nil {
		return nil, r.transportFailure(ctx, span, logger, err, started)
	}

	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))
	logger.Debug("relay %s: %s answered %d (%d bytes) in %s", r.cfg.Hop, r.cfg.Endpoint, resp.StatusCode, len(raw), time.Since(started))

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func (r *Relay) transportFailure(ctx context.Context, span trace.Span, logger logging.Logger, err error, started time.Time) error {
	// The deadline may surface as a generic read error once the transport
	// tears the connection down, so consult the context first.
	if ctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	transportErr := apperrors.NewTransportError(r.cfg.Endpoint, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, transportErr.Kind.String())
	logger.Warn("relay %s failed (%s) after %s: %v", r.cfg.Hop, failureReason(err), time.Since(started), transportErr)
	return transportErr
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case httpclient.IsBodyTooLarge(err):
		return "reply too large"
	case apperrors.IsConnectionFailure(err):
		return "unreachable"
	default:
		return "transport"
	}
}

func (r *Relay) encode(payload menu.UploadPayload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	buf.Grow(len(payload.Data) + 1024)
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(r.cfg.FileField), escapeQuotes(payload.PartFileName())))
	contentType := payload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if payload.TargetLanguage != "" {
		if err := writer.WriteField(r.cfg.LanguageField, payload.TargetLanguage); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
