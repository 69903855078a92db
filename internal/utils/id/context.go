package id

import "context"

// LogIDHeader carries the log id between hops.
const LogIDHeader = "X-Log-Id"

type contextKey string

const (
	logKey     contextKey = "menulens_log_id"
	requestKey contextKey = "menulens_request_id"
)

// IDs captures the identifiers propagated through one submission.
type IDs struct {
	LogID     string
	RequestID string
}

// WithLogID stores the provided log identifier on the context.
func WithLogID(ctx context.Context, logID string) context.Context {
	if logID == "" {
		return ctx
	}
	return context.WithValue(ctx, logKey, logID)
}

// LogIDFromContext extracts the log identifier from context.
func LogIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if logID, ok := ctx.Value(logKey).(string); ok {
		return logID
	}
	return ""
}

// WithRequestID stores the submission identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestKey, requestID)
}

// RequestIDFromContext extracts the submission identifier from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestKey).(string); ok {
		return requestID
	}
	return ""
}

// WithIDs stores any provided identifiers on the context.
func WithIDs(ctx context.Context, ids IDs) context.Context {
	ctx = WithLogID(ctx, ids.LogID)
	ctx = WithRequestID(ctx, ids.RequestID)
	return ctx
}

// IDsFromContext collects all known identifiers from the context.
func IDsFromContext(ctx context.Context) IDs {
	return IDs{
		LogID:     LogIDFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
	}
}
