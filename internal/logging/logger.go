package logging

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"menulens/internal/observability"
)

// Logger defines a minimal, printf-style logging contract.
//
// Pipeline components depend on this interface only; the process wires it to
// the structured observability logger at startup.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

var (
	baseMu sync.RWMutex
	base   = observability.NewLogger(observability.LogConfig{Level: "info", Format: "text"})
)

// SetBase replaces the process-wide structured logger used by
// NewComponentLogger. Loggers created earlier keep the previous base.
func SetBase(logger *observability.Logger) {
	if logger == nil {
		return
	}
	baseMu.Lock()
	base = logger
	baseMu.Unlock()
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return FromObservabilityWithComponent(base, component)
}

type observabilityPrintfLogger struct {
	logger *observability.Logger
}

// FromObservabilityWithComponent wraps an observability logger and preserves
// printf-style call sites by formatting the message before emitting it.
func FromObservabilityWithComponent(logger *observability.Logger, component string) Logger {
	if logger == nil {
		return Nop()
	}
	scoped := logger
	if component != "" {
		scoped = scoped.With("component", component)
	}
	return &observabilityPrintfLogger{logger: scoped}
}

func (l *observabilityPrintfLogger) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *observabilityPrintfLogger) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *observabilityPrintfLogger) Warn(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *observabilityPrintfLogger) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// WithContext tags structured output with the identifiers carried by ctx.
func (l *observabilityPrintfLogger) WithContext(ctx context.Context) Logger {
	return &observabilityPrintfLogger{logger: l.logger.WithContext(ctx)}
}

// WithLogID tags structured output with a log_id attribute instead of a
// message prefix.
func (l *observabilityPrintfLogger) WithLogID(logID string) Logger {
	return &observabilityPrintfLogger{logger: l.logger.With("log_id", logID)}
}
