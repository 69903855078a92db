package logging

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"menulens/internal/observability"
	"menulens/internal/utils/id"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debug(format string, args ...any) { r.add("DEBUG", format, args...) }
func (r *recordingLogger) Info(format string, args ...any)  { r.add("INFO", format, args...) }
func (r *recordingLogger) Warn(format string, args ...any)  { r.add("WARN", format, args...) }
func (r *recordingLogger) Error(format string, args ...any) { r.add("ERROR", format, args...) }

func (r *recordingLogger) add(level, format string, args ...any) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func TestOrNopHandlesTypedNilPointers(t *testing.T) {
	var recorder *recordingLogger
	var logger Logger = recorder
	if !IsNil(logger) {
		t.Fatalf("expected typed nil pointer to be detected")
	}
	safe := OrNop(logger)
	if IsNil(safe) {
		t.Fatalf("expected OrNop to return a usable logger")
	}
	safe.Info("hello %s", "world") // should not panic
}

func TestFromObservabilityFormatsMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	base := observability.NewLogger(observability.LogConfig{
		Level:  "info",
		Format: "text",
		Output: buf,
	})

	logger := FromObservabilityWithComponent(base, "relay")
	logger.Info("hello %s", "world")

	if want := "hello world"; !bytes.Contains(buf.Bytes(), []byte(want)) {
		t.Fatalf("expected %q in output, got %q", want, buf.String())
	}
	if want := "component=relay"; !bytes.Contains(buf.Bytes(), []byte(want)) {
		t.Fatalf("expected %q in output, got %q", want, buf.String())
	}
}

func TestWithLogIDUsesStructuredAttributeWhenAvailable(t *testing.T) {
	buf := &bytes.Buffer{}
	base := observability.NewLogger(observability.LogConfig{Level: "debug", Format: "text", Output: buf})

	logger := WithLogID(FromObservabilityWithComponent(base, "server"), "log-123")
	logger.Warn("upstream answered %d", 503)

	if !bytes.Contains(buf.Bytes(), []byte("log_id=log-123")) {
		t.Fatalf("expected log_id attribute, got %q", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("logid=")) {
		t.Fatalf("did not expect message prefix, got %q", buf.String())
	}
}

func TestFromContextPrefixesPlainLoggers(t *testing.T) {
	recorder := &recordingLogger{}
	ctx := id.WithLogID(context.Background(), "log-abc")

	FromContext(ctx, recorder).Info("relay %s", "ok")

	if len(recorder.lines) != 1 || recorder.lines[0] != "INFO logid=log-abc relay ok" {
		t.Fatalf("unexpected lines %v", recorder.lines)
	}
}

func TestFromContextAddsStructuredIdentifiers(t *testing.T) {
	buf := &bytes.Buffer{}
	base := observability.NewLogger(observability.LogConfig{Level: "info", Format: "text", Output: buf})
	ctx := id.WithRequestID(id.WithLogID(context.Background(), "log-ctx"), "req-ctx")

	FromContext(ctx, FromObservabilityWithComponent(base, "pipeline")).Info("done")

	for _, want := range []string{"log_id=log-ctx", "request_id=req-ctx", "component=pipeline"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %q in output, got %q", want, buf.String())
		}
	}
}
