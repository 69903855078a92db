package id

import (
	"context"
	"strings"
	"testing"
)

func TestWithIDsAndFromContext(t *testing.T) {
	ctx := WithIDs(context.Background(), IDs{LogID: "log-1", RequestID: "req-1"})

	got := IDsFromContext(ctx)
	if got.LogID != "log-1" {
		t.Fatalf("expected log id log-1, got %s", got.LogID)
	}
	if got.RequestID != "req-1" {
		t.Fatalf("expected request id req-1, got %s", got.RequestID)
	}
}

func TestEmptyIDsLeaveContextUntouched(t *testing.T) {
	base := context.Background()
	if ctx := WithLogID(base, ""); ctx != base {
		t.Fatalf("expected unchanged context for empty log id")
	}
	if LogIDFromContext(base) != "" {
		t.Fatalf("expected empty log id from bare context")
	}
}

func TestGeneratedIDsArePrefixedAndUnique(t *testing.T) {
	a, b := NewLogID(), NewLogID()
	if !strings.HasPrefix(a, "log-") || a == b {
		t.Fatalf("unexpected log ids %q %q", a, b)
	}
	r := NewRequestID()
	if !strings.HasPrefix(r, "req-") || len(r) <= len("req-") {
		t.Fatalf("unexpected request id %q", r)
	}
}
