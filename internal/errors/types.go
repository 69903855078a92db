package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransportKind classifies a failed outbound call that produced no HTTP response.
type TransportKind int

const (
	// TransportTimeout - the call's deadline fired before a full response arrived
	TransportTimeout TransportKind = iota + 1
	// TransportConnection - DNS, refused, reset, or any other transport fault
	TransportConnection
)

func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// TransportError is returned by the relay when no HTTP response was obtained.
type TransportError struct {
	Kind     TransportKind
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error calling %s: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err, classifying it with ClassifyTransport.
func NewTransportError(endpoint string, err error) *TransportError {
	return &TransportError{
		Kind:     ClassifyTransport(err),
		Endpoint: endpoint,
		Err:      err,
	}
}

// ClassifyTransport maps a transport-level error onto a TransportKind.
// Deadline expiry and net timeouts are timeouts; everything else is a
// connection failure.
func ClassifyTransport(err error) TransportKind {
	if IsTimeout(err) {
		return TransportTimeout
	}
	return TransportConnection
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Kind == TransportTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	return false
}

// IsConnectionFailure reports whether err looks like a refused, reset or
// unresolvable connection. Used for operator logs only.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}
	lowerErr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "broken pipe", "no such host"} {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}
