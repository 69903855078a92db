package id

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewLogID generates a sortable log identifier with a stable prefix.
func NewLogID() string {
	return fmt.Sprintf("log-%s", ksuid.New().String())
}

// NewRequestID generates a time-ordered submission identifier. It falls back
// to a KSUID when the UUIDv7 clock source fails.
func NewRequestID() string {
	if uuidv7, err := uuid.NewV7(); err == nil {
		return "req-" + uuidv7.String()
	}
	return "req-" + ksuid.New().String()
}
