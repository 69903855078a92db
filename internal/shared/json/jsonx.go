// Package jsonx routes JSON handling through goccy/go-json.
package jsonx

import (
	"bytes"

	"github.com/goccy/go-json"
)

var (
	Marshal       = json.Marshal
	MarshalIndent = json.MarshalIndent
	Unmarshal     = json.Unmarshal
	Valid         = json.Valid
	NewEncoder    = json.NewEncoder
)

type RawMessage = json.RawMessage

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
