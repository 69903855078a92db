package menu

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies why a submission failed. It is logged and used for status
// mapping but never serialized to callers.
type Kind int

const (
	KindInputInvalid Kind = iota + 1
	KindTransportTimeout
	KindTransportConnection
	KindUpstreamClient
	KindUpstreamServer
	KindUpstreamEmpty
)

func (k Kind) String() string {
	switch k {
	case KindInputInvalid:
		return "input_invalid"
	case KindTransportTimeout:
		return "transport_timeout"
	case KindTransportConnection:
		return "transport_connection"
	case KindUpstreamClient:
		return "upstream_client"
	case KindUpstreamServer:
		return "upstream_server"
	case KindUpstreamEmpty:
		return "upstream_empty"
	default:
		return "unknown"
	}
}

// User-facing failure messages. This is the closed set callers can see, apart
// from an error string relayed verbatim from a non-2xx reply.
const (
	MsgSelectImage   = "Please select an image to upload."
	MsgTooLarge      = "File is too large. Maximum size is 10MB."
	MsgInvalidType   = "Invalid file type. Please upload a JPG, PNG, or HEIC file. Detected type: %s"
	MsgTimeout       = "The request took too long and timed out. Please try again with a smaller image or better connection."
	MsgGeneric       = "Oops! Something went wrong. Please check your connection and try again."
	MsgUnreadable    = "Sorry, we couldn't read this menu. Please try a clearer, well-lit photo."
	MsgNoDishesFound = "We couldn't find any dishes in that photo. Please ensure the menu text is visible."
)

const msgTooLargeFmt = "File is too large. Maximum size is %s."

// TooLargeMessage states the limit in MB. The default limit yields MsgTooLarge.
func TooLargeMessage(maxFileSize int64) string {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	const mib = 1024 * 1024
	if maxFileSize%mib == 0 {
		return fmt.Sprintf(msgTooLargeFmt, fmt.Sprintf("%dMB", maxFileSize/mib))
	}
	if maxFileSize >= mib/10 {
		return fmt.Sprintf(msgTooLargeFmt, strconv.FormatFloat(float64(maxFileSize)/mib, 'f', 1, 64)+"MB")
	}
	return fmt.Sprintf(msgTooLargeFmt, fmt.Sprintf("%d bytes", maxFileSize))
}

// Outcome is the terminal value of the pipeline: either *Success or *Failure.
type Outcome interface {
	json.Marshaler
	outcome()
}

// Success holds a non-empty list of dishes in upstream order.
type Success struct {
	Items []Item
}

func (*Success) outcome() {}

// MarshalJSON renders {"data": [...]}.
func (s *Success) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data []Item `json:"data"`
	}{Data: s.Items})
}

// Failure holds the message shown to the caller. Kind and StatusCode are for
// operators and status mapping only.
type Failure struct {
	Kind       Kind
	Message    string
	StatusCode int
}

func (*Failure) outcome() {}

// MarshalJSON renders {"error": "..."}.
func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error string `json:"error"`
	}{Error: f.Message})
}

// Error lets a Failure travel as an error value.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Succeed returns a Success, or the "no dishes" Failure when items is empty.
func Succeed(items []Item) Outcome {
	if len(items) == 0 {
		return Fail(KindUpstreamEmpty, MsgNoDishesFound)
	}
	return &Success{Items: items}
}

// Fail returns a Failure of the given kind.
func Fail(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}
