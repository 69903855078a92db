// Package normalize turns whatever a relay hop produced into a menu.Outcome.
package normalize

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "menulens/internal/errors"
	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/observability"
	"menulens/internal/relay"
	jsonx "menulens/internal/shared/json"
)

const bodyPreviewLimit = 512

// Normalizer maps relay results onto Outcomes. It keeps no per-call state,
// so the same input always yields an equal Outcome.
type Normalizer struct {
	matchers []ShapeMatcher
	logger   logging.Logger
	metrics  *observability.RejectionMetrics
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the operator logger.
func WithLogger(logger logging.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logging.OrNop(logger)
	}
}

// WithMetrics records dropped items.
func WithMetrics(metrics *observability.RejectionMetrics) Option {
	return func(n *Normalizer) {
		n.metrics = metrics
	}
}

// WithMatchers replaces the envelope matchers.
func WithMatchers(matchers ...ShapeMatcher) Option {
	return func(n *Normalizer) {
		if len(matchers) > 0 {
			n.matchers = matchers
		}
	}
}

// New returns a Normalizer using DefaultMatchers.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		matchers: DefaultMatchers(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize classifies one relay result. Exactly one of resp and err is
// expected to be set; any panic while interpreting the body becomes the
// generic failure.
func (n *Normalizer) Normalize(resp *relay.RawResponse, err error) (outcome menu.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("normalize: recovered from panic: %v", r)
			outcome = menu.Fail(menu.KindUpstreamServer, menu.MsgGeneric)
		}
	}()

	if err != nil {
		return n.fromTransport(err)
	}
	if resp == nil {
		n.logger.Error("normalize: no response and no error")
		return menu.Fail(menu.KindTransportConnection, menu.MsgGeneric)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return n.fromErrorStatus(resp)
	}
	return n.fromSuccessStatus(resp)
}

func (n *Normalizer) fromTransport(err error) menu.Outcome {
	if apperrors.IsTimeout(err) {
		n.logger.Warn("normalize: relay timed out: %v", err)
		return menu.Fail(menu.KindTransportTimeout, menu.MsgTimeout)
	}
	n.logger.Warn("normalize: relay connection failed: %v", err)
	return menu.Fail(menu.KindTransportConnection, menu.MsgGeneric)
}

func (n *Normalizer) fromErrorStatus(resp *relay.RawResponse) menu.Outcome {
	kind := menu.KindUpstreamServer
	if resp.StatusCode >= 400 && resp.StatusCode <= 499 {
		kind = menu.KindUpstreamClient
	}
	n.logger.Warn("normalize: upstream answered %d: %s", resp.StatusCode, observability.PreviewBody(resp.Body, bodyPreviewLimit))

	message := menu.MsgUnreadable
	if text, ok := errorString(resp.Body); ok {
		message = text
	}
	// A proxy hop that timed out on the webhook answers 504 with the timeout
	// message; keep it classified as a timeout one hop further out.
	if resp.StatusCode == http.StatusGatewayTimeout && message == menu.MsgTimeout {
		kind = menu.KindTransportTimeout
	}
	failure := menu.Fail(kind, message)
	failure.StatusCode = resp.StatusCode
	return failure
}

func (n *Normalizer) fromSuccessStatus(resp *relay.RawResponse) menu.Outcome {
	body := jsonx.RawMessage(resp.Body)
	if !jsonx.Valid(body) {
		n.logger.Warn("normalize: upstream answered %d with a non-JSON body: %s", resp.StatusCode, observability.PreviewBody(resp.Body, bodyPreviewLimit))
		return menu.Fail(menu.KindUpstreamServer, menu.MsgGeneric)
	}

	if fields, ok := objectFields(body); ok {
		if value, has := fields["error"]; has {
			n.logger.Warn("normalize: upstream answered %d with an error field: %s", resp.StatusCode, observability.PreviewBody(value, bodyPreviewLimit))
			return menu.Fail(menu.KindUpstreamServer, menu.MsgUnreadable)
		}
	}

	for _, matcher := range n.matchers {
		raw, ok := matcher.Match(body)
		if !ok {
			continue
		}
		items, dropped := decodeItems(raw)
		if dropped > 0 {
			n.logger.Info("normalize: dropped %d of %d items from %q envelope", dropped, len(raw), matcher.Name)
			n.metrics.RecordDroppedItems(dropped)
		}
		return menu.Succeed(items)
	}

	n.logger.Warn("normalize: no known envelope in reply: %s", observability.PreviewBody(resp.Body, bodyPreviewLimit))
	return menu.Succeed(nil)
}

// errorString extracts a non-empty string "error" field from a JSON object.
func errorString(body []byte) (string, bool) {
	value, ok := objectField(jsonx.RawMessage(body), "error")
	if !ok {
		return "", false
	}
	var text string
	if err := jsonx.Unmarshal(value, &text); err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// decodeItems keeps, in order, every entry carrying all four fields with
// their declared types.
func decodeItems(raw []jsonx.RawMessage) ([]menu.Item, int) {
	items := make([]menu.Item, 0, len(raw))
	for _, entry := range raw {
		item, err := decodeItem(entry)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, len(raw) - len(items)
}

func decodeItem(entry jsonx.RawMessage) (menu.Item, error) {
	fields, ok := objectFields(entry)
	if !ok {
		return menu.Item{}, fmt.Errorf("item is not an object")
	}
	var item menu.Item
	for _, f := range []struct {
		key    string
		target any
	}{
		{"originalName", &item.OriginalName},
		{"translatedName", &item.TranslatedName},
		{"description", &item.Description},
		{"isRecommended", &item.IsRecommended},
	} {
		value, ok := fields[f.key]
		if !ok || jsonx.IsNull(value) {
			return menu.Item{}, fmt.Errorf("missing field %s", f.key)
		}
		if err := jsonx.Unmarshal(value, f.target); err != nil {
			return menu.Item{}, fmt.Errorf("field %s: %w", f.key, err)
		}
	}
	return item, nil
}
