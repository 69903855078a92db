package normalize

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "menulens/internal/errors"
	"menulens/internal/menu"
	"menulens/internal/relay"
	jsonx "menulens/internal/shared/json"
)

const itemA = `{"originalName":"麻婆豆腐","translatedName":"Mapo Tofu","description":"Spicy tofu","isRecommended":true}`
const itemB = `{"originalName":"餃子","translatedName":"Dumplings","description":"Pan fried","isRecommended":false}`

var expectedItems = []menu.Item{
	{OriginalName: "麻婆豆腐", TranslatedName: "Mapo Tofu", Description: "Spicy tofu", IsRecommended: true},
	{OriginalName: "餃子", TranslatedName: "Dumplings", Description: "Pan fried", IsRecommended: false},
}

func ok(body string) *relay.RawResponse {
	return &relay.RawResponse{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(body)}
}

func status(code int, body string) *relay.RawResponse {
	return &relay.RawResponse{StatusCode: code, Body: []byte(body)}
}

func requireFailure(t *testing.T, outcome menu.Outcome) *menu.Failure {
	t.Helper()
	failure, isFailure := outcome.(*menu.Failure)
	require.True(t, isFailure, "expected failure, got %T", outcome)
	return failure
}

func TestNormalize_SuccessShapes(t *testing.T) {
	bodies := map[string]string{
		"data":   fmt.Sprintf(`{"data":[%s,%s]}`, itemA, itemB),
		"output": fmt.Sprintf(`{"output":[%s,%s]}`, itemA, itemB),
		"nested": fmt.Sprintf(`[{"output":{"data":{"menuItems":[%s,%s]}}},{"ignored":true}]`, itemA, itemB),
	}
	n := New()
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			outcome := n.Normalize(ok(body), nil)
			success, isSuccess := outcome.(*menu.Success)
			require.True(t, isSuccess, "expected success, got %T", outcome)
			assert.Equal(t, expectedItems, success.Items)
		})
	}
}

func TestNormalize_DataShapeWinsOverOutput(t *testing.T) {
	body := fmt.Sprintf(`{"data":[%s],"output":[%s]}`, itemA, itemB)
	success, isSuccess := New().Normalize(ok(body), nil).(*menu.Success)
	require.True(t, isSuccess)
	assert.Equal(t, expectedItems[:1], success.Items)
}

func TestNormalize_EmptyResults(t *testing.T) {
	cases := map[string]string{
		"empty output":      `{"output":[]}`,
		"empty data":        `{"data":[]}`,
		"unknown envelope":  `{"items":[1,2]}`,
		"empty array":       `[]`,
		"data not an array": `{"data":"nope"}`,
		"all malformed":     `{"data":[{"originalName":"x"},{"originalName":1,"translatedName":"y","description":"z","isRecommended":true}]}`,
		"null fields":       `{"data":[{"originalName":null,"translatedName":"y","description":"z","isRecommended":true}]}`,
		"string bool":       `{"data":[{"originalName":"a","translatedName":"b","description":"c","isRecommended":"yes"}]}`,
	}
	n := New()
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			failure := requireFailure(t, n.Normalize(ok(body), nil))
			assert.Equal(t, menu.KindUpstreamEmpty, failure.Kind)
			assert.Equal(t, menu.MsgNoDishesFound, failure.Message)
		})
	}
}

func TestNormalize_DropsMalformedItemsKeepingOrder(t *testing.T) {
	body := fmt.Sprintf(`{"data":[%s,{"originalName":"broken"},"text",%s]}`, itemA, itemB)
	success, isSuccess := New().Normalize(ok(body), nil).(*menu.Success)
	require.True(t, isSuccess)
	assert.Equal(t, expectedItems, success.Items)
}

func TestNormalize_ErrorFieldOnSuccessStatus(t *testing.T) {
	bodies := []string{
		`{"error":"model overloaded","data":[]}`,
		`{"error":null,"data":[{"originalName":"a","translatedName":"b","description":"c","isRecommended":false}]}`,
		`{"error":{},"output":[]}`,
	}
	n := New()
	for _, body := range bodies {
		failure := requireFailure(t, n.Normalize(ok(body), nil))
		assert.Equal(t, menu.KindUpstreamServer, failure.Kind, body)
		assert.Equal(t, menu.MsgUnreadable, failure.Message, body)
	}
}

func TestNormalize_NonJSONSuccessBody(t *testing.T) {
	failure := requireFailure(t, New().Normalize(ok(`<html>ok</html>`), nil))
	assert.Equal(t, menu.KindUpstreamServer, failure.Kind)
	assert.Equal(t, menu.MsgGeneric, failure.Message)
}

func TestNormalize_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		resp    *relay.RawResponse
		kind    menu.Kind
		message string
	}{
		{"503 html", status(http.StatusServiceUnavailable, "<html>Service Unavailable</html>"), menu.KindUpstreamServer, menu.MsgUnreadable},
		{"500 error field", status(http.StatusInternalServerError, `{"error":"OCR engine crashed"}`), menu.KindUpstreamServer, "OCR engine crashed"},
		{"413 error field", status(http.StatusRequestEntityTooLarge, `{"error":"File is too large. Maximum size is 10MB."}`), menu.KindUpstreamClient, menu.MsgTooLarge},
		{"400 no error field", status(http.StatusBadRequest, `{"message":"bad"}`), menu.KindUpstreamClient, menu.MsgUnreadable},
		{"422 non-string error", status(http.StatusUnprocessableEntity, `{"error":{"code":1}}`), menu.KindUpstreamClient, menu.MsgUnreadable},
		{"302 redirect", status(http.StatusFound, ""), menu.KindUpstreamServer, menu.MsgUnreadable},
		{"504 from proxy timeout", status(http.StatusGatewayTimeout, `{"error":"`+menu.MsgTimeout+`"}`), menu.KindTransportTimeout, menu.MsgTimeout},
		{"504 html", status(http.StatusGatewayTimeout, "<html>Gateway Timeout</html>"), menu.KindUpstreamServer, menu.MsgUnreadable},
	}
	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := requireFailure(t, n.Normalize(tt.resp, nil))
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.message, failure.Message)
			assert.Equal(t, tt.resp.StatusCode, failure.StatusCode)
		})
	}
}

func TestNormalize_TransportErrors(t *testing.T) {
	n := New()

	timeout := requireFailure(t, n.Normalize(nil, &apperrors.TransportError{Kind: apperrors.TransportTimeout, Err: context.DeadlineExceeded}))
	assert.Equal(t, menu.KindTransportTimeout, timeout.Kind)
	assert.Equal(t, menu.MsgTimeout, timeout.Message)

	refused := requireFailure(t, n.Normalize(nil, &apperrors.TransportError{Kind: apperrors.TransportConnection, Err: fmt.Errorf("connection refused")}))
	assert.Equal(t, menu.KindTransportConnection, refused.Kind)
	assert.Equal(t, menu.MsgGeneric, refused.Message)
	assert.NotEqual(t, timeout.Message, refused.Message)

	missing := requireFailure(t, n.Normalize(nil, nil))
	assert.Equal(t, menu.KindTransportConnection, missing.Kind)
}

func TestNormalize_IsIdempotent(t *testing.T) {
	inputs := []*relay.RawResponse{
		ok(fmt.Sprintf(`{"data":[%s]}`, itemA)),
		ok(`{"output":[]}`),
		status(http.StatusServiceUnavailable, "down"),
	}
	n := New()
	for _, input := range inputs {
		first, err := jsonx.Marshal(n.Normalize(input, nil))
		require.NoError(t, err)
		second, err := jsonx.Marshal(n.Normalize(input, nil))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(second))
	}
}

func TestNormalize_RecoversFromMatcherPanic(t *testing.T) {
	n := New(WithMatchers(ShapeMatcher{
		Name: "explodes",
		Match: func(jsonx.RawMessage) ([]jsonx.RawMessage, bool) {
			panic("boom")
		},
	}))
	failure := requireFailure(t, n.Normalize(ok(`{}`), nil))
	assert.Equal(t, menu.MsgGeneric, failure.Message)
}
