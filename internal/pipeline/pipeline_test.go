package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
	"menulens/internal/observability"
	"menulens/internal/relay"
)

type fakeSender struct {
	calls atomic.Int32
	resp  *relay.RawResponse
	err   error
}

func (f *fakeSender) Send(ctx context.Context, payload menu.UploadPayload) (*relay.RawResponse, error) {
	f.calls.Add(1)
	return f.resp, f.err
}

func jpeg(size int64) menu.UploadPayload {
	return menu.NewUploadPayload(make([]byte, size), "image/jpeg", "menu.jpg", "")
}

func TestProcess_InvalidPayloadNeverRelays(t *testing.T) {
	cases := map[string]struct {
		payload menu.UploadPayload
		message string
	}{
		"empty":      {menu.NewUploadPayload(nil, "image/jpeg", "", ""), menu.MsgSelectImage},
		"oversize":   {jpeg(menu.DefaultMaxFileSize + 1), menu.MsgTooLarge},
		"wrong type": {menu.NewUploadPayload([]byte("%PDF"), "application/pdf", "m.pdf", ""), "Invalid file type. Please upload a JPG, PNG, or HEIC file. Detected type: application/pdf"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sender := &fakeSender{}
			outcome := New(nil, sender).Process(context.Background(), tc.payload)

			failure, ok := outcome.(*menu.Failure)
			require.True(t, ok)
			assert.Equal(t, menu.KindInputInvalid, failure.Kind)
			assert.Equal(t, tc.message, failure.Message)
			assert.Equal(t, int32(0), sender.calls.Load())
		})
	}
}

func TestProcess_RelaysExactlyOnce(t *testing.T) {
	sender := &fakeSender{resp: &relay.RawResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"data":[{"originalName":"a","translatedName":"b","description":"c","isRecommended":false}]}`),
	}}
	outcome := New(nil, sender).Process(context.Background(), jpeg(16))

	success, ok := outcome.(*menu.Success)
	require.True(t, ok)
	assert.Len(t, success.Items, 1)
	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestProcess_UpstreamFailureIsNotRetried(t *testing.T) {
	sender := &fakeSender{resp: &relay.RawResponse{StatusCode: http.StatusBadGateway, Body: []byte("bad gateway")}}
	outcome := New(nil, sender).Process(context.Background(), jpeg(16))

	failure, ok := outcome.(*menu.Failure)
	require.True(t, ok)
	assert.Equal(t, menu.KindUpstreamServer, failure.Kind)
	assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestProcess_TimeoutAgainstSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	r, err := relay.New(relay.Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	outcome := New(nil, r).Process(context.Background(), jpeg(16))
	failure, ok := outcome.(*menu.Failure)
	require.True(t, ok)
	assert.Equal(t, menu.KindTransportTimeout, failure.Kind)
	assert.Equal(t, menu.MsgTimeout, failure.Message)
}

func TestProcess_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewMetricsCollectorWithRegistry(observability.MetricsConfig{Enabled: true}, reg, reg)
	require.NoError(t, err)
	rejections := observability.NewRejectionMetricsWithRegisterer(reg)

	sender := &fakeSender{resp: &relay.RawResponse{StatusCode: http.StatusOK, Body: []byte(`{"output":[]}`)}}
	p := New(nil, sender, WithHop("proxy"), WithMetrics(collector, rejections))

	failure, ok := p.Process(context.Background(), jpeg(8)).(*menu.Failure)
	require.True(t, ok)
	assert.Equal(t, menu.KindUpstreamEmpty, failure.Kind)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "menulens_pipeline_failures_total")
}

func TestProcess_NoSenderIsGenericFailure(t *testing.T) {
	failure, ok := New(nil, nil).Process(context.Background(), jpeg(8)).(*menu.Failure)
	require.True(t, ok)
	assert.Equal(t, menu.MsgGeneric, failure.Message)
}
