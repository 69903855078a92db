package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBodyWithinLimit(t *testing.T) {
	payload := []byte("hello")
	got, err := ReadBody(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadBodyTooLarge(t *testing.T) {
	_, err := ReadBody(bytes.NewReader([]byte("hello")), 2)
	require.Error(t, err)
	assert.True(t, IsBodyTooLarge(err))
}

func TestReadBodyUnlimited(t *testing.T) {
	got, err := ReadBody(bytes.NewReader([]byte("hello")), 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestClientRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := New(nil)
	assert.Zero(t, client.Timeout)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
