// Package httpclient builds the outbound HTTP clients used by relay hops.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"menulens/internal/logging"
)

// New returns a client for relay calls. It sets no overall Timeout: the
// relay bounds each call through the request context so that the body read
// shares the same deadline.
func New(logger logging.Logger) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Transport: &loggingRoundTripper{base: transport, logger: logging.OrNop(logger)},
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := t.base.RoundTrip(req)
	logger := logging.FromContext(req.Context(), t.logger)
	if err != nil {
		logger.Debug("%s %s failed after %s: %v", req.Method, req.URL.Redacted(), time.Since(started), err)
		return nil, err
	}
	logger.Debug("%s %s -> %d headers in %s", req.Method, req.URL.Redacted(), resp.StatusCode, time.Since(started))
	return resp, nil
}
