package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	errs := c.commonErrors()
	if c.Proxy.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("proxy.timeout must be positive, got %s", c.Proxy.Timeout))
	}
	// The proxy hop must give up on the webhook before its caller gives up
	// on the proxy.
	if c.Upstream.Timeout > 0 && c.Proxy.Timeout > 0 && c.Upstream.Timeout >= c.Proxy.Timeout {
		errs = append(errs, fmt.Errorf("upstream.timeout (%s) must be shorter than proxy.timeout (%s)", c.Upstream.Timeout, c.Proxy.Timeout))
	}
	return errors.Join(errs...)
}

// ValidateDirect checks a caller that skips the proxy and calls the webhook
// itself. Only the upstream budget applies.
func (c Config) ValidateDirect() error {
	errs := c.commonErrors()
	if c.Upstream.URL == "" {
		errs = append(errs, errors.New("upstream.url is required to call the webhook directly"))
	}
	return errors.Join(errs...)
}

func (c Config) commonErrors() []error {
	var errs []error

	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout))
	}
	if c.Upstream.URL != "" {
		if err := checkAbsoluteURL("upstream.url", c.Upstream.URL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Proxy.URL != "" {
		if err := checkAbsoluteURL("proxy.url", c.Proxy.URL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size must be positive, got %d", c.Upload.MaxFileSize))
	}
	if len(c.Upload.AllowedTypes) == 0 {
		errs = append(errs, errors.New("upload.allowed_types must not be empty"))
	}
	if c.MaxResponseBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_response_bytes must be positive, got %d", c.MaxResponseBytes))
	}
	return errs
}

// ValidateServe additionally requires what the proxy hop needs to run.
func (c Config) ValidateServe() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Upstream.URL == "" {
		errs = append(errs, errors.New("upstream.url is required to serve"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required to serve"))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout))
	}
	return errors.Join(errs...)
}

func checkAbsoluteURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
