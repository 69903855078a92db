// Package config loads the menulens runtime configuration.
package config

import (
	"time"

	"menulens/internal/menu"
	"menulens/internal/relay"
)

// Defaults.
const (
	DefaultAddr             = ":8080"
	DefaultUpstreamTimeout  = 85 * time.Second
	DefaultProxyTimeout     = 90 * time.Second
	DefaultProxyURL         = "http://localhost:8080/api/proxyWebhook"
	DefaultReadTimeout      = 30 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultMaxResponseBytes = relay.DefaultMaxResponseBytes
)

// Config is the effective configuration after all layers are applied.
type Config struct {
	Environment      string         `mapstructure:"environment" yaml:"environment"`
	Server           ServerConfig   `mapstructure:"server" yaml:"server"`
	Upstream         EndpointConfig `mapstructure:"upstream" yaml:"upstream"`
	Proxy            EndpointConfig `mapstructure:"proxy" yaml:"proxy"`
	Upload           UploadConfig   `mapstructure:"upload" yaml:"upload"`
	MaxResponseBytes int64          `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
}

// ServerConfig configures the proxy hop listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// EndpointConfig is one relay target. Upstream is the webhook the proxy
// hop calls; Proxy is the proxy hop as seen by a caller.
type EndpointConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// UploadConfig holds the validation policy.
type UploadConfig struct {
	MaxFileSize     int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	AllowedTypes    []string `mapstructure:"allowed_types" yaml:"allowed_types"`
	DefaultLanguage string   `mapstructure:"default_language" yaml:"default_language"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Addr:            DefaultAddr,
			CORSOrigins:     []string{"*"},
			ReadTimeout:     DefaultReadTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Upstream: EndpointConfig{
			Timeout: DefaultUpstreamTimeout,
		},
		Proxy: EndpointConfig{
			URL:     DefaultProxyURL,
			Timeout: DefaultProxyTimeout,
		},
		Upload: UploadConfig{
			MaxFileSize:     menu.DefaultMaxFileSize,
			AllowedTypes:    append([]string(nil), menu.DefaultAllowedTypes...),
			DefaultLanguage: menu.DefaultLanguage,
		},
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// Policy returns the validator policy.
func (c Config) Policy() menu.Policy {
	return menu.Policy{
		MaxFileSize:  c.Upload.MaxFileSize,
		AllowedTypes: c.Upload.AllowedTypes,
	}
}

// UpstreamRelay returns the relay config for the proxy hop's call to the webhook.
func (c Config) UpstreamRelay() relay.Config {
	return relay.Config{
		Endpoint:         c.Upstream.URL,
		Timeout:          c.Upstream.Timeout,
		FileField:        menu.UpstreamFileField,
		LanguageField:    menu.LanguageField,
		MaxResponseBytes: c.MaxResponseBytes,
		Hop:              "upstream",
	}
}

// ProxyRelay returns the relay config for a caller's call to the proxy hop.
func (c Config) ProxyRelay() relay.Config {
	return relay.Config{
		Endpoint:         c.Proxy.URL,
		Timeout:          c.Proxy.Timeout,
		FileField:        menu.InboundFileField,
		LanguageField:    menu.LanguageField,
		MaxResponseBytes: c.MaxResponseBytes,
		Hop:              "proxy",
	}
}

// IsProduction reports whether the environment is production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
