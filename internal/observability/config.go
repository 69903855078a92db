package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the observability section of the menulens config file
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default observability configuration
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:        true,
			PrometheusPort: 9464,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SampleRate:     1.0,
			ServiceName:    "menulens",
			ServiceVersion: "1.0.0",
		},
	}
}

// fileSection mirrors Config with presence-aware switches so an absent
// "enabled" key keeps the default.
type fileSection struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics struct {
		Enabled        *bool `yaml:"enabled"`
		PrometheusPort int   `yaml:"prometheus_port"`
	} `yaml:"metrics"`
	Tracing struct {
		Enabled        *bool   `yaml:"enabled"`
		Exporter       string  `yaml:"exporter"`
		OTLPEndpoint   string  `yaml:"otlp_endpoint"`
		ZipkinEndpoint string  `yaml:"zipkin_endpoint"`
		SampleRate     float64 `yaml:"sample_rate"`
		ServiceName    string  `yaml:"service_name"`
		ServiceVersion string  `yaml:"service_version"`
	} `yaml:"tracing"`
}

// LoadConfig reads the observability section of the menulens config file and
// merges it over DefaultConfig. A missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil
		}
		configPath = filepath.Join(homeDir, ".menulens", "menulens.yaml")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	var file struct {
		Observability fileSection `yaml:"observability"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	section := file.Observability

	if section.Logging.Level != "" {
		config.Logging.Level = section.Logging.Level
	}
	if section.Logging.Format != "" {
		config.Logging.Format = section.Logging.Format
	}

	if section.Metrics.Enabled != nil {
		config.Metrics.Enabled = *section.Metrics.Enabled
	}
	if section.Metrics.PrometheusPort > 0 {
		config.Metrics.PrometheusPort = section.Metrics.PrometheusPort
	}

	if section.Tracing.Enabled != nil {
		config.Tracing.Enabled = *section.Tracing.Enabled
	}
	if section.Tracing.Exporter != "" {
		config.Tracing.Exporter = section.Tracing.Exporter
	}
	if section.Tracing.OTLPEndpoint != "" {
		config.Tracing.OTLPEndpoint = section.Tracing.OTLPEndpoint
	}
	if section.Tracing.ZipkinEndpoint != "" {
		config.Tracing.ZipkinEndpoint = section.Tracing.ZipkinEndpoint
	}
	// A zero sample rate cannot be expressed here; disable tracing instead.
	if section.Tracing.SampleRate > 0 && section.Tracing.SampleRate <= 1.0 {
		config.Tracing.SampleRate = section.Tracing.SampleRate
	}
	if section.Tracing.ServiceName != "" {
		config.Tracing.ServiceName = section.Tracing.ServiceName
	}
	if section.Tracing.ServiceVersion != "" {
		config.Tracing.ServiceVersion = section.Tracing.ServiceVersion
	}

	return config, nil
}
