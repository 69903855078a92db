package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MENULENS_UPSTREAM_URL.
const EnvPrefix = "MENULENS"

// ConfigName is the file name (without extension) searched for when no
// explicit path is given.
const ConfigName = "menulens"

// Metadata describes where the configuration came from.
type Metadata struct {
	ConfigFile string
	LoadedAt   time.Time
}

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	configPath  string
	searchPaths []string
	flags       *pflag.FlagSet
	flagKeys    map[string]string
}

// WithConfigPath loads exactly this file. A missing explicit file is an error.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) {
		o.configPath = strings.TrimSpace(path)
	}
}

// WithSearchPaths replaces the directories searched for menulens.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) {
		o.searchPaths = paths
	}
}

// WithFlags binds command-line flags to config keys. keys maps a config key
// (e.g. "upstream.url") to a flag name; only flags the user set override
// other layers.
func WithFlags(flags *pflag.FlagSet, keys map[string]string) Option {
	return func(o *loadOptions) {
		o.flags = flags
		o.flagKeys = keys
	}
}

// DefaultSearchPaths lists the working directory and ~/.menulens.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".menulens"))
	}
	return paths
}

// Load applies defaults, the YAML file, MENULENS_* environment variables and
// bound flags, in that order of increasing precedence. It does not validate.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{searchPaths: DefaultSearchPaths()}
	for _, opt := range opts {
		opt(&options)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if options.configPath != "" {
		v.SetConfigFile(options.configPath)
	} else {
		v.SetConfigName(ConfigName)
		for _, path := range options.searchPaths {
			v.AddConfigPath(path)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if options.configPath != "" || !errors.As(err, &notFound) {
			return Config{}, Metadata{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if options.flags != nil {
		for key, name := range options.flagKeys {
			flag := options.flags.Lookup(name)
			if flag == nil {
				return Config{}, Metadata{}, fmt.Errorf("bind flag %q: no such flag", name)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, Metadata{}, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Metadata{}, fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)

	return cfg, Metadata{ConfigFile: v.ConfigFileUsed(), LoadedAt: time.Now()}, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped, and
// nothing is loaded when MENULENS_ENVIRONMENT is production.
func LoadDotEnv(files ...string) error {
	if os.Getenv(EnvPrefix+"_ENVIRONMENT") == "production" {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("environment", cfg.Environment)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("upstream.url", cfg.Upstream.URL)
	v.SetDefault("upstream.timeout", cfg.Upstream.Timeout)
	v.SetDefault("proxy.url", cfg.Proxy.URL)
	v.SetDefault("proxy.timeout", cfg.Proxy.Timeout)
	v.SetDefault("upload.max_file_size", cfg.Upload.MaxFileSize)
	v.SetDefault("upload.allowed_types", cfg.Upload.AllowedTypes)
	v.SetDefault("upload.default_language", cfg.Upload.DefaultLanguage)
	v.SetDefault("max_response_bytes", cfg.MaxResponseBytes)
}

func normalize(cfg *Config) {
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Server.Addr = strings.TrimSpace(cfg.Server.Addr)
	cfg.Upstream.URL = strings.TrimSpace(cfg.Upstream.URL)
	cfg.Proxy.URL = strings.TrimSpace(cfg.Proxy.URL)
	cfg.Upload.DefaultLanguage = strings.TrimSpace(cfg.Upload.DefaultLanguage)
	cfg.Upload.AllowedTypes = trimAll(cfg.Upload.AllowedTypes)
	cfg.Server.CORSOrigins = trimAll(cfg.Server.CORSOrigins)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
