package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, meta, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)

	assert.Empty(t, meta.ConfigFile)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 85*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, menu.DefaultMaxFileSize, cfg.Upload.MaxFileSize)
	assert.Equal(t, menu.DefaultAllowedTypes, cfg.Upload.AllowedTypes)
	assert.Equal(t, "English", cfg.Upload.DefaultLanguage)
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateServe(), "serving needs an upstream URL")
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "menulens.yaml", `
server:
  addr: ":9000"
  cors_origins: ["https://menu.example"]
upstream:
  url: https://hooks.example/menu
  timeout: 60s
upload:
  max_file_size: 2048
observability:
  logging:
    level: debug
`)
	t.Setenv("MENULENS_UPSTREAM_TIMEOUT", "70s")
	t.Setenv("MENULENS_UPLOAD_ALLOWED_TYPES", "image/png,image/webp")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", DefaultAddr, "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7000"}))

	cfg, meta, err := Load(
		WithSearchPaths(dir),
		WithFlags(flags, map[string]string{"server.addr": "addr"}),
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "menulens.yaml"), meta.ConfigFile)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://menu.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "https://hooks.example/menu", cfg.Upstream.URL)
	assert.Equal(t, 70*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, int64(2048), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"image/png", "image/webp"}, cfg.Upload.AllowedTypes)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoad_UnsetFlagDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "menulens.yaml", "server:\n  addr: \":9100\"\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":1234", "")
	require.NoError(t, flags.Parse(nil))

	cfg, _, err := Load(WithSearchPaths(dir), WithFlags(flags, map[string]string{"server.addr": "addr"}))
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, _, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoad_UnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, _, err := Load(WithSearchPaths(t.TempDir()), WithFlags(flags, map[string]string{"server.addr": "nope"}))
	assert.Error(t, err)
}

func TestValidate_TimeoutOrdering(t *testing.T) {
	cfg := Default()
	cfg.Upstream.URL = "https://hooks.example/menu"

	cfg.Upstream.Timeout = 90 * time.Second
	assert.ErrorContains(t, cfg.Validate(), "must be shorter than proxy.timeout")

	cfg.Upstream.Timeout = 95 * time.Second
	assert.Error(t, cfg.Validate())

	cfg.Upstream.Timeout = 89 * time.Second
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Upstream.URL = "hooks.example/menu"
	cfg.Proxy.URL = "ftp://proxy.example"
	cfg.Upload.MaxFileSize = 0
	cfg.Upload.AllowedTypes = nil
	cfg.MaxResponseBytes = -1

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"upstream.url", "proxy.url", "upload.max_file_size", "upload.allowed_types", "max_response_bytes"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestRelayConfigs(t *testing.T) {
	cfg := Default()
	cfg.Upstream.URL = "https://hooks.example/menu"

	upstream := cfg.UpstreamRelay()
	assert.Equal(t, menu.UpstreamFileField, upstream.FileField)
	assert.Equal(t, DefaultUpstreamTimeout, upstream.Timeout)
	assert.Equal(t, "upstream", upstream.Hop)

	proxy := cfg.ProxyRelay()
	assert.Equal(t, menu.InboundFileField, proxy.FileField)
	assert.Equal(t, DefaultProxyTimeout, proxy.Timeout)
	assert.Equal(t, DefaultProxyURL, proxy.Endpoint)
}

func TestValidateDirect_IgnoresProxyBudget(t *testing.T) {
	cfg := Default()
	cfg.Upstream.Timeout = 2 * time.Minute
	assert.Error(t, cfg.ValidateDirect(), "direct calls need an upstream URL")

	cfg.Upstream.URL = "https://hooks.example/menu"
	assert.NoError(t, cfg.ValidateDirect())
	assert.Error(t, cfg.Validate())

	cfg.Upstream.Timeout = 0
	assert.ErrorContains(t, cfg.ValidateDirect(), "upstream.timeout must be positive")
}

func TestIsProduction(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "production"
	assert.True(t, cfg.IsProduction())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "MENULENS_DOTENV_PROBE=from-file\n")

	t.Setenv("MENULENS_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("MENULENS_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("MENULENS_DOTENV_PROBE"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
