package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "http://localhost:8080", cfg.Issuer.URL)
	assert.Equal(t, "5m", cfg.Issuer.TTL)
	assert.Equal(t, "ES256", cfg.Keys.Algorithm)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, "keywheel.yaml", `
server:
  http_port: 9000
issuer:
  url: https://issuer.example.com
  ttl: 10m
keys:
  algorithm: RS256
  import_files:
    - keys/signing.json
log:
  level: debug
  format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "https://issuer.example.com", cfg.Issuer.URL)
	assert.Equal(t, "10m", cfg.Issuer.TTL)
	assert.Equal(t, "RS256", cfg.Keys.Algorithm)
	assert.Equal(t, []string{"keys/signing.json"}, cfg.Keys.ImportFiles)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeConfigFile(t, "keywheel.json", `{"server": {"http_port": 9001}}`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.HTTPPort)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeConfigFile(t, "keywheel.ini", "[server]")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "keywheel.yaml", `
server:
  http_port: 9000
`)

	t.Setenv("KEYWHEEL_SERVER_HTTP_PORT", "9090")
	t.Setenv("KEYWHEEL_LOG_LEVEL", "warn")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("KEYWHEEL_SERVER_HTTP_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--http-port", "7000", "--issuer-url", "https://cli.example.com"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.HTTPPort)
	assert.Equal(t, "https://cli.example.com", cfg.Issuer.URL)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	path := writeConfigFile(t, "keywheel.yaml", `
server:
  http_port: 9000
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
}

func TestEnvToKey(t *testing.T) {
	assert.Equal(t, "server.http_port", envToKey("KEYWHEEL_SERVER_HTTP_PORT"))
	assert.Equal(t, "issuer.url", envToKey("KEYWHEEL_ISSUER_URL"))
	assert.Equal(t, "keys.import_dir", envToKey("KEYWHEEL_KEYS_IMPORT_DIR"))
	assert.Equal(t, "log", envToKey("KEYWHEEL_LOG"))
}
