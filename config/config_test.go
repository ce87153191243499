package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mcp-toolbox/config"
)

var envKeys = []string{
	"MCP_SERVER_NAME", "MCP_SERVER_VERSION", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	"MCP_TRANSPORT", "MCP_CALL_TIMEOUT", "MCP_VALIDATE_INPUT", "MCP_FILE_ROOT",
	"MCP_RATE_LIMIT", "MCP_RATE_BURST", "MCP_MAX_REQUEST_BYTES", "MCP_ADMIN_ADDR",
}

// clearEnv blanks every variable Load reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	assert.Equal(t, "mcp-toolbox", cfg.Name)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, config.TransportStdio, cfg.Transport)
	assert.Equal(t, config.Duration(30*time.Second), cfg.CallTimeout)
	assert.True(t, cfg.ValidateInput)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCP_SERVER_NAME", "toolbox-test")
	t.Setenv("MCP_SERVER_VERSION", "2.0.0")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_CALL_TIMEOUT", "5s")
	t.Setenv("MCP_VALIDATE_INPUT", "false")
	t.Setenv("MCP_FILE_ROOT", "/srv/data")
	t.Setenv("MCP_RATE_LIMIT", "20")
	t.Setenv("MCP_RATE_BURST", "10")
	t.Setenv("MCP_MAX_REQUEST_BYTES", "2048")
	t.Setenv("MCP_ADMIN_ADDR", ":9090")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "toolbox-test", cfg.Name)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.TransportHTTP, cfg.Transport)
	assert.Equal(t, config.Duration(5*time.Second), cfg.CallTimeout)
	assert.False(t, cfg.ValidateInput)
	assert.Equal(t, "/srv/data", cfg.FileRoot)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.Equal(t, int64(2048), cfg.MaxRequestBytes)
	assert.Equal(t, ":9090", cfg.AdminAddr)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "toolbox.yaml", `
name: from-file
port: 4000
transport: websocket
call_timeout: 2m
rate_limit: 5
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, config.TransportWebSocket, cfg.Transport)
	assert.Equal(t, config.Duration(2*time.Minute), cfg.CallTimeout)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, "1.0.0", cfg.Version, "unset keys keep defaults")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("PORT", "5000")
		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, "from-file", cfg.Name)
	})

	t.Run("numeric duration is seconds", func(t *testing.T) {
		path := writeFile(t, "seconds.yaml", "call_timeout: 3\n")
		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.Duration(3*time.Second), cfg.CallTimeout)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(writeFile(t, "bad.yaml", "port: [1, 2\n"))
		assert.ErrorIs(t, err, config.ErrInvalid)
	})

	tests := []struct {
		key, value string
	}{
		{"PORT", "http"},
		{"PORT", "70000"},
		{"MCP_CALL_TIMEOUT", "soon"},
		{"MCP_VALIDATE_INPUT", "maybe"},
		{"MCP_RATE_LIMIT", "-1"},
		{"MCP_TRANSPORT", "carrier-pigeon"},
		{"LOG_LEVEL", "loud"},
		{"MCP_MAX_REQUEST_BYTES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := config.Load("")
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.Name = ""
	cfg.Transport = "smtp"
	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "transport must be one of")
}
