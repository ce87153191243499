// Package config loads server settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// ErrInvalid is wrapped by every validation and parse failure.
var ErrInvalid = errors.New("invalid configuration")

// Transport names accepted by Config.Transport.
const (
	TransportStdio     = "stdio"
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Duration is a time.Duration that decodes from "30s" style strings.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds the server settings.
type Config struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Port      int    `json:"port"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	Transport string `json:"transport"`

	CallTimeout   Duration `json:"call_timeout"`
	ValidateInput bool     `json:"validate_input"`
	FileRoot      string   `json:"file_root"`

	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit       int   `json:"rate_limit"`
	RateBurst       int   `json:"rate_burst"`
	MaxRequestBytes int64 `json:"max_request_bytes"`

	// AdminAddr enables the admin HTTP server when set.
	AdminAddr string `json:"admin_addr"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Name:            "mcp-toolbox",
		Version:         "1.0.0",
		Port:            3000,
		LogLevel:        "info",
		LogFormat:       "text",
		Transport:       TransportStdio,
		CallTimeout:     Duration(30 * time.Second),
		ValidateInput:   true,
		FileRoot:        ".",
		MaxRequestBytes: 1 << 20,
	}
}

// Load builds the configuration. path names an optional YAML file; an
// empty path skips it. A .env file in the working directory is loaded
// when present, without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("MCP_SERVER_NAME"); ok {
		c.Name = v
	}
	if v, ok := get("MCP_SERVER_VERSION"); ok {
		c.Version = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := get("MCP_TRANSPORT"); ok {
		c.Transport = v
	}
	if v, ok := get("MCP_FILE_ROOT"); ok {
		c.FileRoot = v
	}
	if v, ok := get("MCP_ADMIN_ADDR"); ok {
		c.AdminAddr = v
	}

	var err error
	if v, ok := get("PORT"); ok {
		if c.Port, err = strconv.Atoi(v); err != nil {
			return envError("PORT", v, err)
		}
	}
	if v, ok := get("MCP_CALL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("MCP_CALL_TIMEOUT", v, err)
		}
		c.CallTimeout = Duration(d)
	}
	if v, ok := get("MCP_VALIDATE_INPUT"); ok {
		if c.ValidateInput, err = strconv.ParseBool(v); err != nil {
			return envError("MCP_VALIDATE_INPUT", v, err)
		}
	}
	if v, ok := get("MCP_RATE_LIMIT"); ok {
		if c.RateLimit, err = strconv.Atoi(v); err != nil {
			return envError("MCP_RATE_LIMIT", v, err)
		}
	}
	if v, ok := get("MCP_RATE_BURST"); ok {
		if c.RateBurst, err = strconv.Atoi(v); err != nil {
			return envError("MCP_RATE_BURST", v, err)
		}
	}
	if v, ok := get("MCP_MAX_REQUEST_BYTES"); ok {
		if c.MaxRequestBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return envError("MCP_MAX_REQUEST_BYTES", v, err)
		}
	}
	return nil
}

func envError(key, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, value, err)
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	var problems []string

	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportWebSocket:
	default:
		problems = append(problems, fmt.Sprintf("transport must be one of stdio, http, websocket, got %q", c.Transport))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.CallTimeout < 0 {
		problems = append(problems, "call_timeout must not be negative")
	}
	if c.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}
	if c.RateBurst < 0 {
		problems = append(problems, "rate_burst must not be negative")
	}
	if c.MaxRequestBytes <= 0 {
		problems = append(problems, "max_request_bytes must be positive")
	}
	if c.FileRoot == "" {
		problems = append(problems, "file_root is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address for network transports.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
