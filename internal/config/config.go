// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/restproxy/config.toml",
	"configs/config.toml",
}

// Relay modes for the proxy route.
const (
	RelayStream = "stream"
	RelayBuffer = "buffer"
)

// reservedRoutes are paths the metrics endpoint must not shadow.
var reservedRoutes = []string{"/proxy", "/healthz"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config    string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host      string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port      int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel  string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	RelayMode string `kong:"help='Response relay mode: stream|buffer (overrides config).',env='RELAY_MODE'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Proxy   ProxyConfig   `toml:"proxy"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"` // 0 means "use default" (5100); TOML cannot distinguish 0 from unset
}

// ProxyConfig holds settings for the /proxy/ route.
type ProxyConfig struct {
	RelayMode string `toml:"relay_mode"`
}

// Streaming reports whether upstream bodies are relayed chunk by chunk.
func (p ProxyConfig) Streaming() bool {
	return p.RelayMode != RelayBuffer
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/restproxy/config.toml then configs/config.toml, and falls back to
// built-in defaults when neither exists.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.RelayMode != "" {
		c.Proxy.RelayMode = cli.RelayMode
	}
}

func (c *Config) validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port))
	}

	switch strings.ToLower(c.Proxy.RelayMode) {
	case RelayStream, RelayBuffer, "":
	default:
		errs = append(errs, fmt.Errorf("proxy.relay_mode must be one of: stream, buffer; got %q", c.Proxy.RelayMode))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format))
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			errs = append(errs, fmt.Errorf("metrics.path must start with '/'; got %q", p))
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				errs = append(errs, fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved))
			}
		}
	}

	return errors.Join(errs...)
}

// setDefaults fills zero-valued fields with sensible defaults.
// Setting port=0 in the config file results in the default port (5100).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5100
	}
	c.Proxy.RelayMode = strings.ToLower(c.Proxy.RelayMode)
	if c.Proxy.RelayMode == "" {
		c.Proxy.RelayMode = RelayStream
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// FilePath returns the config file that was loaded, or "" when running on defaults.
func (c *Config) FilePath() string {
	return c.filePath
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
