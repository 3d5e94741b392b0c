package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string               `toml:"environment"`
	Server      ServerConfig         `toml:"server"`
	API         APIConfig            `toml:"api"`
	Session     SessionConfig        `toml:"session"`
	MCP         MCPConfig            `toml:"mcp"`
	Logging     common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// APIConfig points at the report-generation backend.
type APIConfig struct {
	URL           string `toml:"url"`
	Timeout       string `toml:"timeout"`        // report generation and PDF download
	SearchTimeout string `toml:"search_timeout"` // ticker lookups
}

// GetTimeout parses the request timeout, falling back to five minutes.
func (c *APIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 5*time.Minute)
}

// GetSearchTimeout parses the lookup timeout, falling back to ten seconds.
func (c *APIConfig) GetSearchTimeout() time.Duration {
	return parseDuration(c.SearchTimeout, 10*time.Second)
}

// SessionConfig controls where per-browser state is kept.
// Backend is "memory" (default) or "redis".
type SessionConfig struct {
	Backend       string      `toml:"backend"`
	TTL           string      `toml:"ttl"`
	MaxEntries    int         `toml:"max_entries"`
	SweepSchedule string      `toml:"sweep_schedule"`
	Redis         RedisConfig `toml:"redis"`
}

// GetTTL parses the session lifetime, falling back to two hours.
func (c *SessionConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, 2*time.Hour)
}

// RedisConfig contains Redis connection settings for the redis session backend.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

// MCPConfig toggles the MCP endpoint.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// IsDevMode returns true when the environment is "dev".
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// BaseURL returns the externally reachable portal URL.
func (c *Config) BaseURL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// Validate returns human-readable issues with mandatory settings.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}

	if strings.TrimSpace(c.API.URL) == "" {
		issues = append(issues, "api.url is required (GENVEST_API_URL)")
	} else if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("api.url must be an absolute http(s) URL (got %q)", c.API.URL))
	}

	for name, value := range map[string]string{
		"api.timeout":        c.API.Timeout,
		"api.search_timeout": c.API.SearchTimeout,
		"session.ttl":        c.Session.TTL,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			issues = append(issues, fmt.Sprintf("%s must be a positive duration (got %q)", name, value))
		}
	}

	switch strings.ToLower(c.Session.Backend) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(c.Session.Redis.Addr) == "" {
			issues = append(issues, "session.redis.addr is required when session.backend is redis (GENVEST_REDIS_ADDR)")
		}
	default:
		issues = append(issues, fmt.Sprintf("session.backend must be memory or redis (got %q)", c.Session.Backend))
	}

	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies GENVEST_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GENVEST_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("GENVEST_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GENVEST_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if apiURL := os.Getenv("GENVEST_API_URL"); apiURL != "" {
		config.API.URL = strings.TrimRight(apiURL, "/")
	}
	if timeout := os.Getenv("GENVEST_API_TIMEOUT"); timeout != "" {
		config.API.Timeout = timeout
	}
	if backend := os.Getenv("GENVEST_SESSION_BACKEND"); backend != "" {
		config.Session.Backend = backend
	}
	if addr := os.Getenv("GENVEST_REDIS_ADDR"); addr != "" {
		config.Session.Redis.Addr = addr
	}
	if password := os.Getenv("GENVEST_REDIS_PASSWORD"); password != "" {
		config.Session.Redis.Password = password
	}
	if enabled := os.Getenv("GENVEST_MCP_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.MCP.Enabled = b
		}
	}
	if level := os.Getenv("GENVEST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("GENVEST_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
