package config

import "github.com/bobmcallan/genvest-portal/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4245,
			Host: "localhost",
		},
		API: APIConfig{
			URL:           "http://localhost:5000/api",
			Timeout:       "5m",
			SearchTimeout: "10s",
		},
		Session: SessionConfig{
			Backend:       "memory",
			TTL:           "2h",
			MaxEntries:    1000,
			SweepSchedule: "@every 5m",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "genvest:session:",
			},
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}
