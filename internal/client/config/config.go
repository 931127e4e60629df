package config

import "time"

// Config holds runtime settings for the gophdrop CLI.
type Config struct {
	ServerHTTPAddr string
	AdminGRPCAddr  string
	ChunkSize      int64
	SessionDB      string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerHTTPAddr = "http://127.0.0.1:8080"
	c.AdminGRPCAddr = "127.0.0.1:50051"
	c.ChunkSize = 1 << 20
	c.SessionDB = "gophdrop.db"
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
