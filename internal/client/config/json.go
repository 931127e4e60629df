package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdrop/internal/flagx"
	"github.com/dmitrijs2005/gophdrop/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration
// so they may be written as "30s" or as integer nanoseconds.
type JsonConfig struct {
	ServerHTTPAddr string         `json:"server_http_addr"`
	AdminGRPCAddr  string         `json:"admin_grpc_addr"`
	ChunkSize      int64          `json:"chunk_size"`
	SessionDB      string         `json:"session_db"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with values from the file named by -c/-config.
// Keys missing from the file keep their current values. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	jc := JsonConfig{
		ServerHTTPAddr: cfg.ServerHTTPAddr,
		AdminGRPCAddr:  cfg.AdminGRPCAddr,
		ChunkSize:      cfg.ChunkSize,
		SessionDB:      cfg.SessionDB,
		RequestTimeout: timex.Duration{Duration: cfg.RequestTimeout},
		LogLevel:       cfg.LogLevel,
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerHTTPAddr = jc.ServerHTTPAddr
	cfg.AdminGRPCAddr = jc.AdminGRPCAddr
	cfg.ChunkSize = jc.ChunkSize
	cfg.SessionDB = jc.SessionDB
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.LogLevel = jc.LogLevel
}
