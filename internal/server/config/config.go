// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Chunk store and storage backends.
const (
	BackendFS     = "fs"
	BackendBadger = "badger"
	BackendLocal  = "local"
	BackendS3     = "s3"
)

// Queue lock modes.
const (
	LockProcess = "process"
	LockFile    = "file"
)

// SMTPConfig holds outgoing mail settings. Encryption is one of "tls"
// (STARTTLS), "ssl" (implicit TLS) or "none".
type SMTPConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string
	FromEmail  string
	FromName   string
}

// Config holds runtime settings for the gophdrop server.
//
// An empty DatabaseDSN keeps users in memory; they are then loaded from
// UsersFile only. A zero ChunkTTL disables the chunk sweeper and a zero
// BatchWindow disables automatic notification flushing.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	LogLevel                    string

	UploadMaxSize     int64
	OverwriteOnUpload bool
	ChunkStoreBackend string
	ChunkStoreDir     string
	StorageBackend    string
	StorageDir        string

	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3KeyPrefix string

	QueueFile     string
	QueueLockMode string

	UsersFile    string
	GuestHomeDir string
	AdminUsers   []string

	SMTP SMTPConfig

	ChunkTTL      time.Duration
	SweepInterval time.Duration
	BatchWindow   time.Duration
	BatchInterval time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.LogLevel = "info"

	c.UploadMaxSize = 100 * 1024 * 1024
	c.OverwriteOnUpload = false
	c.ChunkStoreBackend = BackendFS
	c.ChunkStoreDir = "data/chunks"
	c.StorageBackend = BackendLocal
	c.StorageDir = "data/files"

	c.S3Region = "us-east-1"

	c.QueueFile = "data/notifications.json"
	c.QueueLockMode = LockFile

	// empty: anonymous uploads are refused
	c.GuestHomeDir = ""

	c.SMTP = SMTPConfig{
		Port:       587,
		Encryption: "tls",
		FromEmail:  "noreply@example.com",
		FromName:   "gophdrop",
	}

	c.ChunkTTL = 24 * time.Hour
	c.SweepInterval = time.Hour
	c.BatchWindow = 0
	c.BatchInterval = time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// IsAdmin reports whether username is listed in AdminUsers.
func (c *Config) IsAdmin(username string) bool {
	for _, u := range c.AdminUsers {
		if u == username {
			return true
		}
	}
	return false
}
