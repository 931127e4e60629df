package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/flagx"
	"github.com/dmitrijs2005/gophdrop/internal/timex"
)

type jsonSMTP struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Encryption string `json:"encryption"`
	FromEmail  string `json:"from_email"`
	FromName   string `json:"from_name"`
}

// JsonConfig is the on-disk shape of Config. Durations are timex.Duration
// so both "15m" and integer nanoseconds are accepted. Keys missing from
// the file keep their current value.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`

	UploadMaxSize     int64  `json:"upload_max_size"`
	OverwriteOnUpload bool   `json:"overwrite_on_upload"`
	ChunkStoreBackend string `json:"chunk_store_backend"`
	ChunkStoreDir     string `json:"chunk_store_dir"`
	StorageBackend    string `json:"storage_backend"`
	StorageDir        string `json:"storage_dir"`

	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3KeyPrefix string `json:"s3_key_prefix"`

	QueueFile     string `json:"queue_file"`
	QueueLockMode string `json:"queue_lock_mode"`

	UsersFile    string   `json:"users_file"`
	GuestHomeDir string   `json:"guest_homedir"`
	AdminUsers   []string `json:"admin_users"`

	SMTP jsonSMTP `json:"smtp"`

	ChunkTTL      timex.Duration `json:"chunk_ttl"`
	SweepInterval timex.Duration `json:"sweep_interval"`
	BatchWindow   timex.Duration `json:"batch_window"`
	BatchInterval timex.Duration `json:"batch_interval"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		LogLevel:                    c.LogLevel,
		UploadMaxSize:               c.UploadMaxSize,
		OverwriteOnUpload:           c.OverwriteOnUpload,
		ChunkStoreBackend:           c.ChunkStoreBackend,
		ChunkStoreDir:               c.ChunkStoreDir,
		StorageBackend:              c.StorageBackend,
		StorageDir:                  c.StorageDir,
		S3AccessKey:                 c.S3AccessKey,
		S3SecretKey:                 c.S3SecretKey,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3Endpoint:                  c.S3Endpoint,
		S3KeyPrefix:                 c.S3KeyPrefix,
		QueueFile:                   c.QueueFile,
		QueueLockMode:               c.QueueLockMode,
		UsersFile:                   c.UsersFile,
		GuestHomeDir:                c.GuestHomeDir,
		AdminUsers:                  append([]string(nil), c.AdminUsers...),
		SMTP:                        jsonSMTP(c.SMTP),
		ChunkTTL:                    timex.Duration{Duration: c.ChunkTTL},
		SweepInterval:               timex.Duration{Duration: c.SweepInterval},
		BatchWindow:                 timex.Duration{Duration: c.BatchWindow},
		BatchInterval:               timex.Duration{Duration: c.BatchInterval},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = time.Duration(j.AccessTokenValidityDuration.Duration)
	c.LogLevel = j.LogLevel
	c.UploadMaxSize = j.UploadMaxSize
	c.OverwriteOnUpload = j.OverwriteOnUpload
	c.ChunkStoreBackend = j.ChunkStoreBackend
	c.ChunkStoreDir = j.ChunkStoreDir
	c.StorageBackend = j.StorageBackend
	c.StorageDir = j.StorageDir
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3Endpoint = j.S3Endpoint
	c.S3KeyPrefix = j.S3KeyPrefix
	c.QueueFile = j.QueueFile
	c.QueueLockMode = j.QueueLockMode
	c.UsersFile = j.UsersFile
	c.GuestHomeDir = j.GuestHomeDir
	c.AdminUsers = j.AdminUsers
	c.SMTP = SMTPConfig(j.SMTP)
	c.ChunkTTL = time.Duration(j.ChunkTTL.Duration)
	c.SweepInterval = time.Duration(j.SweepInterval.Duration)
	c.BatchWindow = time.Duration(j.BatchWindow.Duration)
	c.BatchInterval = time.Duration(j.BatchInterval.Duration)
}

// parseJson overlays the JSON file named by -c/-config (or the CONFIG
// environment variable) onto config. Without a file nothing changes.
// Unreadable files and invalid JSON panic.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := toJson(config)

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}
