// Package config loads runtime configuration for the gophdrop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (or the CONFIG env var).
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the HTTP upload API
//	-g string   address:port of the gRPC admin API
//	-s int      chunk size in bytes
//	-d string   path of the local upload-session database
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_http_addr": "http://127.0.0.1:8080",
//	  "admin_grpc_addr": "127.0.0.1:50051",
//	  "chunk_size": 1048576,
//	  "session_db": "gophdrop.db",
//	  "request_timeout": "30s",
//	  "log_level": "warn"
//	}
package config
