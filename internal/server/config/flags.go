package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC admin bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN; empty keeps users in memory
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-m int      upload size limit, bytes
//	-o          overwrite existing files on upload
//	-k string   chunk staging directory
//	-f string   storage directory for the local backend
//	-q string   notification queue file
//	-u string   users file imported at startup
//	-A string   comma separated admin usernames
//	-l string   log level
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgsWithBools(os.Args[1:],
		[]string{"-a", "-g", "-d", "-s", "-t", "-m", "-k", "-f", "-q", "-u", "-A", "-l"},
		[]string{"-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC admin address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.Int64Var(&config.UploadMaxSize, "m", config.UploadMaxSize, "upload size limit in bytes")
	fs.BoolVar(&config.OverwriteOnUpload, "o", config.OverwriteOnUpload, "overwrite existing files")
	fs.StringVar(&config.ChunkStoreDir, "k", config.ChunkStoreDir, "chunk staging directory")
	fs.StringVar(&config.StorageDir, "f", config.StorageDir, "storage directory")
	fs.StringVar(&config.QueueFile, "q", config.QueueFile, "notification queue file")
	fs.StringVar(&config.UsersFile, "u", config.UsersFile, "users file")

	admins := fs.String("A", strings.Join(config.AdminUsers, ","), "comma separated admin usernames")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.AdminUsers = splitList(*admins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
