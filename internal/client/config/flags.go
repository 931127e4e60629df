package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// os.Args is filtered first so unrelated arguments do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-d", "-t", "-l"})
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerHTTPAddr, "a", cfg.ServerHTTPAddr, "base URL of the HTTP upload API")
	fs.StringVar(&cfg.AdminGRPCAddr, "g", cfg.AdminGRPCAddr, "address and port of the gRPC admin API")
	fs.Int64Var(&cfg.ChunkSize, "s", cfg.ChunkSize, "chunk size in bytes")
	fs.StringVar(&cfg.SessionDB, "d", cfg.SessionDB, "upload session database")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
