package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses all configuration flags from os.Args.
//
// Flags:
//
//	-a local HTTP API address in format [host]:[port]
//	-d local store DSN (file path, postgres:// URI, or "memory")
//	-r remote feed base URL
//	-c/-config json file path with configs
//	-sync-interval background sync interval (e.g., "5m")
//	-request-timeout remote fetch timeout (e.g., "15s")
//	-strategy default conflict strategy name
//	-atomic enable atomic apply mode by default
//	-max-retries per-record store-write retry limit
func ParseFlags() *Config {
	return parseFlags(flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:])
}

// parseFlags is the testable core of ParseFlags: it operates on an injected
// FlagSet and argument list instead of the process globals.
func parseFlags(fs *flag.FlagSet, args []string) *Config {
	var httpAddress string
	var storeDSN string
	var remoteBaseURL string
	var jsonConfigPath string
	var syncInterval time.Duration
	var requestTimeout time.Duration
	var strategy string
	var atomic bool
	var maxRetries int

	fs.StringVar(&httpAddress, "a", "", "Local HTTP API address host:port")
	fs.StringVar(&storeDSN, "d", "", "Local store DSN")
	fs.StringVar(&remoteBaseURL, "r", "", "Remote feed base URL")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Remote fetch timeout (e.g., 15s)")
	fs.StringVar(&strategy, "strategy", "", "Default conflict strategy")
	fs.BoolVar(&atomic, "atomic", false, "Enable atomic apply mode")
	fs.IntVar(&maxRetries, "max-retries", 0, "Per-record store-write retry limit")

	_ = fs.Parse(args)

	return &Config{
		Storage: Storage{
			DSN: storeDSN,
		},
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			DefaultStrategy: strategy,
			Atomic:          atomic,
			MaxRetries:      maxRetries,
		},
		Server: Server{
			HTTPAddress: httpAddress,
		},
		Workers:      Workers{SyncInterval: syncInterval},
		JSONFilePath: jsonConfigPath,
	}
}
