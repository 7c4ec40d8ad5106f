// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package config

import (
	"time"
)

// Config is the top-level configuration container for the go-alertsync
// application. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type Config struct {
	// Storage holds the local record store settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds the remote differential feed settings.
	Remote Remote `envPrefix:"REMOTE_"`

	// Sync holds the differential engine tuning knobs.
	Sync Sync `envPrefix:"SYNC_"`

	// Server holds the local HTTP API settings.
	Server Server `envPrefix:"SERVER_"`

	// Workers holds background sync job settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Storage holds connection settings for the durable local record store.
type Storage struct {
	// DSN selects the backend: a *.db / file path opens SQLite, a
	// postgres:// URI opens PostgreSQL, and the literal "memory" keeps
	// records in process memory only.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`
}

// Remote holds settings for the remote differential source.
type Remote struct {
	// BaseURL is the root URL of the differential feed
	// (e.g. "https://alerts.example.com").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds a single differential fetch (e.g. "15s").
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the differential engine tuning knobs. Zero values are replaced
// by defaults during GetConfig.
type Sync struct {
	// DeleteBatchSize is the number of removals executed concurrently per
	// batch during the delete phase.
	// Env: SYNC_DELETE_BATCH_SIZE
	DeleteBatchSize int `env:"DELETE_BATCH_SIZE"`

	// AddBatchSize is the number of inserts executed concurrently per
	// batch during the add phase.
	// Env: SYNC_ADD_BATCH_SIZE
	AddBatchSize int `env:"ADD_BATCH_SIZE"`

	// UpdateBatchSize is the number of updates executed concurrently per
	// batch during the update phase. Defaults lower than the other two
	// because conflict resolution is more expensive per item.
	// Env: SYNC_UPDATE_BATCH_SIZE
	UpdateBatchSize int `env:"UPDATE_BATCH_SIZE"`

	// MaxRetries is the per-record store-write retry limit. A failure at
	// or above the limit is surfaced as non-retryable.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// DefaultStrategy names the conflict strategy used when the caller
	// supplies none: local-wins, remote-wins, merge, prompt-user, custom.
	// Env: SYNC_DEFAULT_STRATEGY
	DefaultStrategy string `env:"DEFAULT_STRATEGY"`

	// Atomic makes every apply snapshot the store first and roll back on
	// catastrophic failure unless overridden per call.
	// Env: SYNC_ATOMIC
	Atomic bool `env:"ATOMIC"`

	// ValidatePayloads enables payload integrity checks before any
	// mutation, even when a caller does not request validation.
	// Env: SYNC_VALIDATE_PAYLOADS
	ValidatePayloads bool `env:"VALIDATE_PAYLOADS"`

	// OffloadThreshold is the payload item count at which an apply is
	// handed to the offload executor. Zero disables offloading.
	// Env: SYNC_OFFLOAD_THRESHOLD
	OffloadThreshold int `env:"OFFLOAD_THRESHOLD"`

	// OffloadPingTimeout bounds the connectivity probe performed before
	// the offload executor is used for the first time.
	// Env: SYNC_OFFLOAD_PING_TIMEOUT
	OffloadPingTimeout time.Duration `env:"OFFLOAD_PING_TIMEOUT"`
}

// Server holds network settings for the local HTTP API.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "127.0.0.1:8090").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Workers holds background sync job settings.
type Workers struct {
	// SyncInterval defines how often the background job fetches and
	// applies a differential (e.g. "5m").
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// Defaults applied by GetConfig for any Sync field left unset.
const (
	DefaultDeleteBatchSize    = 50
	DefaultAddBatchSize       = 50
	DefaultUpdateBatchSize    = 25
	DefaultMaxRetries         = 3
	DefaultStrategyName       = "remote-wins"
	DefaultOffloadPingTimeout = 2 * time.Second
)

// GetConfig assembles the application configuration from environment
// variables, command-line flags, and an optional JSON file, fills in
// defaults, and validates the result.
func GetConfig() (*Config, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (cfg *Config) applyDefaults() {
	if cfg.Sync.DeleteBatchSize <= 0 {
		cfg.Sync.DeleteBatchSize = DefaultDeleteBatchSize
	}
	if cfg.Sync.AddBatchSize <= 0 {
		cfg.Sync.AddBatchSize = DefaultAddBatchSize
	}
	if cfg.Sync.UpdateBatchSize <= 0 {
		cfg.Sync.UpdateBatchSize = DefaultUpdateBatchSize
	}
	if cfg.Sync.MaxRetries <= 0 {
		cfg.Sync.MaxRetries = DefaultMaxRetries
	}
	if cfg.Sync.DefaultStrategy == "" {
		cfg.Sync.DefaultStrategy = DefaultStrategyName
	}
	if cfg.Sync.OffloadPingTimeout <= 0 {
		cfg.Sync.OffloadPingTimeout = DefaultOffloadPingTimeout
	}
	if cfg.Remote.RequestTimeout <= 0 {
		cfg.Remote.RequestTimeout = 15 * time.Second
	}
	if cfg.Workers.SyncInterval <= 0 {
		cfg.Workers.SyncInterval = 5 * time.Minute
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "alertsync.db"
	}
}
