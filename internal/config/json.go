package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration is a time.Duration that unmarshals from either a JSON number of
// nanoseconds or a duration string like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("error parsing duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("unsupported duration value: %v", raw)
	}
}

type jsonConfig struct {
	Storage struct {
		DSN string `json:"dsn"`
	} `json:"storage,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Sync struct {
		DeleteBatchSize    int      `json:"delete_batch_size"`
		AddBatchSize       int      `json:"add_batch_size"`
		UpdateBatchSize    int      `json:"update_batch_size"`
		MaxRetries         int      `json:"max_retries"`
		DefaultStrategy    string   `json:"default_strategy"`
		Atomic             bool     `json:"atomic"`
		ValidatePayloads   bool     `json:"validate_payloads"`
		OffloadThreshold   int      `json:"offload_threshold"`
		OffloadPingTimeout Duration `json:"offload_ping_timeout"`
	} `json:"sync,omitempty"`

	Server struct {
		HTTPAddress string `json:"http_address"`
	} `json:"server,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg jsonConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		Storage: Storage{
			DSN: jsonCfg.Storage.DSN,
		},
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Sync: Sync{
			DeleteBatchSize:    jsonCfg.Sync.DeleteBatchSize,
			AddBatchSize:       jsonCfg.Sync.AddBatchSize,
			UpdateBatchSize:    jsonCfg.Sync.UpdateBatchSize,
			MaxRetries:         jsonCfg.Sync.MaxRetries,
			DefaultStrategy:    jsonCfg.Sync.DefaultStrategy,
			Atomic:             jsonCfg.Sync.Atomic,
			ValidatePayloads:   jsonCfg.Sync.ValidatePayloads,
			OffloadThreshold:   jsonCfg.Sync.OffloadThreshold,
			OffloadPingTimeout: time.Duration(jsonCfg.Sync.OffloadPingTimeout),
		},
		Server: Server{
			HTTPAddress: jsonCfg.Server.HTTPAddress,
		},
		Workers: Workers{SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval)},
	}

	return cfg, nil
}
