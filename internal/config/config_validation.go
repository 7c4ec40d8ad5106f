// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package config

// knownStrategies is the closed set of conflict strategy names accepted in
// configuration.
var knownStrategies = map[string]struct{}{
	"local-wins":  {},
	"remote-wins": {},
	"merge":       {},
	"prompt-user": {},
	"custom":      {},
}

// validate checks that the final merged [Config] satisfies all application
// invariants before it is used at startup. It runs after defaults have been
// applied, so zero values here mean a genuinely broken configuration.
func (cfg *Config) validate() error {
	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if _, ok := knownStrategies[cfg.Sync.DefaultStrategy]; !ok {
		return ErrInvalidSyncConfigs
	}

	if cfg.Sync.DeleteBatchSize <= 0 || cfg.Sync.AddBatchSize <= 0 || cfg.Sync.UpdateBatchSize <= 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Sync.MaxRetries <= 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
