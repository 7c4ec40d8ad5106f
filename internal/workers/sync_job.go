// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/akarpov/go-alertsync/internal/adapter"
	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/store"
)

// SyncJob periodically pulls a differential payload from the remote source
// and applies it through the engine.
type SyncJob interface {
	Worker

	// Start stops any previous run and launches the ticker goroutine.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the goroutine and blocks until it has exited. Safe to
	// call when the job is not running.
	Stop()

	// SyncOnce runs a single fetch-and-apply cycle immediately.
	SyncOnce(ctx context.Context) error
}

type syncJob struct {
	remote adapter.RemoteSource
	engine service.SyncEngine
	store  store.RecordStore
	log    *logger.Logger

	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a SyncJob that is idle until Start or Run is called.
func NewSyncJob(
	remote adapter.RemoteSource,
	engine service.SyncEngine,
	recordStore store.RecordStore,
	interval time.Duration,
	log *logger.Logger,
) SyncJob {
	return &syncJob{
		remote:   remote,
		engine:   engine,
		store:    recordStore,
		interval: interval,
		log:      log,
	}
}

// Run implements Worker; it starts the job with its configured interval.
func (j *syncJob) Run() {
	j.Start(context.Background(), j.interval)
}

func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if err := j.SyncOnce(jobCtx); err != nil {
					j.log.Warn().Err(err).Msg("periodic sync failed")
				}
			}
		}
	}()
}

func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// SyncOnce fetches everything upstream changed since the last recorded sync
// and applies it. Queued applies count as success: the engine delivers their
// result through its result handler once drained.
func (j *syncJob) SyncOnce(ctx context.Context) error {
	since, err := j.store.LastSyncTimestamp(ctx)
	if err != nil {
		return err
	}

	payload, err := j.remote.FetchDifferential(ctx, since)
	if err != nil {
		return err
	}
	if payload.Size() == 0 {
		j.log.Debug().Msg("remote reports no changes")
		return nil
	}

	result, err := j.engine.Apply(ctx, payload, service.ApplyOptions{ValidateFirst: true})
	if err != nil {
		return err
	}

	if result.Queued {
		j.log.Debug().Int("position", result.QueuePosition).Msg("sync payload queued behind running apply")
		return nil
	}

	j.log.Info().
		Bool("success", result.Success).
		Int("applied", len(result.Applied)).
		Int("conflicts", len(result.Conflicts)).
		Int("failed", len(result.Failed)).
		Msg("periodic sync applied")
	return nil
}
