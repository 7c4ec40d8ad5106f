// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/store"
	"github.com/akarpov/go-alertsync/models"
)

// EngineConfig carries the tuning knobs of one SyncEngine instance. Zero
// values are replaced with defaults by NewSyncEngine.
type EngineConfig struct {
	// DeleteBatchSize bounds per-batch concurrency in the delete phase.
	DeleteBatchSize int
	// AddBatchSize bounds per-batch concurrency in the add phase.
	AddBatchSize int
	// UpdateBatchSize bounds per-batch concurrency in the update phase.
	// Defaults lower because conflict resolution is more expensive per item.
	UpdateBatchSize int
	// MaxRetries is the per-record store-write retry limit.
	MaxRetries int
	// DefaultStrategy is used when no conflict handler picks one.
	DefaultStrategy Strategy
	// Atomic enables snapshot-and-rollback for every apply.
	Atomic bool
	// ValidatePayloads validates payloads even when the caller does not
	// request it.
	ValidatePayloads bool
	// OffloadThreshold is the payload item count at which an apply is
	// delegated to the offload executor; zero disables delegation.
	OffloadThreshold int
	// OffloadPingTimeout bounds the connectivity probe before the
	// offload executor is used for the first time.
	OffloadPingTimeout time.Duration
}

// DefaultEngineConfig returns the stock engine tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DeleteBatchSize:    50,
		AddBatchSize:       50,
		UpdateBatchSize:    25,
		MaxRetries:         3,
		DefaultStrategy:    StrategyRemoteWins,
		ValidatePayloads:   true,
		OffloadPingTimeout: 2 * time.Second,
	}
}

func (c *EngineConfig) applyDefaults() {
	def := DefaultEngineConfig()
	if c.DeleteBatchSize <= 0 {
		c.DeleteBatchSize = def.DeleteBatchSize
	}
	if c.AddBatchSize <= 0 {
		c.AddBatchSize = def.AddBatchSize
	}
	if c.UpdateBatchSize <= 0 {
		c.UpdateBatchSize = def.UpdateBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.OffloadPingTimeout <= 0 {
		c.OffloadPingTimeout = def.OffloadPingTimeout
	}
}

type queuedApply struct {
	ctx     context.Context
	payload models.DifferentialPayload
	opts    ApplyOptions
}

// syncEngine is the concrete implementation of SyncEngine.
//
// Exactly one apply runs at a time; the queue mutex only serializes
// admission, not the work itself. All other mutable state (retry counters,
// pending conflicts, optimistic snapshots) is guarded by stateMu because
// batch goroutines touch it concurrently within a phase.
type syncEngine struct {
	store    store.RecordStore
	tracker  ChangeTracker
	resolver ConflictResolver
	cfg      EngineConfig
	log      *logger.Logger

	progressFn ProgressFunc
	conflictFn ConflictFunc
	resultFn   ResultFunc

	offloader      Offloader
	offloadChecked bool
	offloadHealthy bool

	mu    sync.Mutex
	busy  bool
	queue []queuedApply

	stateMu    sync.Mutex
	retries    map[string]int
	pending    map[string]models.Record
	optimistic map[string]models.Record
}

// NewSyncEngine constructs a SyncEngine over the given collaborators.
func NewSyncEngine(
	recordStore store.RecordStore,
	tracker ChangeTracker,
	resolver ConflictResolver,
	cfg EngineConfig,
	log *logger.Logger,
) SyncEngine {
	cfg.applyDefaults()
	return &syncEngine{
		store:      recordStore,
		tracker:    tracker,
		resolver:   resolver,
		cfg:        cfg,
		log:        log,
		retries:    make(map[string]int),
		pending:    make(map[string]models.Record),
		optimistic: make(map[string]models.Record),
	}
}

func (e *syncEngine) SetProgressHandler(fn ProgressFunc) { e.progressFn = fn }
func (e *syncEngine) SetConflictHandler(fn ConflictFunc) { e.conflictFn = fn }
func (e *syncEngine) SetResultHandler(fn ResultFunc)     { e.resultFn = fn }
func (e *syncEngine) SetOffloader(o Offloader)           { e.offloader = o }

// Apply implements SyncEngine. When another apply is in flight the payload
// joins the FIFO queue and a placeholder result is returned immediately;
// queued payloads are drained strictly in arrival order by the goroutine
// that finishes the current apply.
func (e *syncEngine) Apply(ctx context.Context, payload models.DifferentialPayload, opts ApplyOptions) (models.SyncResult, error) {
	e.mu.Lock()
	if e.busy {
		e.queue = append(e.queue, queuedApply{ctx: ctx, payload: payload, opts: opts})
		position := len(e.queue)
		e.mu.Unlock()

		e.log.Debug().Int("position", position).Int("items", payload.Size()).Msg("apply queued")
		return models.SyncResult{Queued: true, QueuePosition: position}, nil
	}
	e.busy = true
	e.mu.Unlock()

	result, err := e.run(ctx, payload, opts)
	e.emitResult(result)

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.busy = false
			e.mu.Unlock()
			break
		}
		next := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		// The enqueuer's context may already be done by the time its
		// payload drains (an HTTP caller got its 202 long ago), so only
		// its values survive into the drained apply.
		queuedResult, queuedErr := e.run(context.WithoutCancel(next.ctx), next.payload, next.opts)
		if queuedErr != nil {
			e.log.Warn().Err(queuedErr).Msg("queued apply rejected")
		}
		e.emitResult(queuedResult)
	}

	return result, err
}

func (e *syncEngine) emitResult(result models.SyncResult) {
	if e.resultFn != nil {
		e.resultFn(result)
	}
}

// TrackLocalChange implements SyncEngine. The change is applied to the
// stored record immediately (optimistic update) and tracked for later
// reconciliation; the pre-optimistic record is kept so the caller can still
// cancel.
func (e *syncEngine) TrackLocalChange(ctx context.Context, id string, changes map[string]any) error {
	record, err := e.store.Get(ctx, id)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return err
	}

	if err == nil {
		e.stateMu.Lock()
		if _, ok := e.optimistic[id]; !ok {
			e.optimistic[id] = record.Clone()
		}
		e.stateMu.Unlock()

		updated := models.LocalEdit{ID: id, Changes: changes}.ApplyTo(record)
		updated.Updated = time.Now()
		if err = e.store.Update(ctx, updated); err != nil {
			return err
		}
	}

	e.tracker.Track(id, changes)
	return nil
}

// RollbackLocalChange implements SyncEngine.
func (e *syncEngine) RollbackLocalChange(ctx context.Context, id string) error {
	e.stateMu.Lock()
	original, ok := e.optimistic[id]
	delete(e.optimistic, id)
	e.stateMu.Unlock()

	if !ok {
		e.tracker.Clear(id)
		return ErrNoOptimisticState
	}

	if err := e.store.Update(ctx, original); err != nil {
		return err
	}

	e.tracker.Clear(id)
	return nil
}

// ResolveConflict implements SyncEngine. It consumes the pending remote
// record recorded by a previous apply whose resolution required user
// intervention.
func (e *syncEngine) ResolveConflict(ctx context.Context, id string, strategy Strategy) (models.ConflictInfo, error) {
	remote, ok := e.pendingRemote(id)
	if !ok {
		return models.ConflictInfo{}, ErrNoPendingConflict
	}

	local, err := e.store.Get(ctx, id)
	if err != nil {
		return models.ConflictInfo{}, err
	}

	var editPtr *models.LocalEdit
	if edit, hasEdit := e.tracker.Get(id); hasEdit {
		editPtr = &edit
	}

	res := e.resolver.Resolve(local, remote, editPtr, strategy)
	info := models.ConflictInfo{
		ID:                       id,
		Conflicts:                res.Conflicts,
		Resolved:                 res.Resolved,
		RequiresUserIntervention: res.RequiresUserIntervention,
		Strategy:                 strategy.String(),
	}

	if !res.Resolved {
		return info, nil
	}

	if err = e.store.Update(ctx, res.Record); err != nil {
		return models.ConflictInfo{}, err
	}

	e.tracker.Clear(id)
	e.clearPending(id)
	e.clearRecordState(id)
	return info, nil
}

// State implements SyncEngine.
func (e *syncEngine) State() models.EngineState {
	e.mu.Lock()
	queueLength := len(e.queue)
	busy := e.busy
	e.mu.Unlock()

	return models.EngineState{
		QueueLength:      queueLength,
		PendingEditCount: e.tracker.Count(),
		Busy:             busy,
	}
}

// ── shared bookkeeping ──────────────────────────────────────────────────────

// noteFailure bumps the per-record retry counter and reports whether the
// failure is still retryable. Counters survive across applies until the
// record succeeds or the caller intervenes.
func (e *syncEngine) noteFailure(id string) (retryable bool, attempts int) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.retries[id]++
	attempts = e.retries[id]
	return attempts < e.cfg.MaxRetries, attempts
}

func (e *syncEngine) clearRecordState(id string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	delete(e.retries, id)
	delete(e.optimistic, id)
}

func (e *syncEngine) notePending(id string, remote models.Record) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.pending[id] = remote.Clone()
}

func (e *syncEngine) pendingRemote(id string) (models.Record, bool) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	remote, ok := e.pending[id]
	return remote, ok
}

func (e *syncEngine) clearPending(id string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	delete(e.pending, id)
}

func (e *syncEngine) reportProgress(phase models.SyncPhase, current, total int) {
	if e.progressFn == nil {
		return
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(current) / float64(total) * 100
	}

	e.progressFn(models.SyncProgress{
		Phase:      phase,
		Current:    current,
		Total:      total,
		Percentage: percentage,
	})
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}

	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
