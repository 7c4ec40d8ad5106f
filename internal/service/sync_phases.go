// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/akarpov/go-alertsync/internal/store"
	"github.com/akarpov/go-alertsync/models"
)

// txLog collects the outcome of one apply while batch goroutines are
// running. All appends go through the mutex; slices are handed out only
// after every phase has finished.
type txLog struct {
	mu        sync.Mutex
	phase     models.SyncPhase
	applied   []models.SyncOperation
	conflicts []models.ConflictInfo
	failed    []models.FailedOperation
}

func newTxLog() *txLog {
	return &txLog{
		applied:   make([]models.SyncOperation, 0),
		conflicts: make([]models.ConflictInfo, 0),
		failed:    make([]models.FailedOperation, 0),
	}
}

func (t *txLog) setPhase(phase models.SyncPhase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}

func (t *txLog) currentPhase() models.SyncPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *txLog) noteApplied(opType models.OperationType, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.applied = append(t.applied, models.SyncOperation{
		OpID:      uuid.NewString(),
		Type:      opType,
		ID:        id,
		Timestamp: time.Now(),
	})
}

func (t *txLog) noteFailed(opType models.OperationType, id string, err error, retryable bool, attempts int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed = append(t.failed, models.FailedOperation{
		Type:      opType,
		ID:        id,
		Error:     err.Error(),
		Retryable: retryable,
		Attempts:  attempts,
	})
}

func (t *txLog) noteConflict(info models.ConflictInfo) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conflicts = append(t.conflicts, info)
	return len(t.conflicts) - 1
}

func (t *txLog) replaceConflict(idx int, info models.ConflictInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx >= 0 && idx < len(t.conflicts) {
		t.conflicts[idx] = info
	}
}

// unresolvedConflicts returns the indices of conflicts still waiting for a
// strategy decision.
func (t *txLog) unresolvedConflicts() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idxs []int
	for i, c := range t.conflicts {
		if !c.Resolved && c.RequiresUserIntervention {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (t *txLog) conflictAt(idx int) models.ConflictInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conflicts[idx]
}

// run executes one apply end to end. The returned error is non-nil only for
// payload validation failures; every other outcome, including rollback, is
// reported inside the result.
func (e *syncEngine) run(ctx context.Context, payload models.DifferentialPayload, opts ApplyOptions) (models.SyncResult, error) {
	start := time.Now()
	payloadBytes := payloadSizeBytes(payload)

	if opts.ValidateFirst || e.cfg.ValidatePayloads {
		e.reportProgress(models.PhaseValidate, 0, 1)
		if err := validatePayload(payload); err != nil {
			e.reportProgress(models.PhaseValidate, 1, 1)
			e.log.Warn().Err(err).Msg("payload rejected")
			return models.SyncResult{
				Success:    false,
				Applied:    []models.SyncOperation{},
				Conflicts:  []models.ConflictInfo{},
				Failed:     []models.FailedOperation{},
				Statistics: e.statistics(payload, newTxLog(), start, payloadBytes),
			}, err
		}
		e.reportProgress(models.PhaseValidate, 1, 1)
	}

	if e.shouldOffload(payload) {
		if result, ok := e.tryOffload(ctx, payload, start, payloadBytes); ok {
			return result, nil
		}
	}

	atomicMode := opts.Atomic || e.cfg.Atomic

	var backup []models.Record
	if atomicMode {
		e.reportProgress(models.PhaseBackup, 0, 1)
		snapshot, err := e.store.GetAll(ctx)
		if err != nil {
			// Nothing has been mutated yet, so there is nothing to roll
			// back; the apply is simply refused.
			e.reportProgress(models.PhaseBackup, 1, 1)
			tx := newTxLog()
			tx.noteFailed(models.OperationSync, "", fmt.Errorf("backup snapshot: %w", err), true, 0)
			return e.buildResult(payload, tx, nil, start, payloadBytes), nil
		}
		backup = snapshot
		e.reportProgress(models.PhaseBackup, 1, 1)
	}

	tx := newTxLog()
	phaseErr := e.runPhases(ctx, payload, tx)
	if phaseErr != nil {
		e.log.Error().Err(phaseErr).Str("phase", string(tx.currentPhase())).Msg("apply failed")
		if atomicMode {
			rollback := e.rollback(ctx, backup, phaseErr)
			return e.buildResult(payload, tx, rollback, start, payloadBytes), nil
		}
		tx.noteFailed(models.OperationSync, "", phaseErr, false, 0)
		return e.buildResult(payload, tx, nil, start, payloadBytes), nil
	}

	return e.finalize(ctx, payload, tx, start, payloadBytes), nil
}

// runPhases walks the mutation phases in order. A panic in any phase,
// including inside a batch goroutine, is converted into an error so the
// caller can roll back.
func (e *syncEngine) runPhases(ctx context.Context, payload models.DifferentialPayload, tx *txLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catastrophic failure in %s phase: %v", tx.currentPhase(), r)
		}
	}()

	if err = e.deletePhase(ctx, payload.Deleted, tx); err != nil {
		return fmt.Errorf("catastrophic failure in %s phase: %w", models.PhaseDelete, err)
	}
	if err = e.addPhase(ctx, payload.Added, tx); err != nil {
		return fmt.Errorf("catastrophic failure in %s phase: %w", models.PhaseAdd, err)
	}
	if err = e.updatePhase(ctx, payload.Updated, tx); err != nil {
		return fmt.Errorf("catastrophic failure in %s phase: %w", models.PhaseUpdate, err)
	}
	e.resolveRemainingPhase(ctx, tx)
	return nil
}

// guarded wraps a batch worker so a panic becomes the errgroup's error
// instead of crossing goroutine boundaries.
func guarded(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		fn()
		return nil
	}
}

// validatePayload checks the structural invariants every payload must hold:
// a timestamp, non-nil metadata, no duplicate ids across added and updated,
// and no id both deleted and upserted.
func validatePayload(p models.DifferentialPayload) error {
	if p.Timestamp.IsZero() {
		return newValidationError("payload timestamp is missing")
	}
	if p.Metadata == nil {
		return newValidationError("payload metadata is missing")
	}

	upserted := make(map[string]struct{}, len(p.Added)+len(p.Updated))
	for _, r := range p.Added {
		if r.ID == "" {
			return newValidationError("added record with empty id")
		}
		if _, dup := upserted[r.ID]; dup {
			return newValidationError("duplicate id %q in added/updated", r.ID)
		}
		upserted[r.ID] = struct{}{}
	}
	for _, r := range p.Updated {
		if r.ID == "" {
			return newValidationError("updated record with empty id")
		}
		if _, dup := upserted[r.ID]; dup {
			return newValidationError("duplicate id %q in added/updated", r.ID)
		}
		upserted[r.ID] = struct{}{}
	}

	deleted := make(map[string]struct{}, len(p.Deleted))
	for _, id := range p.Deleted {
		if id == "" {
			return newValidationError("deleted entry with empty id")
		}
		if _, dup := deleted[id]; dup {
			return newValidationError("duplicate id %q in deleted", id)
		}
		deleted[id] = struct{}{}
		if _, clash := upserted[id]; clash {
			return newValidationError("id %q appears in deleted and added/updated", id)
		}
	}

	return nil
}

func (e *syncEngine) deletePhase(ctx context.Context, ids []string, tx *txLog) error {
	tx.setPhase(models.PhaseDelete)
	total := len(ids)
	e.reportProgress(models.PhaseDelete, 0, total)

	for _, batch := range chunk(ids, e.cfg.DeleteBatchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range batch {
			g.Go(guarded(func() {
				removed, err := e.store.Remove(gctx, id)
				if err != nil {
					retryable, attempts := e.noteFailure(id)
					tx.noteFailed(models.OperationDelete, id, err, retryable, attempts)
					return
				}
				// Deleting an absent record is a no-op, not a failure.
				if removed {
					tx.noteApplied(models.OperationDelete, id)
				}
			}))
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	e.reportProgress(models.PhaseDelete, total, total)
	return nil
}

func (e *syncEngine) addPhase(ctx context.Context, records []models.Record, tx *txLog) error {
	tx.setPhase(models.PhaseAdd)
	total := len(records)
	e.reportProgress(models.PhaseAdd, 0, total)

	for _, batch := range chunk(records, e.cfg.AddBatchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, record := range batch {
			g.Go(guarded(func() {
				e.applyAdd(gctx, record, tx)
			}))
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	e.reportProgress(models.PhaseAdd, total, total)
	return nil
}

// applyAdd inserts one incoming record, overlaying any tracked local edit so
// an offline edit made against a record the remote re-sent is not lost. An
// already-existing record is handed to the update path instead.
func (e *syncEngine) applyAdd(ctx context.Context, record models.Record, tx *txLog) {
	incoming := record
	if edit, ok := e.tracker.Get(record.ID); ok {
		incoming = edit.ApplyTo(record)
	}

	err := e.store.Add(ctx, incoming)
	if err == nil {
		tx.noteApplied(models.OperationAdd, record.ID)
		return
	}

	if errors.Is(err, store.ErrRecordExists) {
		e.applyUpdate(ctx, record, tx)
		return
	}

	retryable, attempts := e.noteFailure(record.ID)
	tx.noteFailed(models.OperationAdd, record.ID, err, retryable, attempts)
}

func (e *syncEngine) updatePhase(ctx context.Context, records []models.Record, tx *txLog) error {
	tx.setPhase(models.PhaseUpdate)
	total := len(records)
	e.reportProgress(models.PhaseUpdate, 0, total)

	for _, batch := range chunk(records, e.cfg.UpdateBatchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, record := range batch {
			g.Go(guarded(func() {
				e.applyUpdate(gctx, record, tx)
			}))
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	e.reportProgress(models.PhaseUpdate, total, total)
	return nil
}

// applyUpdate reconciles one incoming record with its stored counterpart.
// A record missing locally is inserted; a record shadowed by a divergent
// local edit goes through conflict resolution.
func (e *syncEngine) applyUpdate(ctx context.Context, remote models.Record, tx *txLog) {
	local, err := e.store.Get(ctx, remote.ID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		if addErr := e.store.Add(ctx, remote); addErr != nil {
			retryable, attempts := e.noteFailure(remote.ID)
			tx.noteFailed(models.OperationAdd, remote.ID, addErr, retryable, attempts)
			return
		}
		tx.noteApplied(models.OperationAdd, remote.ID)
		return
	case err != nil:
		retryable, attempts := e.noteFailure(remote.ID)
		tx.noteFailed(models.OperationUpdate, remote.ID, err, retryable, attempts)
		return
	}

	if edit, hasEdit := e.tracker.Get(remote.ID); hasEdit && !recordsEqual(local, remote) {
		e.resolveAndWrite(ctx, local, remote, &edit, tx)
		return
	}

	if writeErr := e.store.Update(ctx, remote); writeErr != nil {
		retryable, attempts := e.noteFailure(remote.ID)
		tx.noteFailed(models.OperationUpdate, remote.ID, writeErr, retryable, attempts)
		return
	}
	tx.noteApplied(models.OperationUpdate, remote.ID)
}

// resolveAndWrite runs conflict resolution for one record and persists the
// winner. Unresolvable conflicts keep the local record untouched and park
// the remote version for a later ResolveConflict call.
func (e *syncEngine) resolveAndWrite(ctx context.Context, local, remote models.Record, edit *models.LocalEdit, tx *txLog) {
	strategy := e.cfg.DefaultStrategy
	if e.conflictFn != nil {
		detected := e.resolver.DetectConflicts(local, remote, edit)
		preview := models.ConflictInfo{ID: remote.ID, Conflicts: detected, Strategy: strategy.String()}
		if chosen, err := e.conflictFn(ctx, preview); err == nil {
			strategy = chosen
		} else {
			e.log.Warn().Err(err).Str("id", remote.ID).Msg("conflict handler failed, using default strategy")
		}
	}

	res := e.resolver.Resolve(local, remote, edit, strategy)
	info := models.ConflictInfo{
		ID:                       remote.ID,
		Conflicts:                res.Conflicts,
		Resolved:                 res.Resolved,
		RequiresUserIntervention: res.RequiresUserIntervention,
		Strategy:                 strategy.String(),
	}

	if !res.Resolved {
		e.notePending(remote.ID, remote)
		tx.noteConflict(info)
		return
	}

	if err := e.store.Update(ctx, res.Record); err != nil {
		retryable, attempts := e.noteFailure(remote.ID)
		tx.noteFailed(models.OperationUpdate, remote.ID, err, retryable, attempts)
		return
	}

	tx.noteApplied(models.OperationUpdate, remote.ID)
	tx.noteConflict(info)
}

// resolveRemainingPhase gives conflicts that were parked for user
// intervention one more chance within the same apply, provided a conflict
// handler is installed and picks a decisive strategy.
func (e *syncEngine) resolveRemainingPhase(ctx context.Context, tx *txLog) {
	tx.setPhase(models.PhaseResolve)
	remaining := tx.unresolvedConflicts()
	total := len(remaining)
	e.reportProgress(models.PhaseResolve, 0, total)
	defer e.reportProgress(models.PhaseResolve, total, total)

	if e.conflictFn == nil || total == 0 {
		return
	}

	for _, idx := range remaining {
		info := tx.conflictAt(idx)

		strategy, err := e.conflictFn(ctx, info)
		if err != nil || strategy == StrategyPromptUser {
			continue
		}

		remote, ok := e.pendingRemote(info.ID)
		if !ok {
			continue
		}
		local, err := e.store.Get(ctx, info.ID)
		if err != nil {
			continue
		}

		var editPtr *models.LocalEdit
		if edit, hasEdit := e.tracker.Get(info.ID); hasEdit {
			editPtr = &edit
		}

		res := e.resolver.Resolve(local, remote, editPtr, strategy)
		if !res.Resolved {
			continue
		}

		if err = e.store.Update(ctx, res.Record); err != nil {
			retryable, attempts := e.noteFailure(info.ID)
			tx.noteFailed(models.OperationUpdate, info.ID, err, retryable, attempts)
			continue
		}

		tx.noteApplied(models.OperationUpdate, info.ID)
		e.clearPending(info.ID)
		e.tracker.Clear(info.ID)
		tx.replaceConflict(idx, models.ConflictInfo{
			ID:        info.ID,
			Conflicts: res.Conflicts,
			Resolved:  true,
			Strategy:  strategy.String(),
		})
	}
}

// finalize persists the payload timestamp, releases per-record bookkeeping
// for everything that applied cleanly, and assembles the result.
func (e *syncEngine) finalize(ctx context.Context, payload models.DifferentialPayload, tx *txLog, start time.Time, payloadBytes int) models.SyncResult {
	tx.setPhase(models.PhaseFinalize)
	e.reportProgress(models.PhaseFinalize, 0, 1)

	if err := e.store.UpdateSyncTimestamp(ctx, payload.Timestamp); err != nil {
		tx.noteFailed(models.OperationSync, "", fmt.Errorf("persist sync timestamp: %w", err), true, 0)
	}

	for _, op := range tx.applied {
		e.tracker.Clear(op.ID)
		e.clearRecordState(op.ID)
	}

	result := e.buildResult(payload, tx, nil, start, payloadBytes)
	e.reportProgress(models.PhaseFinalize, 1, 1)

	e.log.Info().
		Bool("success", result.Success).
		Int("applied", len(result.Applied)).
		Int("conflicts", len(result.Conflicts)).
		Int("failed", len(result.Failed)).
		Dur("took", result.Statistics.ProcessingTime).
		Msg("apply finished")

	return result
}

// rollback restores the pre-apply snapshot after a catastrophic failure.
func (e *syncEngine) rollback(ctx context.Context, backup []models.Record, cause error) *models.RollbackInfo {
	info := &models.RollbackInfo{
		Triggered: true,
		Reason:    cause.Error(),
		Timestamp: time.Now(),
	}

	if err := e.store.ReplaceAll(ctx, backup); err != nil {
		e.log.Error().Err(err).Msg("rollback failed, store may be inconsistent")
		return info
	}

	info.RestoredCount = len(backup)
	e.log.Warn().Int("restored", len(backup)).Str("reason", info.Reason).Msg("apply rolled back")
	return info
}

func (e *syncEngine) buildResult(payload models.DifferentialPayload, tx *txLog, rollback *models.RollbackInfo, start time.Time, payloadBytes int) models.SyncResult {
	tx.mu.Lock()
	applied := tx.applied
	conflicts := tx.conflicts
	failed := tx.failed
	tx.mu.Unlock()

	success := len(failed) == 0 && rollback == nil

	return models.SyncResult{
		Success:   success,
		Applied:   applied,
		Conflicts: conflicts,
		Failed:    failed,
		Rollback:  rollback,
		Statistics: models.SyncStatistics{
			TotalProcessed:   payload.Size(),
			SuccessCount:     len(applied),
			ConflictCount:    len(conflicts),
			FailureCount:     len(failed),
			ProcessingTime:   time.Since(start),
			PayloadSizeBytes: payloadBytes,
		},
	}
}

func (e *syncEngine) statistics(payload models.DifferentialPayload, tx *txLog, start time.Time, payloadBytes int) models.SyncStatistics {
	return models.SyncStatistics{
		TotalProcessed:   payload.Size(),
		ProcessingTime:   time.Since(start),
		PayloadSizeBytes: payloadBytes,
	}
}

func payloadSizeBytes(payload models.DifferentialPayload) int {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	return len(raw)
}
