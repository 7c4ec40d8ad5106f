// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/store"
	"github.com/akarpov/go-alertsync/models"
)

// faultStore wraps a real store with injectable failures so engine error
// paths can be exercised deterministically.
type faultStore struct {
	store.RecordStore

	mu          sync.Mutex
	failUpdate  map[string]error
	panicUpdate string

	blockRemove   chan struct{}
	removeEntered chan struct{}
	enterOnce     sync.Once
}

func newFaultStore(inner store.RecordStore) *faultStore {
	return &faultStore{
		RecordStore: inner,
		failUpdate:  make(map[string]error),
	}
}

func (f *faultStore) Update(ctx context.Context, record models.Record) error {
	f.mu.Lock()
	panicID := f.panicUpdate
	injected := f.failUpdate[record.ID]
	f.mu.Unlock()

	if panicID != "" && record.ID == panicID {
		panic("update exploded")
	}
	if injected != nil {
		return injected
	}
	return f.RecordStore.Update(ctx, record)
}

func (f *faultStore) Remove(ctx context.Context, id string) (bool, error) {
	if f.blockRemove != nil {
		f.enterOnce.Do(func() { close(f.removeEntered) })
		<-f.blockRemove
	}
	return f.RecordStore.Remove(ctx, id)
}

type testEngine struct {
	engine  SyncEngine
	store   store.RecordStore
	tracker ChangeTracker
}

func newTestEngine(st store.RecordStore, cfg EngineConfig) testEngine {
	tracker := NewChangeTracker()
	resolver := NewConflictResolver(logger.Nop())
	return testEngine{
		engine:  NewSyncEngine(st, tracker, resolver, cfg, logger.Nop()),
		store:   st,
		tracker: tracker,
	}
}

func validPayload() models.DifferentialPayload {
	return models.DifferentialPayload{
		Timestamp: time.Now(),
		Metadata:  map[string]any{"source": "test"},
	}
}

func seed(t *testing.T, st store.RecordStore, records ...models.Record) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, st.Add(context.Background(), r))
	}
}

func TestApply_ValidationFailures(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		payload models.DifferentialPayload
	}{
		{
			name:    "missing timestamp",
			payload: models.DifferentialPayload{Metadata: map[string]any{}},
		},
		{
			name:    "missing metadata",
			payload: models.DifferentialPayload{Timestamp: now},
		},
		{
			name: "duplicate id across added and updated",
			payload: models.DifferentialPayload{
				Timestamp: now,
				Metadata:  map[string]any{},
				Added:     []models.Record{record("dup", now, nil)},
				Updated:   []models.Record{record("dup", now, nil)},
			},
		},
		{
			name: "id deleted and added",
			payload: models.DifferentialPayload{
				Timestamp: now,
				Metadata:  map[string]any{},
				Added:     []models.Record{record("x", now, nil)},
				Deleted:   []string{"x"},
			},
		},
		{
			name: "duplicate deleted id",
			payload: models.DifferentialPayload{
				Timestamp: now,
				Metadata:  map[string]any{},
				Deleted:   []string{"x", "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine(store.NewMemoryStore(), EngineConfig{})

			result, err := te.engine.Apply(context.Background(), tt.payload, ApplyOptions{ValidateFirst: true})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.False(t, result.Success)
			assert.Empty(t, result.Applied)

			all, getErr := te.store.GetAll(context.Background())
			require.NoError(t, getErr)
			assert.Empty(t, all, "store must be untouched after a rejected payload")
		})
	}
}

func TestApply_AddUpdateDelete(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store,
		record("keep", older, map[string]any{"severity": "minor"}),
		record("gone", older, map[string]any{"severity": "minor"}),
	)

	payload := validPayload()
	payload.Added = []models.Record{record("new", newer, map[string]any{"severity": "severe"})}
	payload.Updated = []models.Record{record("keep", newer, map[string]any{"severity": "major"})}
	payload.Deleted = []string{"gone", "never-existed"}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Conflicts)
	// new added, keep updated, gone deleted; the absent delete is a no-op.
	assert.Len(t, result.Applied, 3)
	assert.Equal(t, 4, result.Statistics.TotalProcessed)
	assert.Equal(t, 3, result.Statistics.SuccessCount)
	assert.Positive(t, result.Statistics.PayloadSizeBytes)

	_, err = te.store.Get(ctx, "gone")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	kept, err := te.store.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "major", kept.Fields["severity"])

	added, err := te.store.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "severe", added.Fields["severity"])

	last, err := te.store.LastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(payload.Timestamp))
}

func TestApply_Idempotent(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"v": 1.0}))

	payload := validPayload()
	payload.Added = []models.Record{record("b", newer, map[string]any{"v": 2.0})}
	payload.Updated = []models.Record{record("a", newer, map[string]any{"v": 3.0})}

	first, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, first.Success)

	afterFirst, err := te.store.GetAll(ctx)
	require.NoError(t, err)

	second, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, second.Success)

	afterSecond, err := te.store.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, afterFirst, afterSecond)
}

func TestApply_UpdateForMissingRecordAdds(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	payload := validPayload()
	payload.Updated = []models.Record{record("ghost", newer, map[string]any{"severity": "minor"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, models.OperationAdd, result.Applied[0].Type)

	_, err = te.store.Get(ctx, "ghost")
	assert.NoError(t, err)
}

func TestApply_AddForExistingRecordUpdates(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"severity": "minor"}))

	payload := validPayload()
	payload.Added = []models.Record{record("a", newer, map[string]any{"severity": "major"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "major", got.Fields["severity"])
}

func TestApply_AddOverlaysTrackedEdit(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	te.tracker.Track("a", map[string]any{"note": "seen locally"})

	payload := validPayload()
	payload.Added = []models.Record{record("a", newer, map[string]any{"severity": "minor"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "minor", got.Fields["severity"])
	assert.Equal(t, "seen locally", got.Fields["note"])
}

func TestApply_ConflictDefaultRemoteWins(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"severity": "minor"}))
	require.NoError(t, te.engine.TrackLocalChange(ctx, "a", map[string]any{"severity": "extreme"}))

	payload := validPayload()
	payload.Updated = []models.Record{record("a", newer, map[string]any{"severity": "major"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.True(t, result.Conflicts[0].Resolved)
	assert.Equal(t, StrategyRemoteWins.String(), result.Conflicts[0].Strategy)

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "major", got.Fields["severity"])

	_, tracked := te.tracker.Get("a")
	assert.False(t, tracked, "edit must be cleared after reconciliation")
}

func TestApply_ConflictMergeStrategy(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{DefaultStrategy: StrategyMerge})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{
		"severity": "moderate",
		"headline": "Flood watch",
	}))
	require.NoError(t, te.engine.TrackLocalChange(ctx, "a", map[string]any{"severity": "moderate"}))

	payload := validPayload()
	payload.Updated = []models.Record{record("a", newer, map[string]any{
		"severity": "severe",
		"headline": "Flood warning",
	})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "severe", got.Fields["severity"])
	assert.Equal(t, "Flood watch\n[Updated] Flood warning", got.Fields["headline"])
}

func TestApply_PromptUserParksConflict(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{DefaultStrategy: StrategyPromptUser})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"severity": "minor"}))
	require.NoError(t, te.engine.TrackLocalChange(ctx, "a", map[string]any{"severity": "extreme"}))

	payload := validPayload()
	payload.Updated = []models.Record{record("a", newer, map[string]any{"severity": "major"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.False(t, result.Conflicts[0].Resolved)
	assert.True(t, result.Conflicts[0].RequiresUserIntervention)

	// Local record stays as edited while the conflict is pending.
	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "extreme", got.Fields["severity"])
	_, tracked := te.tracker.Get("a")
	assert.True(t, tracked)

	// An explicit decision resolves it.
	info, err := te.engine.ResolveConflict(ctx, "a", StrategyRemoteWins)
	require.NoError(t, err)
	assert.True(t, info.Resolved)

	got, err = te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "major", got.Fields["severity"])

	_, err = te.engine.ResolveConflict(ctx, "a", StrategyRemoteWins)
	assert.ErrorIs(t, err, ErrNoPendingConflict)
}

func TestApply_ConflictHandlerResolvesInResolvePhase(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"severity": "minor"}))
	require.NoError(t, te.engine.TrackLocalChange(ctx, "a", map[string]any{"severity": "extreme"}))

	// First decision defers to the user, the second (during the resolve
	// phase) picks local-wins.
	var calls int
	te.engine.SetConflictHandler(func(_ context.Context, _ models.ConflictInfo) (Strategy, error) {
		calls++
		if calls == 1 {
			return StrategyPromptUser, nil
		}
		return StrategyLocalWins, nil
	})

	payload := validPayload()
	payload.Updated = []models.Record{record("a", newer, map[string]any{"severity": "major"})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.True(t, result.Conflicts[0].Resolved)
	assert.Equal(t, StrategyLocalWins.String(), result.Conflicts[0].Strategy)
	assert.Equal(t, 2, calls)

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "extreme", got.Fields["severity"])
}

func TestApply_RetryEscalation(t *testing.T) {
	fs := newFaultStore(store.NewMemoryStore())
	te := newTestEngine(fs, EngineConfig{MaxRetries: 3})
	ctx := context.Background()

	seed(t, fs.RecordStore, record("bad", older, map[string]any{"v": 1.0}))
	fs.failUpdate["bad"] = errors.New("disk on fire")

	payload := validPayload()
	payload.Updated = []models.Record{record("bad", newer, map[string]any{"v": 2.0})}

	for attempt := 1; attempt <= 3; attempt++ {
		result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
		require.NoError(t, err)

		assert.False(t, result.Success)
		require.Len(t, result.Failed, 1)
		failed := result.Failed[0]
		assert.Equal(t, "bad", failed.ID)
		assert.Equal(t, attempt, failed.Attempts)
		assert.Equal(t, attempt < 3, failed.Retryable)
	}
}

func TestApply_RetryCounterResetsOnSuccess(t *testing.T) {
	fs := newFaultStore(store.NewMemoryStore())
	te := newTestEngine(fs, EngineConfig{MaxRetries: 3})
	ctx := context.Background()

	seed(t, fs.RecordStore, record("flaky", older, map[string]any{"v": 1.0}))
	fs.failUpdate["flaky"] = errors.New("transient")

	payload := validPayload()
	payload.Updated = []models.Record{record("flaky", newer, map[string]any{"v": 2.0})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)

	fs.mu.Lock()
	delete(fs.failUpdate, "flaky")
	fs.mu.Unlock()

	result, err = te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)

	// After a success the next failure starts counting from one again.
	fs.mu.Lock()
	fs.failUpdate["flaky"] = errors.New("transient")
	fs.mu.Unlock()

	payload.Updated[0].Fields["v"] = 3.0
	result, err = te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Attempts)
}

func TestApply_AtomicRollbackRestoresSnapshot(t *testing.T) {
	fs := newFaultStore(store.NewMemoryStore())
	te := newTestEngine(fs, EngineConfig{})
	ctx := context.Background()

	seed(t, fs.RecordStore,
		record("a", older, map[string]any{"v": 1.0}),
		record("boom", older, map[string]any{"v": 1.0}),
	)
	fs.panicUpdate = "boom"

	before, err := fs.GetAll(ctx)
	require.NoError(t, err)

	payload := validPayload()
	payload.Added = []models.Record{record("new", newer, map[string]any{"v": 9.0})}
	payload.Updated = []models.Record{record("boom", newer, map[string]any{"v": 2.0})}
	payload.Deleted = []string{"a"}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{Atomic: true})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Rollback)
	assert.True(t, result.Rollback.Triggered)
	assert.Equal(t, 2, result.Rollback.RestoredCount)
	assert.Contains(t, result.Rollback.Reason, "update phase")

	after, err := fs.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after, "rollback must restore the exact snapshot")
}

func TestApply_NonAtomicCatastropheReportsSyncFailure(t *testing.T) {
	fs := newFaultStore(store.NewMemoryStore())
	te := newTestEngine(fs, EngineConfig{})
	ctx := context.Background()

	seed(t, fs.RecordStore, record("boom", older, map[string]any{"v": 1.0}))
	fs.panicUpdate = "boom"

	payload := validPayload()
	payload.Updated = []models.Record{record("boom", newer, map[string]any{"v": 2.0})}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, result.Rollback)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, models.OperationSync, result.Failed[0].Type)
	assert.False(t, result.Failed[0].Retryable)
}

func TestApply_QueueDrainsInArrivalOrder(t *testing.T) {
	fs := newFaultStore(store.NewMemoryStore())
	fs.blockRemove = make(chan struct{})
	fs.removeEntered = make(chan struct{})
	te := newTestEngine(fs, EngineConfig{})
	ctx := context.Background()

	seed(t, fs.RecordStore,
		record("a", older, nil),
		record("b", older, nil),
		record("c", older, nil),
	)

	var resultsMu sync.Mutex
	var order []string
	te.engine.SetResultHandler(func(result models.SyncResult) {
		resultsMu.Lock()
		defer resultsMu.Unlock()
		if len(result.Applied) == 1 {
			order = append(order, result.Applied[0].ID)
		}
	})

	deletePayload := func(id string) models.DifferentialPayload {
		p := validPayload()
		p.Deleted = []string{id}
		return p
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = te.engine.Apply(ctx, deletePayload("a"), ApplyOptions{})
	}()
	<-fs.removeEntered

	second, err := te.engine.Apply(ctx, deletePayload("b"), ApplyOptions{})
	require.NoError(t, err)
	assert.True(t, second.Queued)
	assert.Equal(t, 1, second.QueuePosition)

	third, err := te.engine.Apply(ctx, deletePayload("c"), ApplyOptions{})
	require.NoError(t, err)
	assert.True(t, third.Queued)
	assert.Equal(t, 2, third.QueuePosition)

	assert.True(t, te.engine.State().Busy)

	close(fs.blockRemove)
	<-done

	resultsMu.Lock()
	defer resultsMu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.False(t, te.engine.State().Busy)
	assert.Equal(t, 0, te.engine.State().QueueLength)
}

// ctxCheckedStore fails any write whose context is already done, the way a
// SQL-backed store would.
type ctxCheckedStore struct {
	store.RecordStore
}

func (c ctxCheckedStore) Remove(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.RecordStore.Remove(ctx, id)
}

func TestApply_QueueDrainOutlivesEnqueuerContext(t *testing.T) {
	fs := newFaultStore(ctxCheckedStore{store.NewMemoryStore()})
	fs.blockRemove = make(chan struct{})
	fs.removeEntered = make(chan struct{})
	te := newTestEngine(fs, EngineConfig{})

	seed(t, fs.RecordStore, record("a", older, nil), record("b", older, nil))

	results := make(chan models.SyncResult, 2)
	te.engine.SetResultHandler(func(r models.SyncResult) { results <- r })

	deletePayload := func(id string) models.DifferentialPayload {
		p := validPayload()
		p.Deleted = []string{id}
		return p
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = te.engine.Apply(firstCtx, deletePayload("a"), ApplyOptions{})
	}()
	<-fs.removeEntered

	secondCtx, cancelSecond := context.WithCancel(context.Background())
	queued, err := te.engine.Apply(secondCtx, deletePayload("b"), ApplyOptions{})
	require.NoError(t, err)
	require.True(t, queued.Queued)

	// Both enqueuers walk away before the queue drains.
	cancelFirst()
	cancelSecond()

	close(fs.blockRemove)
	<-done

	first := <-results
	second := <-results
	assert.False(t, first.Success, "the canceled caller's own apply fails")
	assert.True(t, second.Success, "a drained apply must not inherit any caller's cancellation")

	_, err = fs.RecordStore.Get(context.Background(), "b")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestApply_LocalWinsWithFieldlessRemoteUpdate(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{DefaultStrategy: StrategyLocalWins})
	ctx := context.Background()

	seed(t, te.store, record("alert-1", older, map[string]any{"headline": "Flood watch"}))
	te.tracker.Track("alert-1", map[string]any{"severity": "major"})

	// "fields": null is a legal record shape in a payload.
	payload := validPayload()
	payload.Updated = []models.Record{record("alert-1", newer, nil)}

	result, err := te.engine.Apply(ctx, payload, ApplyOptions{})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Empty(t, result.Failed)

	got, err := te.store.Get(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, "Flood watch", got.Fields["headline"])
}

func TestApply_ProgressPhases(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	var phases []models.SyncPhase
	te.engine.SetProgressHandler(func(p models.SyncProgress) {
		phases = append(phases, p.Phase)
		assert.GreaterOrEqual(t, p.Percentage, 0.0)
		assert.LessOrEqual(t, p.Percentage, 100.0)
	})

	payload := validPayload()
	payload.Added = []models.Record{record("a", newer, nil)}

	_, err := te.engine.Apply(ctx, payload, ApplyOptions{Atomic: true, ValidateFirst: true})
	require.NoError(t, err)

	assert.Equal(t, []models.SyncPhase{
		models.PhaseValidate, models.PhaseValidate,
		models.PhaseBackup, models.PhaseBackup,
		models.PhaseDelete, models.PhaseDelete,
		models.PhaseAdd, models.PhaseAdd,
		models.PhaseUpdate, models.PhaseUpdate,
		models.PhaseResolve, models.PhaseResolve,
		models.PhaseFinalize, models.PhaseFinalize,
	}, phases)
}

func TestTrackLocalChange_OptimisticWriteAndRollback(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	seed(t, te.store, record("a", older, map[string]any{"severity": "minor"}))

	require.NoError(t, te.engine.TrackLocalChange(ctx, "a", map[string]any{"severity": "severe"}))

	got, err := te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "severe", got.Fields["severity"], "optimistic write must be visible immediately")

	edit, tracked := te.tracker.Get("a")
	require.True(t, tracked)
	assert.Equal(t, "severe", edit.Changes["severity"])

	require.NoError(t, te.engine.RollbackLocalChange(ctx, "a"))

	got, err = te.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "minor", got.Fields["severity"])
	_, tracked = te.tracker.Get("a")
	assert.False(t, tracked)

	assert.ErrorIs(t, te.engine.RollbackLocalChange(ctx, "a"), ErrNoOptimisticState)
}

func TestTrackLocalChange_MissingRecordStillTracked(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})
	ctx := context.Background()

	require.NoError(t, te.engine.TrackLocalChange(ctx, "future", map[string]any{"note": "early edit"}))

	_, tracked := te.tracker.Get("future")
	assert.True(t, tracked)
}

func TestState(t *testing.T) {
	te := newTestEngine(store.NewMemoryStore(), EngineConfig{})

	state := te.engine.State()
	assert.False(t, state.Busy)
	assert.Equal(t, 0, state.QueueLength)
	assert.Equal(t, 0, state.PendingEditCount)

	te.tracker.Track("a", map[string]any{"x": 1})
	assert.Equal(t, 1, te.engine.State().PendingEditCount)
}
