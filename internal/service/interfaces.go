package service

import (
	"context"

	"github.com/akarpov/go-alertsync/models"
)

// ChangeTracker remembers local, not-yet-reconciled edits per record ID.
// It never touches the record store; its only state is its own edit map.
type ChangeTracker interface {
	// Track merges changes into any existing edit for id (shallow merge,
	// new changes win per field) and refreshes the edit's timestamp.
	// Idempotent for identical input.
	Track(id string, changes map[string]any)

	// Get returns the tracked edit for id, if any.
	Get(id string) (models.LocalEdit, bool)

	// Clear removes the tracked edit for id; used after successful
	// reconciliation or explicit discard. No-op when nothing is tracked.
	Clear(id string)

	// ClearAll removes every tracked edit.
	ClearAll()

	// Count reports how many edits are currently tracked.
	Count() int

	// All returns a snapshot of every tracked edit.
	All() []models.LocalEdit
}

// MergeFunc computes the merged value of one conflicting field.
type MergeFunc func(field string, local, remote any) any

// CustomResolveFunc is a caller-supplied resolver used by StrategyCustom.
type CustomResolveFunc func(local, remote models.Record, edit *models.LocalEdit) Resolution

// Resolution is the outcome of resolving one record's conflicts.
type Resolution struct {
	Resolved                 bool
	Record                   models.Record
	Conflicts                []models.FieldConflict
	RequiresUserIntervention bool
}

// ConflictResolver decides, for one record, whether the local and remote
// versions disagree and how to reconcile them. Implementations must be
// deterministic: same inputs always yield the same conflict set and result.
type ConflictResolver interface {
	// DetectConflicts reports every field present in either record whose
	// values diverge under canonical comparison (order-independent for
	// arrays). Divergent fields are reported whether or not the tracked
	// edit touched them.
	DetectConflicts(local, remote models.Record, edit *models.LocalEdit) []models.FieldConflict

	// Resolve reconciles local and remote according to strategy.
	Resolve(local, remote models.Record, edit *models.LocalEdit, strategy Strategy) Resolution

	// RegisterMerger installs (or overrides) the per-field merge function
	// consulted by StrategyMerge for the named field.
	RegisterMerger(field string, fn MergeFunc)

	// RegisterCustomResolver installs the resolver used by StrategyCustom.
	// Without one, StrategyCustom behaves as StrategyRemoteWins.
	RegisterCustomResolver(fn CustomResolveFunc)
}

// ProgressFunc receives a progress report at the start and end of each
// apply phase.
type ProgressFunc func(models.SyncProgress)

// ConflictFunc picks a strategy for one detected conflict. It may block
// (e.g. to ask a user); it must be safe for concurrent use because the
// update phase invokes it from batch goroutines.
type ConflictFunc func(ctx context.Context, info models.ConflictInfo) (Strategy, error)

// ResultFunc receives the completed result of every apply, including
// payloads that were queued and drained later.
type ResultFunc func(models.SyncResult)

// ApplyOptions are the per-call knobs of SyncEngine.Apply. Either flag set
// to true forces the behavior on regardless of the engine defaults.
type ApplyOptions struct {
	// Atomic snapshots the store before any mutation and rolls back to
	// the snapshot on catastrophic failure.
	Atomic bool

	// ValidateFirst checks the payload invariants before any mutation.
	ValidateFirst bool
}

// SyncEngine applies differential payloads to the local record store.
// At most one apply is in flight per engine instance; concurrent calls are
// queued and drained strictly in arrival order.
type SyncEngine interface {
	// Apply reconciles one differential payload against the store and the
	// tracked local edits. When the engine is busy the payload is queued
	// and a placeholder result with Queued set is returned immediately.
	// The returned error is non-nil only for payload validation failures;
	// every other outcome is reported in-band through the result.
	Apply(ctx context.Context, payload models.DifferentialPayload, opts ApplyOptions) (models.SyncResult, error)

	// TrackLocalChange applies an optimistic local mutation: the change
	// is written to the store immediately and tracked for later
	// reconciliation.
	TrackLocalChange(ctx context.Context, id string, changes map[string]any) error

	// RollbackLocalChange restores the pre-optimistic record and discards
	// the tracked edit.
	RollbackLocalChange(ctx context.Context, id string) error

	// ResolveConflict re-resolves a conflict left pending by a previous
	// apply with an explicit strategy.
	ResolveConflict(ctx context.Context, id string, strategy Strategy) (models.ConflictInfo, error)

	// State reports queue length, pending edit count, and busy flag.
	State() models.EngineState

	// SetProgressHandler installs the per-phase progress callback.
	SetProgressHandler(fn ProgressFunc)

	// SetConflictHandler installs the strategy-picking callback consulted
	// when a conflict is detected during an apply.
	SetConflictHandler(fn ConflictFunc)

	// SetResultHandler installs the callback that receives every completed
	// apply result, including drained queue entries.
	SetResultHandler(fn ResultFunc)

	// SetOffloader installs the executor used for payloads at or above the
	// configured offload threshold.
	SetOffloader(o Offloader)
}
