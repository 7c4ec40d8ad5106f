package models

import "time"

// OperationType is the kind of store mutation recorded in the per-apply
// transaction log.
type OperationType string

const (
	OperationAdd    OperationType = "add"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"

	// OperationSync marks a failure of the apply as a whole rather than of
	// one record, e.g. a catastrophic phase error in non-atomic mode.
	OperationSync OperationType = "sync-operation"
)

// SyncOperation is an audit entry for one mutation actually applied to the
// store during a single apply call. The log backs partial-failure reporting;
// it is not a durable WAL.
type SyncOperation struct {
	OpID      string        `json:"op_id"`
	Type      OperationType `json:"type"`
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Version   int64         `json:"version,omitempty"`
}

// FailedOperation records one store mutation that could not be applied.
// Retryable failures stay below the configured per-record retry limit;
// once the limit is reached the failure is surfaced as non-retryable and the
// caller must intervene.
type FailedOperation struct {
	Type      OperationType `json:"type"`
	ID        string        `json:"id"`
	Error     string        `json:"error"`
	Retryable bool          `json:"retryable"`
	Attempts  int           `json:"attempts"`
}

// RollbackInfo reports a completed rollback of an atomic apply.
type RollbackInfo struct {
	Triggered     bool      `json:"triggered"`
	Reason        string    `json:"reason"`
	RestoredCount int       `json:"restored_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// SyncStatistics summarizes one apply call.
type SyncStatistics struct {
	TotalProcessed   int           `json:"total_processed"`
	SuccessCount     int           `json:"success_count"`
	ConflictCount    int           `json:"conflict_count"`
	FailureCount     int           `json:"failure_count"`
	ProcessingTime   time.Duration `json:"processing_time"`
	PayloadSizeBytes int           `json:"payload_size_bytes"`
}

// SyncResult is the full outcome of one apply call. It is constructed once,
// returned, and never mutated afterwards. A busy engine returns a placeholder
// result with Queued set; the queued payload's real result is delivered to
// the engine's result handler once it has been drained.
type SyncResult struct {
	Success       bool              `json:"success"`
	Queued        bool              `json:"queued,omitempty"`
	QueuePosition int               `json:"queue_position,omitempty"`
	Applied       []SyncOperation   `json:"applied"`
	Conflicts     []ConflictInfo    `json:"conflicts"`
	Failed        []FailedOperation `json:"failed"`
	Rollback      *RollbackInfo     `json:"rollback,omitempty"`
	Statistics    SyncStatistics    `json:"statistics"`
}

// SyncPhase names one stage of the apply state machine for progress
// reporting.
type SyncPhase string

const (
	PhaseValidate SyncPhase = "validate"
	PhaseBackup   SyncPhase = "backup"
	PhaseDelete   SyncPhase = "delete"
	PhaseAdd      SyncPhase = "add"
	PhaseUpdate   SyncPhase = "update"
	PhaseResolve  SyncPhase = "resolve"
	PhaseFinalize SyncPhase = "finalize"
)

// SyncProgress is passed to the optional progress callback at the start and
// end of every phase. Percentage is 0 when Total is 0.
type SyncProgress struct {
	Phase      SyncPhase `json:"phase"`
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
}

// EngineState is the caller-visible snapshot of the engine returned by
// State() and the HTTP state endpoint.
type EngineState struct {
	QueueLength      int  `json:"queue_length"`
	PendingEditCount int  `json:"pending_edit_count"`
	Busy             bool `json:"busy"`
}
