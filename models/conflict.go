package models

// Resolution classifies how (or whether) a single field conflict was settled.
type Resolution string

const (
	ResolutionPending Resolution = "pending"
	ResolutionLocal   Resolution = "local"
	ResolutionRemote  Resolution = "remote"
	ResolutionMerged  Resolution = "merged"
)

// FieldConflict describes one divergent field between the local and remote
// versions of a record. It lives only inside a sync result; nothing persists
// it beyond the apply call that produced it.
type FieldConflict struct {
	Field       string     `json:"field"`
	LocalValue  any        `json:"local_value"`
	RemoteValue any        `json:"remote_value"`
	Resolution  Resolution `json:"resolution"`
	MergedValue any        `json:"merged_value,omitempty"`
}

// ConflictInfo aggregates the field conflicts of one record together with the
// outcome of the resolution attempt.
type ConflictInfo struct {
	ID                       string          `json:"id"`
	Conflicts                []FieldConflict `json:"conflicts"`
	Resolved                 bool            `json:"resolved"`
	RequiresUserIntervention bool            `json:"requires_user_intervention"`
	Strategy                 string          `json:"strategy,omitempty"`
}
