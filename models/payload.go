package models

import "time"

// DifferentialPayload is one delta produced by the remote feed since a prior
// synchronization point. The three sets are pairwise disjoint by ID; a
// payload violating that invariant is rejected before any mutation.
type DifferentialPayload struct {
	Added     []Record       `json:"added"`
	Updated   []Record       `json:"updated"`
	Deleted   []string       `json:"deleted"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// Size returns the total number of items carried by the payload.
func (p DifferentialPayload) Size() int {
	return len(p.Added) + len(p.Updated) + len(p.Deleted)
}
