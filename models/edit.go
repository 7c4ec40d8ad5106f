package models

import "time"

// LocalEdit is an uncommitted local mutation of a single record: a partial
// field map waiting to be reconciled with the remote feed. At most one
// LocalEdit exists per record ID at any time; tracking another change for the
// same ID merges into the existing edit (new changes win per field).
type LocalEdit struct {
	ID        string         `json:"id"`
	Changes   map[string]any `json:"changes"`
	Timestamp time.Time      `json:"timestamp"`
	SourceTag string         `json:"source_tag"`
}

// Clone returns a copy of the edit with its own changes map.
func (e LocalEdit) Clone() LocalEdit {
	out := e
	if e.Changes != nil {
		out.Changes = make(map[string]any, len(e.Changes))
		for k, v := range e.Changes {
			out.Changes[k] = v
		}
	}
	return out
}

// ApplyTo overlays the edit's changes on top of the given record and returns
// the result. The receiver and the argument are not mutated.
func (e LocalEdit) ApplyTo(r Record) Record {
	out := r.Clone()
	if out.Fields == nil {
		out.Fields = make(map[string]any, len(e.Changes))
	}
	for k, v := range e.Changes {
		out.Fields[k] = v
	}
	return out
}
