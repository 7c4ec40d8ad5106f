package models

import "time"

// Record is the synchronized domain entity: a geo-alert event identified by a
// stable ID, carrying the time of its last modification and an open set of
// further fields (severity, headline, description, tag lists, nested
// geometry, ...). The engine only ever holds transient copies of a Record
// during a sync pass; committed records are owned by the local store.
type Record struct {
	ID      string         `json:"id"`
	Updated time.Time      `json:"updated"`
	Fields  map[string]any `json:"fields"`
}

// Clone returns a deep-enough copy of the record for the engine's purposes:
// the fields map is copied one level down, which is sufficient because the
// engine never mutates nested values in place.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, Updated: r.Updated}
	if r.Fields != nil {
		out.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Field returns the named field value and whether it is present.
func (r Record) Field(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}
