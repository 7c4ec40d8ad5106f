package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeSeverity(t *testing.T) {
	tests := []struct {
		name          string
		local, remote any
		want          any
	}{
		{name: "remote more severe", local: "moderate", remote: "severe", want: "severe"},
		{name: "local more severe", local: "extreme", remote: "minor", want: "extreme"},
		{name: "tie goes to remote", local: "major", remote: "major", want: "major"},
		{name: "case insensitive", local: "Severe", remote: "moderate", want: "Severe"},
		{name: "unknown label ranks lowest", local: "whatever", remote: "minor", want: "minor"},
		{name: "non-string local yields remote", local: 42, remote: "minor", want: "minor"},
		{name: "non-string remote yields local", local: "minor", remote: 42, want: "minor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeSeverity("severity", tt.local, tt.remote))
		})
	}
}

func TestMergeUnion(t *testing.T) {
	got := mergeUnion("tags", []any{"flood", "river"}, []any{"river", "evacuation"})
	assert.Equal(t, []any{"flood", "river", "evacuation"}, got)

	// Order independence of the remote side.
	got = mergeUnion("tags", []string{"a"}, []string{"c", "a", "b"})
	assert.Equal(t, []any{"a", "c", "b"}, got)

	// Non-array sides fall through.
	assert.Equal(t, []any{"x"}, mergeUnion("tags", "scalar", []any{"x"}))
	assert.Equal(t, []any{"x"}, mergeUnion("tags", []any{"x"}, "scalar"))
}

func TestMergeConcat(t *testing.T) {
	got := mergeConcat("description", "Water rising", "Evacuation ordered")
	assert.Equal(t, "Water rising\n[Updated] Evacuation ordered", got)

	assert.Equal(t, "same", mergeConcat("description", "same", "same"))
	assert.Equal(t, "remote only", mergeConcat("description", "", "remote only"))
	assert.Equal(t, "local only", mergeConcat("description", "local only", ""))
}

func TestMergeLaterTime(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, any(later), mergeLaterTime("expires", earlier, later))
	assert.Equal(t, any(later), mergeLaterTime("expires", later, earlier))

	// RFC3339 strings parse too.
	assert.Equal(t, any("2026-03-02T12:00:00Z"),
		mergeLaterTime("expires", "2026-03-01T12:00:00Z", "2026-03-02T12:00:00Z"))

	// Unparseable local falls back to remote.
	assert.Equal(t, any("2026-03-01T12:00:00Z"),
		mergeLaterTime("expires", "not a time", "2026-03-01T12:00:00Z"))
}

func TestGenericMerge(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		local, remote any
		want          any
	}{
		{name: "nil local yields remote", field: "f", local: nil, remote: "r", want: "r"},
		{name: "nil remote yields local", field: "f", local: "l", remote: nil, want: "l"},
		{name: "equal values unchanged", field: "f", local: "same", remote: "same", want: "same"},
		{
			name:   "arrays union",
			field:  "zones",
			local:  []any{"z1"},
			remote: []any{"z2", "z1"},
			want:   []any{"z1", "z2"},
		},
		{
			name:   "objects shallow merge, remote wins shared keys",
			field:  "geo",
			local:  map[string]any{"lat": 1.0, "precision": "high"},
			remote: map[string]any{"lat": 2.0, "lon": 3.0},
			want:   map[string]any{"lat": 2.0, "lon": 3.0, "precision": "high"},
		},
		{
			name:   "free-text field concatenates",
			field:  "headline",
			local:  "Flood watch",
			remote: "Flood warning",
			want:   "Flood watch\n[Updated] Flood warning",
		},
		{name: "plain string field takes remote", field: "status", local: "draft", remote: "final", want: "final"},
		{name: "counter field takes max", field: "view_count", local: 10, remote: 7, want: 10},
		{name: "plain number field takes remote", field: "version", local: 10, remote: 7, want: 7},
		{name: "mismatched types take remote", field: "f", local: "str", remote: 4.2, want: 4.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, genericMerge(tt.field, tt.local, tt.remote))
		})
	}
}

func TestGenericMerge_Deterministic(t *testing.T) {
	local := map[string]any{"a": 1, "b": []any{"x", "y"}}
	remote := map[string]any{"b": []any{"y", "z"}, "c": 3}

	first := genericMerge("payload", local, remote)
	for range 10 {
		assert.Equal(t, first, genericMerge("payload", local, remote))
	}
}
