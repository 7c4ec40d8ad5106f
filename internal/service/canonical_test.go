package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akarpov/go-alertsync/models"
)

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{name: "identical strings", a: "flood", b: "flood", equal: true},
		{name: "different strings", a: "flood", b: "storm", equal: false},
		{name: "int vs float of same value", a: 3, b: 3.0, equal: true},
		{name: "arrays in different order", a: []any{"a", "b"}, b: []any{"b", "a"}, equal: true},
		{name: "arrays with different elements", a: []any{"a"}, b: []any{"a", "b"}, equal: false},
		{name: "typed slice vs generic slice", a: []string{"x", "y"}, b: []any{"y", "x"}, equal: true},
		{
			name:  "maps with different key order",
			a:     map[string]any{"k1": 1, "k2": 2},
			b:     map[string]any{"k2": 2, "k1": 1},
			equal: true,
		},
		{
			name:  "nested structures",
			a:     map[string]any{"geo": map[string]any{"lat": 55.75, "lon": 37.62}},
			b:     map[string]any{"geo": map[string]any{"lon": 37.62, "lat": 55.75}},
			equal: true,
		},
		{name: "nil vs empty string", a: nil, b: "", equal: false},
		{name: "both nil", a: nil, b: nil, equal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, valuesEqual(tt.a, tt.b))
		})
	}
}

func TestRecordsEqual_IgnoresUpdatedTimestamp(t *testing.T) {
	a := models.Record{
		ID:      "alert-1",
		Updated: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Fields:  map[string]any{"severity": "minor"},
	}
	b := models.Record{
		ID:      "alert-1",
		Updated: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Fields:  map[string]any{"severity": "minor"},
	}

	assert.True(t, recordsEqual(a, b))

	b.Fields["severity"] = "severe"
	assert.False(t, recordsEqual(a, b))
}

func TestFingerprint_StableAcrossKeyOrder(t *testing.T) {
	a := fingerprint(map[string]any{"x": 1, "y": []any{"b", "a"}})
	b := fingerprint(map[string]any{"y": []any{"a", "b"}, "x": 1})

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}
