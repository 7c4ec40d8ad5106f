package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeTracker_TrackAndGet(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("alert-1", map[string]any{"severity": "severe"})

	edit, ok := tracker.Get("alert-1")
	require.True(t, ok)
	assert.Equal(t, "alert-1", edit.ID)
	assert.Equal(t, "severe", edit.Changes["severity"])
	assert.NotEmpty(t, edit.SourceTag)
	assert.False(t, edit.Timestamp.IsZero())
}

func TestChangeTracker_MergesSubsequentChanges(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("alert-1", map[string]any{"severity": "minor", "headline": "Watch"})
	tracker.Track("alert-1", map[string]any{"severity": "severe"})

	edit, ok := tracker.Get("alert-1")
	require.True(t, ok)
	assert.Equal(t, "severe", edit.Changes["severity"])
	assert.Equal(t, "Watch", edit.Changes["headline"])
	assert.Equal(t, 1, tracker.Count())
}

func TestChangeTracker_SourceTagStableAcrossMerges(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("alert-1", map[string]any{"a": 1})
	first, _ := tracker.Get("alert-1")

	tracker.Track("alert-1", map[string]any{"b": 2})
	second, _ := tracker.Get("alert-1")

	assert.Equal(t, first.SourceTag, second.SourceTag)
}

func TestChangeTracker_GetReturnsCopy(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("alert-1", map[string]any{"severity": "minor"})
	held, ok := tracker.Get("alert-1")
	require.True(t, ok)

	tracker.Track("alert-1", map[string]any{"severity": "extreme", "headline": "Flood"})

	assert.Equal(t, "minor", held.Changes["severity"], "a held edit must not change when later tracking merges")
	assert.NotContains(t, held.Changes, "headline")

	held.Changes["severity"] = "garbage"
	current, ok := tracker.Get("alert-1")
	require.True(t, ok)
	assert.Equal(t, "extreme", current.Changes["severity"], "mutating a returned edit must not affect the tracker")
}

func TestChangeTracker_IgnoresEmptyInput(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("", map[string]any{"a": 1})
	tracker.Track("alert-1", nil)
	tracker.Track("alert-1", map[string]any{})

	assert.Equal(t, 0, tracker.Count())
}

func TestChangeTracker_ClearAndClearAll(t *testing.T) {
	tracker := NewChangeTracker()

	tracker.Track("alert-1", map[string]any{"a": 1})
	tracker.Track("alert-2", map[string]any{"b": 2})
	require.Equal(t, 2, tracker.Count())

	tracker.Clear("alert-1")
	_, ok := tracker.Get("alert-1")
	assert.False(t, ok)
	assert.Equal(t, 1, tracker.Count())

	tracker.Clear("missing") // no-op

	tracker.ClearAll()
	assert.Equal(t, 0, tracker.Count())
	assert.Empty(t, tracker.All())
}

func TestChangeTracker_ConcurrentTracking(t *testing.T) {
	tracker := NewChangeTracker()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tracker.Track("alert-1", map[string]any{"n": n})
			tracker.Track("alert-2", map[string]any{"n": n})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, tracker.Count())
}
