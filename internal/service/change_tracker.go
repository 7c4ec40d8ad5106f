package service

import (
	"sync"
	"time"

	"github.com/akarpov/go-alertsync/models"
	"github.com/google/uuid"
)

// changeTracker is the concrete implementation of ChangeTracker. It holds
// at most one LocalEdit per record ID; tracking further changes for the same
// ID merges into the existing edit with per-field last-write-wins.
type changeTracker struct {
	mu    sync.RWMutex
	edits map[string]models.LocalEdit
}

// NewChangeTracker constructs an empty ChangeTracker.
func NewChangeTracker() ChangeTracker {
	return &changeTracker{
		edits: make(map[string]models.LocalEdit),
	}
}

func (t *changeTracker) Track(id string, changes map[string]any) {
	if id == "" || len(changes) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	edit, ok := t.edits[id]
	if !ok {
		edit = models.LocalEdit{
			ID:        id,
			Changes:   make(map[string]any, len(changes)),
			SourceTag: uuid.NewString(),
		}
	}

	for field, value := range changes {
		edit.Changes[field] = value
	}
	edit.Timestamp = time.Now()

	t.edits[id] = edit
}

func (t *changeTracker) Get(id string) (models.LocalEdit, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	edit, ok := t.edits[id]
	if !ok {
		return models.LocalEdit{}, false
	}
	return edit.Clone(), true
}

func (t *changeTracker) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.edits, id)
}

func (t *changeTracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.edits = make(map[string]models.LocalEdit)
}

func (t *changeTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.edits)
}

func (t *changeTracker) All() []models.LocalEdit {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.LocalEdit, 0, len(t.edits))
	for _, edit := range t.edits {
		out = append(out, edit.Clone())
	}
	return out
}
