package store

import (
	"context"
	"sync"
	"time"

	"github.com/akarpov/go-alertsync/models"
)

// memoryStore is the in-process RecordStore used with the "memory" DSN and
// throughout the test suites. All operations are guarded by a single RWMutex,
// which also makes each of them individually atomic.
type memoryStore struct {
	mu       sync.RWMutex
	records  map[string]models.Record
	lastSync time.Time
}

// NewMemoryStore constructs an empty in-memory RecordStore.
func NewMemoryStore() RecordStore {
	return &memoryStore{
		records: make(map[string]models.Record),
	}
}

func (m *memoryStore) Get(_ context.Context, id string) (models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return models.Record{}, ErrRecordNotFound
	}
	return record.Clone(), nil
}

func (m *memoryStore) Add(_ context.Context, record models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; ok {
		return ErrRecordExists
	}
	m.records[record.ID] = record.Clone()
	return nil
}

func (m *memoryStore) Update(_ context.Context, record models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return ErrRecordNotFound
	}
	m.records[record.ID] = record.Clone()
	return nil
}

func (m *memoryStore) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.records[id]
	delete(m.records, id)
	return ok, nil
}

func (m *memoryStore) GetAll(_ context.Context) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Record, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record.Clone())
	}
	return out, nil
}

func (m *memoryStore) ReplaceAll(_ context.Context, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]models.Record, len(records))
	for _, record := range records {
		next[record.ID] = record.Clone()
	}
	m.records = next
	return nil
}

func (m *memoryStore) UpdateSyncTimestamp(_ context.Context, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSync = ts
	return nil
}

func (m *memoryStore) LastSyncTimestamp(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastSync, nil
}
