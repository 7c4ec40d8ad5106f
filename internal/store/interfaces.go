package store

import (
	"context"
	"time"

	"github.com/akarpov/go-alertsync/models"
)

// RecordStore is the durable local record repository consumed by the sync
// engine. Implementations must make each operation individually atomic and
// report success or failure per call; the engine assumes nothing about the
// underlying storage technology.
type RecordStore interface {
	// Get returns the record with the given ID or ErrRecordNotFound.
	Get(ctx context.Context, id string) (models.Record, error)

	// Add inserts a new record. Inserting an existing ID is an error.
	Add(ctx context.Context, record models.Record) error

	// Update overwrites an existing record. Updating a missing ID is an
	// error.
	Update(ctx context.Context, record models.Record) error

	// Remove deletes the record and reports whether it existed.
	Remove(ctx context.Context, id string) (bool, error)

	// GetAll returns every stored record.
	GetAll(ctx context.Context) ([]models.Record, error)

	// ReplaceAll atomically swaps the full store contents for the given
	// record set. Used by rollback and by the offloaded apply path.
	ReplaceAll(ctx context.Context, records []models.Record) error

	// UpdateSyncTimestamp persists the timestamp of the last successfully
	// applied differential.
	UpdateSyncTimestamp(ctx context.Context, ts time.Time) error

	// LastSyncTimestamp returns the persisted sync timestamp, or the zero
	// time when no differential has been applied yet.
	LastSyncTimestamp(ctx context.Context) (time.Time, error)
}
