package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

const lastSyncKey = "last_sync"

func (db *DB) selectRecordQuery(id string) sq.SelectBuilder {
	return db.builder.
		Select("id", "updated", "fields").
		From("records").
		Where(sq.Eq{"id": id})
}

func (db *DB) selectAllRecordsQuery() sq.SelectBuilder {
	return db.builder.
		Select("id", "updated", "fields").
		From("records").
		OrderBy("id")
}

func (db *DB) insertRecordQuery(id string, updated time.Time, fields string) sq.InsertBuilder {
	return db.builder.
		Insert("records").
		Columns("id", "updated", "fields").
		Values(id, updated, fields)
}

func (db *DB) updateRecordQuery(id string, updated time.Time, fields string) sq.UpdateBuilder {
	return db.builder.
		Update("records").
		Set("updated", updated).
		Set("fields", fields).
		Where(sq.Eq{"id": id})
}

func (db *DB) deleteRecordQuery(id string) sq.DeleteBuilder {
	return db.builder.
		Delete("records").
		Where(sq.Eq{"id": id})
}

func (db *DB) deleteAllRecordsQuery() sq.DeleteBuilder {
	return db.builder.Delete("records")
}

// upsertSyncStateQuery relies on ON CONFLICT ... DO UPDATE, which is valid
// SQL for both SQLite and PostgreSQL.
func (db *DB) upsertSyncStateQuery(value string) sq.InsertBuilder {
	return db.builder.
		Insert("sync_state").
		Columns("key", "value").
		Values(lastSyncKey, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value")
}

func (db *DB) selectSyncStateQuery() sq.SelectBuilder {
	return db.builder.
		Select("value").
		From("sync_state").
		Where(sq.Eq{"key": lastSyncKey})
}
