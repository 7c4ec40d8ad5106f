package store

import (
	"context"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/akarpov/go-alertsync/internal/logger"
)

// NewRecordStore selects a RecordStore backend from the DSN:
//
//   - "memory" keeps records in process memory only;
//   - postgres:// or postgresql:// URIs open PostgreSQL;
//   - anything else is treated as a SQLite database file path.
//
// SQL backends are pinged with a short bounded retry before use so a store
// that is still starting up (e.g. Postgres in a container) does not fail the
// whole application at boot.
func NewRecordStore(ctx context.Context, dsn string, log *logger.Logger) (RecordStore, error) {
	if dsn == "memory" || dsn == ":memory:" {
		return NewMemoryStore(), nil
	}

	var db *DB
	backoff := retry.WithMaxRetries(3, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var connErr error
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			db, connErr = NewConnectPostgres(ctx, dsn, log)
		} else {
			db, connErr = NewConnectSQLite(ctx, dsn, log)
		}
		return retry.RetryableError(connErr)
	})
	if err != nil {
		return nil, err
	}

	return NewRecordRepository(db, log), nil
}
