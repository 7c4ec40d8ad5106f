package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/migrations"
)

// DB wraps an open SQL connection together with the backend-specific pieces
// the record repository needs: a statement builder with the right
// placeholder format, an error classifier, and the goose dialect used for
// migrations.
type DB struct {
	*sql.DB
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	dialect            string
	logger             *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}
