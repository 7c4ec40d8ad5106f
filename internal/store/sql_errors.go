package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgresErrorClassifier maps pgconn error codes onto store sentinels.
type postgresErrorClassifier struct{}

func NewPostgresErrorClassifier() ErrorClassificator {
	return &postgresErrorClassifier{}
}

func (c *postgresErrorClassifier) Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %w", ErrRecordExists, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return err
}

// sqliteErrorClassifier maps go-sqlite3 failures onto store sentinels.
// The driver error type is matched by message to avoid linking the cgo
// package into code that only needs classification.
type sqliteErrorClassifier struct{}

func newSQLiteErrorClassifier() ErrorClassificator {
	return &sqliteErrorClassifier{}
}

func (c *sqliteErrorClassifier) Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrRecordExists, err)
	}

	return err
}
