package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPostgresErrorClassifier(t *testing.T) {
	c := NewPostgresErrorClassifier()

	if got := c.Classify(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := c.Classify(sql.ErrNoRows); !errors.Is(got, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", got)
	}
	if got := c.Classify(&pgconn.PgError{Code: pgerrcode.UniqueViolation}); !errors.Is(got, ErrRecordExists) {
		t.Errorf("expected ErrRecordExists, got %v", got)
	}
	if got := c.Classify(&pgconn.PgError{Code: pgerrcode.SerializationFailure}); !errors.Is(got, ErrExecutingQuery) {
		t.Errorf("expected ErrExecutingQuery, got %v", got)
	}

	plain := errors.New("network down")
	if got := c.Classify(plain); !errors.Is(got, plain) {
		t.Errorf("expected passthrough, got %v", got)
	}
}

func TestSQLiteErrorClassifier(t *testing.T) {
	c := newSQLiteErrorClassifier()

	if got := c.Classify(sql.ErrNoRows); !errors.Is(got, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", got)
	}
	if got := c.Classify(errors.New("UNIQUE constraint failed: records.id")); !errors.Is(got, ErrRecordExists) {
		t.Errorf("expected ErrRecordExists, got %v", got)
	}

	plain := errors.New("database is locked")
	if got := c.Classify(plain); !errors.Is(got, plain) {
		t.Errorf("expected passthrough, got %v", got)
	}
}
