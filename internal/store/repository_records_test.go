package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/models"
)

func newTestRecordRepo(t *testing.T) (*recordRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l := logger.Nop()
	repo := &recordRepository{
		DB: &DB{
			DB:                 db,
			builder:            sq.StatementBuilder.PlaceholderFormat(sq.Question),
			errorClassificator: NewPostgresErrorClassifier(),
			logger:             l,
		},
		logger: l,
	}
	return repo, mock
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestRecordRepository_Get_Success(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	ctx := context.Background()

	updated := time.Now()
	rows := sqlmock.
		NewRows([]string{"id", "updated", "fields"}).
		AddRow("alert-1", updated, `{"severity":"major"}`)

	mock.ExpectQuery("SELECT id, updated, fields FROM records").
		WithArgs("alert-1").
		WillReturnRows(rows)

	record, err := repo.Get(ctx, "alert-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID != "alert-1" {
		t.Errorf("expected id alert-1, got %s", record.ID)
	}
	if record.Fields["severity"] != "major" {
		t.Errorf("expected severity major, got %v", record.Fields["severity"])
	}
}

func TestRecordRepository_Get_NotFound(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectQuery("SELECT id, updated, fields FROM records").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated", "fields"}))

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordRepository_Get_BadFieldsJSON(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	rows := sqlmock.
		NewRows([]string{"id", "updated", "fields"}).
		AddRow("alert-1", time.Now(), `{broken`)

	mock.ExpectQuery("SELECT id, updated, fields FROM records").
		WillReturnRows(rows)

	_, err := repo.Get(context.Background(), "alert-1")
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestRecordRepository_Add_Success(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("alert-1", sqlmock.AnyArg(), `{"severity":"minor"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Add(context.Background(), models.Record{
		ID:      "alert-1",
		Updated: time.Now(),
		Fields:  map[string]any{"severity": "minor"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordRepository_Add_UniqueViolation(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	err := repo.Add(context.Background(), models.Record{
		ID:      "alert-1",
		Updated: time.Now(),
		Fields:  map[string]any{},
	})
	if !errors.Is(err, ErrRecordExists) {
		t.Fatalf("expected ErrRecordExists, got %v", err)
	}
}

func TestRecordRepository_Update_Success(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec("UPDATE records").
		WithArgs(sqlmock.AnyArg(), `{"severity":"severe"}`, "alert-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), models.Record{
		ID:      "alert-1",
		Updated: time.Now(),
		Fields:  map[string]any{"severity": "severe"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordRepository_Update_MissingRecord(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectExec("UPDATE records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), models.Record{
		ID:      "ghost",
		Updated: time.Now(),
		Fields:  map[string]any{},
	})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordRepository_Remove(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM records").
		WithArgs("alert-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Remove(ctx, "alert-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}

	mock.ExpectExec("DELETE FROM records").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.Remove(ctx, "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Error("expected removed=false for absent record")
	}
}

func TestRecordRepository_GetAll(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	rows := sqlmock.
		NewRows([]string{"id", "updated", "fields"}).
		AddRow("a", time.Now(), `{}`).
		AddRow("b", time.Now(), `{"severity":"minor"}`)

	mock.ExpectQuery("SELECT id, updated, fields FROM records").
		WillReturnRows(rows)

	records, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "a" || records[1].ID != "b" {
		t.Errorf("unexpected record order: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestRecordRepository_ReplaceAll(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM records").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO records").
		WithArgs("a", sqlmock.AnyArg(), `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO records").
		WithArgs("b", sqlmock.AnyArg(), `{"severity":"major"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceAll(context.Background(), []models.Record{
		{ID: "a", Updated: time.Now(), Fields: map[string]any{}},
		{ID: "b", Updated: time.Now(), Fields: map[string]any{"severity": "major"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordRepository_ReplaceAll_RollsBackOnInsertError(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO records").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceAll(context.Background(), []models.Record{
		{ID: "a", Updated: time.Now(), Fields: map[string]any{}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordRepository_SyncTimestampRoundTrip(t *testing.T) {
	repo, mock := newTestRecordRepo(t)
	ctx := context.Background()

	ts := time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO sync_state").
		WithArgs(lastSyncKey, ts.Format(time.RFC3339Nano)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSyncTimestamp(ctx, ts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := sqlmock.
		NewRows([]string{"value"}).
		AddRow(ts.Format(time.RFC3339Nano))

	mock.ExpectQuery("SELECT value FROM sync_state").
		WithArgs(lastSyncKey).
		WillReturnRows(rows)

	got, err := repo.LastSyncTimestamp(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, got)
	}
}

func TestRecordRepository_LastSyncTimestamp_NeverSynced(t *testing.T) {
	repo, mock := newTestRecordRepo(t)

	mock.ExpectQuery("SELECT value FROM sync_state").
		WithArgs(lastSyncKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got, err := repo.LastSyncTimestamp(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
