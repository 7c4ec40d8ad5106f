// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/models"
)

// recordRepository is the SQL-backed implementation of [RecordStore]. It
// works identically over SQLite and PostgreSQL: the open field set is stored
// as a JSON document in the "fields" column, keyed by the record ID.
//
// Every method obtains a context-scoped logger via [logger.FromContext] so
// database interactions are traced with structured fields.
type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordStore] backed by the provided
// database connection and logger.
func NewRecordRepository(db *DB, log *logger.Logger) RecordStore {
	return &recordRepository{
		DB:     db,
		logger: log,
	}
}

func (r *recordRepository) Get(ctx context.Context, id string) (models.Record, error) {
	query, args, err := r.selectRecordQuery(id).ToSql()
	if err != nil {
		return models.Record{}, fmt.Errorf("build get record query: %w", err)
	}

	row := r.DB.QueryRowContext(ctx, query, args...)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, ErrRecordNotFound
		}
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.Get").
			Str("id", id).
			Msg("failed to fetch record")
		return models.Record{}, r.errorClassificator.Classify(err)
	}

	return record, nil
}

func (r *recordRepository) Add(ctx context.Context, record models.Record) error {
	fields, err := encodeFields(record.Fields)
	if err != nil {
		return err
	}

	query, args, err := r.insertRecordQuery(record.ID, record.Updated, fields).ToSql()
	if err != nil {
		return fmt.Errorf("build insert record query: %w", err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.Add").
			Str("id", record.ID).
			Msg("failed to insert record")
		return r.errorClassificator.Classify(err)
	}

	return nil
}

func (r *recordRepository) Update(ctx context.Context, record models.Record) error {
	fields, err := encodeFields(record.Fields)
	if err != nil {
		return err
	}

	query, args, err := r.updateRecordQuery(record.ID, record.Updated, fields).ToSql()
	if err != nil {
		return fmt.Errorf("build update record query: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.Update").
			Str("id", record.ID).
			Msg("failed to update record")
		return r.errorClassificator.Classify(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (r *recordRepository) Remove(ctx context.Context, id string) (bool, error) {
	query, args, err := r.deleteRecordQuery(id).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete record query: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.Remove").
			Str("id", id).
			Msg("failed to delete record")
		return false, r.errorClassificator.Classify(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return affected > 0, nil
}

func (r *recordRepository) GetAll(ctx context.Context) ([]models.Record, error) {
	query, args, err := r.selectAllRecordsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select all query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.GetAll").
			Msg("failed to execute query for all records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.Record, 0, 50)
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan record row: %w", scanErr)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return records, nil
}

// ReplaceAll swaps the full table contents inside one transaction so rollback
// restores exactly the snapshot it was given.
func (r *recordRepository) ReplaceAll(ctx context.Context, records []models.Record) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace-all transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query, args, err := r.deleteAllRecordsQuery().ToSql()
	if err != nil {
		return fmt.Errorf("build delete all query: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return r.errorClassificator.Classify(err)
	}

	for _, record := range records {
		fields, encErr := encodeFields(record.Fields)
		if encErr != nil {
			return encErr
		}

		query, args, err = r.insertRecordQuery(record.ID, record.Updated, fields).ToSql()
		if err != nil {
			return fmt.Errorf("build insert record query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return r.errorClassificator.Classify(err)
		}
	}

	return tx.Commit()
}

func (r *recordRepository) UpdateSyncTimestamp(ctx context.Context, ts time.Time) error {
	query, args, err := r.upsertSyncStateQuery(ts.UTC().Format(time.RFC3339Nano)).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sync state query: %w", err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.UpdateSyncTimestamp").
			Msg("failed to persist sync timestamp")
		return r.errorClassificator.Classify(err)
	}

	return nil
}

func (r *recordRepository) LastSyncTimestamp(ctx context.Context) (time.Time, error) {
	query, args, err := r.selectSyncStateQuery().ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build select sync state query: %w", err)
	}

	var value string
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, r.errorClassificator.Classify(err)
	}

	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored sync timestamp: %w", err)
	}

	return ts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var record models.Record
	var fields string

	if err := row.Scan(&record.ID, &record.Updated, &fields); err != nil {
		return models.Record{}, err
	}

	if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
		return models.Record{}, fmt.Errorf("decode record fields: %w", err)
	}

	return record, nil
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode record fields: %w", err)
	}
	return string(raw), nil
}
