package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kycdesk/pkg/platform/sentinel"
)

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite wraps a migrated SQLite handle (see platform/sqlite.Open).
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := sq.Insert("kv_records").
		Columns("key", "value", "updated_at_ms").
		Values(key, value, time.Now().UnixMilli()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From("kv_records").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}
	var value []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete("kv_records").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AppendSubmissionID(ctx context.Context, id string) error {
	query, args, err := sq.Insert("submission_ids").Columns("id").Values(id).ToSql()
	if err != nil {
		return fmt.Errorf("build append: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append submission id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSubmissionIDs(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("id").From("submission_ids").OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submission ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
