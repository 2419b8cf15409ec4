package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kycdesk/pkg/platform/sentinel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps records in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres wraps a pool whose schema has been migrated.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := psql.Insert("kv_records").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := psql.Select("value").From("kv_records").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}
	var value []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := psql.Delete("kv_records").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) AppendSubmissionID(ctx context.Context, id string) error {
	query, args, err := psql.Insert("submission_ids").Columns("id").Values(id).ToSql()
	if err != nil {
		return fmt.Errorf("build append: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append submission id: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSubmissionIDs(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("id").From("submission_ids").OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submission ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan submission ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
