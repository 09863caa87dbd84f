package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (tests use pgxmock here).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS overrides (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tab         TEXT NOT NULL,
	key         TEXT NOT NULL,
	changes     JSONB NOT NULL,
	mark_edited BOOLEAN NOT NULL DEFAULT false,
	applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_overrides_tab ON overrides(tab);
CREATE INDEX IF NOT EXISTS idx_overrides_applied_at ON overrides(applied_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(rec.Changes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal changes")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO overrides (id, tab, key, changes, mark_edited, applied_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Tab, rec.Key, string(changesJSON), rec.MarkEdited, rec.AppliedAt,
	)
	return eris.Wrap(err, "postgres: insert override")
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, tab, key, changes, mark_edited, applied_at FROM overrides WHERE 1=1`
	var args []any

	if filter.Tab != "" {
		args = append(args, filter.Tab)
		query += ` AND tab = $1`
	}
	query += ` ORDER BY applied_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overrides")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var changesJSON string
		if err := rows.Scan(&rec.ID, &rec.Tab, &rec.Key, &changesJSON, &rec.MarkEdited, &rec.AppliedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		if err := json.Unmarshal([]byte(changesJSON), &rec.Changes); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal changes")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list overrides iterate")
}
