package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS overrides (
	id          TEXT PRIMARY KEY,
	tab         TEXT NOT NULL,
	key         TEXT NOT NULL,
	changes     TEXT NOT NULL,
	mark_edited INTEGER NOT NULL DEFAULT 0,
	applied_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_overrides_tab ON overrides(tab);
CREATE INDEX IF NOT EXISTS idx_overrides_applied_at ON overrides(applied_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(rec.Changes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal changes")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO overrides (id, tab, key, changes, mark_edited, applied_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tab, rec.Key, string(changesJSON), rec.MarkEdited, rec.AppliedAt,
	)
	return eris.Wrap(err, "sqlite: insert override")
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, tab, key, changes, mark_edited, applied_at FROM overrides WHERE 1=1`
	var args []any

	if filter.Tab != "" {
		query += ` AND tab = ?`
		args = append(args, filter.Tab)
	}
	query += ` ORDER BY applied_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var changesJSON string
		if err := rows.Scan(&rec.ID, &rec.Tab, &rec.Key, &changesJSON, &rec.MarkEdited, &rec.AppliedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		if err := json.Unmarshal([]byte(changesJSON), &rec.Changes); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal changes")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list overrides iterate")
}
