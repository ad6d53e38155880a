package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The parent directory is created when missing.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "sqlite: create data dir")
		}
	}
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
CREATE TABLE IF NOT EXISTS datasets (
	user_key   TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS settings (
	user_key   TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS uploads (
	id               TEXT PRIMARY KEY,
	user_key         TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	mode             TEXT NOT NULL,
	rows_total       INTEGER NOT NULL DEFAULT 0,
	rows_processed   INTEGER NOT NULL DEFAULT 0,
	rows_skipped     INTEGER NOT NULL DEFAULT 0,
	new_orders       INTEGER NOT NULL DEFAULT 0,
	duplicate_orders INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_uploads_user_key ON uploads(user_key, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadDataset(ctx context.Context, userKey string) (*model.Dataset, error) {
	doc, err := s.loadDoc(ctx, "datasets", userKey)
	if err != nil || doc == nil {
		return nil, err
	}
	var d model.Dataset
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal dataset")
	}
	return &d, nil
}

func (s *SQLiteStore) SaveDataset(ctx context.Context, userKey string, d *model.Dataset) error {
	return s.saveDoc(ctx, "datasets", userKey, d)
}

func (s *SQLiteStore) DeleteDataset(ctx context.Context, userKey string) error {
	return s.deleteDoc(ctx, "datasets", userKey)
}

func (s *SQLiteStore) LoadSettings(ctx context.Context, userKey string) (*model.Settings, error) {
	doc, err := s.loadDoc(ctx, "settings", userKey)
	if err != nil || doc == nil {
		return nil, err
	}
	var set model.Settings
	if err := json.Unmarshal(doc, &set); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal settings")
	}
	return &set, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, userKey string, set *model.Settings) error {
	return s.saveDoc(ctx, "settings", userKey, set)
}

func (s *SQLiteStore) DeleteSettings(ctx context.Context, userKey string) error {
	return s.deleteDoc(ctx, "settings", userKey)
}

func (s *SQLiteStore) RecordUpload(ctx context.Context, userKey string, log model.UploadLog) (*model.UploadLog, error) {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, user_key, file_name, mode, rows_total, rows_processed, rows_skipped, new_orders, duplicate_orders, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, userKey, log.FileName, string(log.Mode),
		log.RowsTotal, log.RowsProcessed, log.RowsSkipped,
		log.NewOrders, log.DuplicateOrders, log.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert upload")
	}
	return &log, nil
}

func (s *SQLiteStore) ListUploads(ctx context.Context, userKey string, limit int) ([]model.UploadLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, mode, rows_total, rows_processed, rows_skipped, new_orders, duplicate_orders, created_at
		 FROM uploads WHERE user_key = ? ORDER BY created_at DESC LIMIT ?`,
		userKey, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list uploads")
	}
	defer rows.Close()

	var logs []model.UploadLog
	for rows.Next() {
		var l model.UploadLog
		var mode string
		if err := rows.Scan(&l.ID, &l.FileName, &mode, &l.RowsTotal, &l.RowsProcessed,
			&l.RowsSkipped, &l.NewOrders, &l.DuplicateOrders, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan upload")
		}
		l.Mode = model.UploadMode(mode)
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list uploads iterate")
}

// helpers

func (s *SQLiteStore) loadDoc(ctx context.Context, table, userKey string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM `+table+` WHERE user_key = ?`, userKey,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load %s", table)
	}
	return []byte(doc), nil
}

func (s *SQLiteStore) saveDoc(ctx context.Context, table, userKey string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal %s", table)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (user_key, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userKey, string(doc), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save %s", table)
}

func (s *SQLiteStore) deleteDoc(ctx context.Context, table, userKey string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_key = ?`, userKey)
	return eris.Wrapf(err, "sqlite: delete %s", table)
}
