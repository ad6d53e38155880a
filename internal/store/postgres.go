package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"load_dataset":  `SELECT doc FROM datasets WHERE user_key = $1`,
	"save_dataset":  `INSERT INTO datasets (user_key, doc, updated_at) VALUES ($1, $2, $3) ON CONFLICT (user_key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
	"load_settings": `SELECT doc FROM settings WHERE user_key = $1`,
	"save_settings": `INSERT INTO settings (user_key, doc, updated_at) VALUES ($1, $2, $3) ON CONFLICT (user_key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
	"insert_upload": `INSERT INTO uploads (id, user_key, file_name, mode, rows_total, rows_processed, rows_skipped, new_orders, duplicate_orders, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// NewPostgresWithPool wraps an existing pool, mainly for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	user_key   TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	user_key   TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS uploads (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_key         TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	mode             TEXT NOT NULL,
	rows_total       INTEGER NOT NULL DEFAULT 0,
	rows_processed   INTEGER NOT NULL DEFAULT 0,
	rows_skipped     INTEGER NOT NULL DEFAULT 0,
	new_orders       INTEGER NOT NULL DEFAULT 0,
	duplicate_orders INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_uploads_user_created ON uploads(user_key, created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadDataset(ctx context.Context, userKey string) (*model.Dataset, error) {
	doc, err := s.loadDoc(ctx, "datasets", userKey)
	if err != nil || doc == nil {
		return nil, err
	}
	var d model.Dataset
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal dataset")
	}
	return &d, nil
}

func (s *PostgresStore) SaveDataset(ctx context.Context, userKey string, d *model.Dataset) error {
	return s.saveDoc(ctx, "datasets", userKey, d)
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, userKey string) error {
	return s.deleteDoc(ctx, "datasets", userKey)
}

func (s *PostgresStore) LoadSettings(ctx context.Context, userKey string) (*model.Settings, error) {
	doc, err := s.loadDoc(ctx, "settings", userKey)
	if err != nil || doc == nil {
		return nil, err
	}
	var set model.Settings
	if err := json.Unmarshal(doc, &set); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal settings")
	}
	return &set, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, userKey string, set *model.Settings) error {
	return s.saveDoc(ctx, "settings", userKey, set)
}

func (s *PostgresStore) DeleteSettings(ctx context.Context, userKey string) error {
	return s.deleteDoc(ctx, "settings", userKey)
}

func (s *PostgresStore) RecordUpload(ctx context.Context, userKey string, log model.UploadLog) (*model.UploadLog, error) {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (id, user_key, file_name, mode, rows_total, rows_processed, rows_skipped, new_orders, duplicate_orders, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, userKey, log.FileName, string(log.Mode),
		log.RowsTotal, log.RowsProcessed, log.RowsSkipped,
		log.NewOrders, log.DuplicateOrders, log.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert upload")
	}
	return &log, nil
}

func (s *PostgresStore) ListUploads(ctx context.Context, userKey string, limit int) ([]model.UploadLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_name, mode, rows_total, rows_processed, rows_skipped, new_orders, duplicate_orders, created_at
		 FROM uploads WHERE user_key = $1 ORDER BY created_at DESC LIMIT $2`,
		userKey, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list uploads")
	}
	defer rows.Close()

	var logs []model.UploadLog
	for rows.Next() {
		var l model.UploadLog
		var mode string
		if err := rows.Scan(&l.ID, &l.FileName, &mode, &l.RowsTotal, &l.RowsProcessed,
			&l.RowsSkipped, &l.NewOrders, &l.DuplicateOrders, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan upload")
		}
		l.Mode = model.UploadMode(mode)
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list uploads iterate")
}

// helpers

func (s *PostgresStore) loadDoc(ctx context.Context, table, userKey string) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM `+table+` WHERE user_key = $1`, userKey,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load %s", table)
	}
	return doc, nil
}

func (s *PostgresStore) saveDoc(ctx context.Context, table, userKey string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal %s", table)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+table+` (user_key, doc, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userKey, doc, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save %s", table)
}

func (s *PostgresStore) deleteDoc(ctx context.Context, table, userKey string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_key = $1`, userKey)
	return eris.Wrapf(err, "postgres: delete %s", table)
}
