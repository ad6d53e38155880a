// Package store persists datasets, settings, and upload history as JSON
// documents keyed by user, with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// Store defines the persistence interface for aggregated order data.
type Store interface {
	// Datasets
	LoadDataset(ctx context.Context, userKey string) (*model.Dataset, error)
	SaveDataset(ctx context.Context, userKey string, d *model.Dataset) error
	DeleteDataset(ctx context.Context, userKey string) error

	// Settings
	LoadSettings(ctx context.Context, userKey string) (*model.Settings, error)
	SaveSettings(ctx context.Context, userKey string, s *model.Settings) error
	DeleteSettings(ctx context.Context, userKey string) error

	// Upload history
	RecordUpload(ctx context.Context, userKey string, log model.UploadLog) (*model.UploadLog, error)
	ListUploads(ctx context.Context, userKey string, limit int) ([]model.UploadLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string // "sqlite" or "postgres"
	Path        string // sqlite database path
	DatabaseURL string // postgres connection string
	Pool        *PoolConfig
}

// New opens the backend selected by opts and runs migrations.
func New(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Driver {
	case "", "sqlite":
		s, err = NewSQLite(opts.Path)
	case "postgres":
		s, err = NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: sqlite, postgres)", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
