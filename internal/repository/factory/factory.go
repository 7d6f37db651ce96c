// Package factory opens the repository set for a configured database
// driver. It is the single construction path shared by the server and
// the admin CLI.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/config"
	"github.com/hemolink/hemolink/internal/repository"
	"github.com/hemolink/hemolink/internal/repository/memory"
	"github.com/hemolink/hemolink/internal/repository/postgres"
	"github.com/hemolink/hemolink/internal/repository/sqlite"
)

// Factory creates repositories based on configuration.
type Factory struct {
	cfg    config.DatabaseConfig
	logger zerolog.Logger
}

// New creates a repository factory for the given database settings.
func New(cfg config.DatabaseConfig, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Driver returns the configured database driver.
func (f *Factory) Driver() string {
	return f.cfg.Driver
}

// IsEmbedded returns true if using an embedded backend (memory or sqlite).
func (f *Factory) IsEmbedded() bool {
	return f.cfg.IsEmbedded()
}

// Result holds the opened repositories and the backing connection.
type Result struct {
	Repos    *repository.Repositories
	Database repository.DatabaseHealth

	// Partial is true when the driver does not cover every repository.
	// Callers that need the full set must refuse a partial result.
	Partial bool
}

// Close releases the backing connection.
func (r *Result) Close() error {
	if r.Database == nil {
		return nil
	}
	return r.Database.Close()
}

// Open connects to the configured backend and builds its repository
// set. SQLite databases are migrated to the current schema before the
// repositories are handed out.
//
// The PostgreSQL backend only carries the user repository for now, so
// its result comes back Partial.
func (f *Factory) Open(ctx context.Context) (*Result, error) {
	switch f.cfg.Driver {
	case "memory":
		return &Result{
			Repos:    memory.NewRepositories(memory.NewStore()),
			Database: repository.NoopHealth{},
		}, nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            f.cfg.Path,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: f.cfg.ConnMaxLifetime,
			JournalMode:     f.cfg.JournalMode,
			BusyTimeout:     f.cfg.BusyTimeout,
			CacheSize:       f.cfg.CacheSize,
			SynchronousMode: f.cfg.SynchronousMode,
		}, f.logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Result{
			Repos:    sqlite.NewRepositories(db),
			Database: db,
		}, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, f.cfg, f.logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Repos:    &repository.Repositories{User: postgres.NewUserRepository(db)},
			Database: db,
			Partial:  true,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", f.cfg.Driver)
	}
}
