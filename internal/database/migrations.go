package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"wellsync/internal/infrastructure/logging"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationRunner applies the embedded goose migrations through a goose.Provider,
// so concurrent runners never touch goose package globals.
type MigrationRunner struct {
	db     *sql.DB
	logger logging.Logger
}

var _ MigrationManager = (*MigrationRunner)(nil)

func NewMigrationRunner(db *sql.DB, logger logging.Logger) *MigrationRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &MigrationRunner{db: db, logger: logger}
}

func migrationFS() (fs.FS, error) {
	return fs.Sub(embedMigrations, "migrations")
}

func (mr *MigrationRunner) provider() (*goose.Provider, error) {
	if mr.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	fsys, err := migrationFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, mr.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// RunMigrations applies all pending migrations
func (mr *MigrationRunner) RunMigrations(ctx context.Context) error {
	p, err := mr.provider()
	if err != nil {
		return err
	}

	mr.logger.Info("Running database migrations from embedded filesystem")

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		mr.logger.Debug("Applied migration", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}

	if version, err := p.GetDBVersion(ctx); err == nil {
		mr.logger.Info("Database migrated to version", "version", version, "applied", len(results))
	}
	return nil
}

func (mr *MigrationRunner) GetCurrentVersion(ctx context.Context) (int64, error) {
	p, err := mr.provider()
	if err != nil {
		return 0, err
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// ValidateMigrations checks that the embedded set is non-empty
func (mr *MigrationRunner) ValidateMigrations() error {
	fsys, err := migrationFS()
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to collect migrations: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no migrations found in embedded filesystem")
	}

	mr.logger.Info("Found valid migrations in embedded filesystem", "count", len(entries))
	return nil
}
