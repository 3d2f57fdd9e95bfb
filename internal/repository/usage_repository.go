package repository

import (
	"context"
	"database/sql"

	"wellsync/internal/database"
	repoerrors "wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"

	"github.com/google/uuid"
)

// BatchConfig holds configuration for batch operations
type BatchConfig struct {
	DefaultBatchSize int
	MaxBatchSize     int
}

func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		DefaultBatchSize: 100,
		MaxBatchSize:     1000,
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements UsageRepository using SQLite
type SQLiteRepository struct {
	db          *sql.DB
	q           querier
	inTx        bool
	retryConfig *repoerrors.RetryConfig
	batchConfig *BatchConfig
	newID       func() string
	logger      logging.Logger
}

var _ UsageRepository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a repository with custom retry and batch settings; nil selects defaults
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, batchConfig *BatchConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if batchConfig == nil {
		batchConfig = DefaultBatchConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	db := dbService.DB()
	return &SQLiteRepository{
		db:          db,
		q:           db,
		retryConfig: retryConfig,
		batchConfig: batchConfig,
		newID:       uuid.NewString,
		logger:      logger,
	}
}

func (r *SQLiteRepository) batchSize(total int) int {
	size := r.batchConfig.DefaultBatchSize
	if size <= 0 {
		size = 1
	}
	if r.batchConfig.MaxBatchSize > 0 {
		size = min(size, r.batchConfig.MaxBatchSize)
	}
	return min(size, max(total, 1))
}
