package repository

import (
	"context"
	"time"

	"wellsync/internal/types"
)

// UsageRepository persists desktop foreground samples and wellness state
type UsageRepository interface {
	SampleRepository
	StateRepository

	// WithTransaction runs fn against a repository bound to one transaction
	WithTransaction(ctx context.Context, fn func(repo UsageRepository) error) error
}

// SampleRepository stores per-app, per-day foreground seconds
type SampleRepository interface {
	// AccumulateSamples adds seconds to the (day, package) rows and widens their first/last seen bounds
	AccumulateSamples(ctx context.Context, samples []types.AppSample) error
	GetSamplesInRange(ctx context.Context, startDay, endDay time.Time) ([]types.AppSample, error)
	// DeleteOldUsage removes samples dated before olderThan and returns the number deleted
	DeleteOldUsage(ctx context.Context, olderThan time.Time) (int64, error)
}

// StateRepository stores achievement engine snapshots, one row set per save
type StateRepository interface {
	SaveState(ctx context.Context, state types.WellnessState) (string, error)
	LoadLatestState(ctx context.Context) (*types.WellnessState, error)
	PruneStates(ctx context.Context, keep int) (int64, error)
}
