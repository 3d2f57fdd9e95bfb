package services

import (
	"context"
	"fmt"
	"time"

	"wellsync/internal/cache"
	"wellsync/internal/clock"
	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/infrastructure/metrics"
	"wellsync/internal/types"
	"wellsync/internal/usage"
)

// RawUsageSource reports aggregate per-app usage for the last days
type RawUsageSource interface {
	FetchRawUsageStats(ctx context.Context, days int) ([]types.RawUsageStat, error)
}

// PermissionChecker reports whether the usage source may be queried
type PermissionChecker interface {
	HasPermission() bool
}

// UsageService resolves a window to a normalized series: real data when the source
// is permitted and returns something usable, generated data otherwise. Results are cached.
type UsageService struct {
	source      RawUsageSource
	permissions PermissionChecker
	generator   *usage.Generator
	normalizer  *usage.Normalizer
	cache       *cache.UsageCache
	metrics     *metrics.Metrics
	logger      logging.Logger
}

// NewUsageService wires the pipeline. A nil source always yields generated data; a nil
// permissions checker treats the source as permitted.
func NewUsageService(source RawUsageSource, permissions PermissionChecker, c clock.Clock, m *metrics.Metrics, cacheOpts cache.Options, logger logging.Logger) *UsageService {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	generator := usage.NewGenerator(c)

	return &UsageService{
		source:      source,
		permissions: permissions,
		generator:   generator,
		normalizer:  usage.NewNormalizer(c, generator),
		cache:       cache.New(c, m, cacheOpts),
		metrics:     m,
		logger:      logger,
	}
}

// GetUsageForPeriod never fails and never returns an empty series. The slice is shared
// with the cache and must not be modified.
func (s *UsageService) GetUsageForPeriod(ctx context.Context, days int) []types.UsageRecord {
	return s.cache.Get(ctx, usage.ClampDays(days), s.load)
}

// ForceRefresh drops every cached window and recomputes this one
func (s *UsageService) ForceRefresh(ctx context.Context, days int) []types.UsageRecord {
	return s.cache.ForceRefresh(ctx, usage.ClampDays(days), s.load)
}

func (s *UsageService) ClearCache() {
	s.cache.Invalidate()
}

func (s *UsageService) load(ctx context.Context, days int) []types.UsageRecord {
	start := time.Now()
	records, source := s.compute(ctx, days)
	s.metrics.Recomputed(source, time.Since(start))

	s.logger.Debug("Usage series recomputed",
		"days", days,
		"source", source,
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds())
	return records
}

func (s *UsageService) compute(ctx context.Context, days int) ([]types.UsageRecord, string) {
	if s.source == nil || (s.permissions != nil && !s.permissions.HasPermission()) {
		s.metrics.SourceFallback(metrics.FallbackPermission)
		s.logger.Info("Usage source not permitted, using generated data", "days", days)
		return s.generator.Generate(days), metrics.SourceGenerated
	}

	raw, reason, err := s.fetch(ctx, days)
	if err != nil {
		s.metrics.SourceFallback(reason)
		s.logSourceFailure(err, days)
		return s.generator.Generate(days), metrics.SourceGenerated
	}

	if len(usage.Dedupe(raw)) == 0 {
		s.metrics.SourceFallback(metrics.FallbackEmpty)
		s.logger.Info("Usage source returned no usable data, using generated data", "days", days, "raw", len(raw))
		return s.generator.Generate(days), metrics.SourceGenerated
	}

	return s.normalizer.Normalize(raw, days), metrics.SourceReal
}

// fetch calls the source, turning both errors and panics into source errors
func (s *UsageService) fetch(ctx context.Context, days int) (raw []types.RawUsageStat, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			reason = metrics.FallbackPanic
			err = errors.NewSourceError("FetchRawUsageStats", fmt.Errorf("panic: %v", r), metrics.FallbackPanic)
		}
	}()

	raw, err = s.source.FetchRawUsageStats(ctx, days)
	if err != nil {
		return nil, metrics.FallbackError, asSourceError(err)
	}
	return raw, "", nil
}

// asSourceError wraps err as a source error unless the source already classified it
func asSourceError(err error) error {
	if errors.IsSourceUnavailable(err) {
		return err
	}
	return errors.NewSourceError("FetchRawUsageStats", err, metrics.FallbackError)
}

// logSourceFailure logs a busy or disconnected store as a warning; anything else is an error
func (s *UsageService) logSourceFailure(err error, days int) {
	cause := errors.Cause(err)
	if errors.IsBusy(cause) || errors.IsConnection(cause) {
		s.logger.Warn("Usage store unavailable, using generated data",
			"days", days,
			"error", err.Error(),
			"busy", errors.IsBusy(cause))
		return
	}
	logging.LogError(s.logger, err, "FetchRawUsageStats", map[string]any{"days": days})
}
