package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	repoerrors "wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/types"
)

const accumulateSampleSQL = `
INSERT INTO app_usage_samples (day, app_name, package_name, seconds, first_seen, last_seen, exe_path)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (day, package_name) DO UPDATE SET
    app_name = excluded.app_name,
    seconds = app_usage_samples.seconds + excluded.seconds,
    first_seen = MIN(app_usage_samples.first_seen, excluded.first_seen),
    last_seen = MAX(app_usage_samples.last_seen, excluded.last_seen),
    exe_path = CASE WHEN excluded.exe_path <> '' THEN excluded.exe_path ELSE app_usage_samples.exe_path END`

const selectSamplesSQL = `
SELECT id, day, app_name, package_name, seconds, first_seen, last_seen, exe_path
FROM app_usage_samples
WHERE day >= ? AND day <= ?
ORDER BY day, package_name`

// AccumulateSamples merges samples into storage in batches, one transaction per batch
func (r *SQLiteRepository) AccumulateSamples(ctx context.Context, samples []types.AppSample) error {
	if len(samples) == 0 {
		return nil
	}
	start := time.Now()

	for i, s := range samples {
		if s.PackageName == "" || s.AppName == "" {
			return repoerrors.HandleValidationError("AccumulateSamples", "sample", fmt.Sprintf("%d", i), "package and app name are required")
		}
		if s.Seconds < 0 {
			return repoerrors.HandleValidationError("AccumulateSamples", "seconds", fmt.Sprintf("%d", s.Seconds), "negative duration not allowed")
		}
	}

	size := r.batchSize(len(samples))
	for i := 0; i < len(samples); i += size {
		batch := samples[i:min(i+size, len(samples))]

		err := r.WithTransaction(ctx, func(repo UsageRepository) error {
			txRepo := repo.(*SQLiteRepository)
			for j, s := range batch {
				if err := txRepo.accumulateOne(ctx, s); err != nil {
					repoErr := repoerrors.NewRepositoryErrorWithContext("AccumulateSamples", err, repoerrors.ClassifyError(err), map[string]string{
						"package":     s.PackageName,
						"date":        dayKey(s.Date),
						"batch_index": fmt.Sprintf("%d", i+j),
						"batch_size":  fmt.Sprintf("%d", len(batch)),
					})
					logging.LogError(r.logger, repoErr, "AccumulateSamples", map[string]any{
						"total_size": len(samples),
					})
					return repoErr
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	logging.LogOperation(r.logger, "AccumulateSamples", time.Since(start), map[string]any{
		"total_size": len(samples),
		"batch_size": size,
	})
	return nil
}

func (r *SQLiteRepository) accumulateOne(ctx context.Context, s types.AppSample) error {
	first, last := s.FirstSeen, s.LastSeen
	if first.IsZero() {
		first = s.Date
	}
	if last.IsZero() || last.Before(first) {
		last = first
	}
	_, err := r.q.ExecContext(ctx, accumulateSampleSQL,
		dayKey(s.Date), s.AppName, s.PackageName, s.Seconds,
		storedTime(first), storedTime(last), s.ExePath)
	return err
}

// GetSamplesInRange returns samples for the inclusive calendar-day range ordered by day then package
func (r *SQLiteRepository) GetSamplesInRange(ctx context.Context, startDay, endDay time.Time) ([]types.AppSample, error) {
	if endDay.Before(startDay) {
		return nil, repoerrors.HandleValidationError("GetSamplesInRange", "range",
			dayKey(startDay)+".."+dayKey(endDay), "end day before start day")
	}

	var samples []types.AppSample
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		rows, err := r.q.QueryContext(ctx, selectSamplesSQL, dayKey(startDay), dayKey(endDay))
		if err != nil {
			return repoerrors.WrapDatabaseError("GetSamplesInRange", err)
		}
		defer rows.Close()

		samples = samples[:0]
		for rows.Next() {
			var (
				s   types.AppSample
				day string
			)
			if err := rows.Scan(&s.ID, &day, &s.AppName, &s.PackageName, &s.Seconds, &s.FirstSeen, &s.LastSeen, &s.ExePath); err != nil {
				return repoerrors.WrapDatabaseError("GetSamplesInRange.Scan", err)
			}
			if s.Date, err = parseDay(day); err != nil {
				return repoerrors.NewRepositoryErrorWithContext("GetSamplesInRange.Scan", err, repoerrors.ErrCodeCorruption, map[string]string{
					"day": day,
				})
			}
			samples = append(samples, s)
		}
		if err := rows.Err(); err != nil {
			return repoerrors.WrapDatabaseError("GetSamplesInRange", err)
		}
		return nil
	}, "GetSamplesInRange")
	if err != nil {
		logging.LogError(r.logger, err, "GetSamplesInRange", map[string]any{
			"start_day": dayKey(startDay),
			"end_day":   dayKey(endDay),
		})
		return nil, err
	}
	return samples, nil
}

// DeleteOldUsage removes all samples whose day is before olderThan's calendar day
func (r *SQLiteRepository) DeleteOldUsage(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, repoerrors.HandleValidationError("DeleteOldUsage", "olderThan", "zero", "cutoff is required")
	}
	start := time.Now()

	var deleted int64
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		res, err := r.q.ExecContext(ctx, `DELETE FROM app_usage_samples WHERE day < ?`, dayKey(olderThan))
		if err != nil {
			return repoerrors.WrapDatabaseErrorWithContext("DeleteOldUsage", err, map[string]string{
				"cutoff": dayKey(olderThan),
			})
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return repoerrors.WrapDatabaseError("DeleteOldUsage.RowsAffected", err)
		}
		return nil
	}, "DeleteOldUsage")
	if err != nil {
		var repoErr *repoerrors.RepositoryError
		if !errors.As(err, &repoErr) {
			err = repoerrors.WrapDatabaseError("DeleteOldUsage", err)
		}
		logging.LogError(r.logger, err, "DeleteOldUsage", nil)
		return 0, err
	}

	logging.LogOperation(r.logger, "DeleteOldUsage", time.Since(start), map[string]any{
		"cutoff":  dayKey(olderThan),
		"deleted": deleted,
	})
	return deleted, nil
}
