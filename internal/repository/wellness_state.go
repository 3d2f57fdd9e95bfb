package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/types"
)

// SaveState writes a new run row plus one row per achievement and returns the run ID
func (r *SQLiteRepository) SaveState(ctx context.Context, state types.WellnessState) (string, error) {
	if state.BestStreak < 0 {
		return "", repoerrors.HandleValidationError("SaveState", "bestStreak", "negative", "streak cannot be negative")
	}
	start := time.Now()

	runID := r.newID()
	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	err := r.WithTransaction(ctx, func(repo UsageRepository) error {
		txRepo := repo.(*SQLiteRepository)

		if _, err := txRepo.q.ExecContext(ctx,
			`INSERT INTO wellness_runs (run_id, saved_at, best_streak) VALUES (?, ?, ?)`,
			runID, storedTime(savedAt), state.BestStreak); err != nil {
			return repoerrors.WrapDatabaseErrorWithContext("SaveState.Run", err, map[string]string{"run_id": runID})
		}

		for _, a := range state.Achievements {
			if _, err := txRepo.q.ExecContext(ctx,
				`INSERT INTO wellness_achievements (run_id, achievement_id, progress, unlocked, unlocked_at) VALUES (?, ?, ?, ?, ?)`,
				runID, a.ID, max(a.Progress, 0), a.Unlocked, nullTimeFrom(a.UnlockedDate)); err != nil {
				return repoerrors.WrapDatabaseErrorWithContext("SaveState.Achievement", err, map[string]string{
					"run_id":         runID,
					"achievement_id": a.ID,
				})
			}
		}
		return nil
	})
	if err != nil {
		logging.LogError(r.logger, err, "SaveState", nil)
		return "", err
	}

	logging.LogOperation(r.logger, "SaveState", time.Since(start), map[string]any{
		"run_id":       runID,
		"achievements": len(state.Achievements),
	})
	return runID, nil
}

// LoadLatestState returns the most recently saved state, or a NotFound error when none exists
func (r *SQLiteRepository) LoadLatestState(ctx context.Context) (*types.WellnessState, error) {
	state := &types.WellnessState{}

	err := r.q.QueryRowContext(ctx,
		`SELECT run_id, saved_at, best_streak FROM wellness_runs ORDER BY saved_at DESC, rowid DESC LIMIT 1`,
	).Scan(&state.RunID, &state.SavedAt, &state.BestStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repoerrors.HandleNotFound("LoadLatestState", "wellness_runs", "latest")
	}
	if err != nil {
		repoErr := repoerrors.WrapDatabaseError("LoadLatestState", err)
		logging.LogError(r.logger, repoErr, "LoadLatestState", nil)
		return nil, repoErr
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT achievement_id, progress, unlocked, unlocked_at FROM wellness_achievements WHERE run_id = ? ORDER BY achievement_id`,
		state.RunID)
	if err != nil {
		return nil, repoerrors.WrapDatabaseErrorWithContext("LoadLatestState.Achievements", err, map[string]string{"run_id": state.RunID})
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a          types.Achievement
			unlockedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Progress, &a.Unlocked, &unlockedAt); err != nil {
			return nil, repoerrors.WrapDatabaseError("LoadLatestState.Scan", err)
		}
		a.UnlockedDate = timePtrFromNull(unlockedAt)
		state.Achievements = append(state.Achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, repoerrors.WrapDatabaseError("LoadLatestState", err)
	}

	return state, nil
}

// PruneStates keeps the newest keep runs and deletes the rest with their achievements
func (r *SQLiteRepository) PruneStates(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, repoerrors.HandleValidationError("PruneStates", "keep", "<1", "at least one run must be kept")
	}

	var deleted int64
	err := r.WithTransaction(ctx, func(repo UsageRepository) error {
		txRepo := repo.(*SQLiteRepository)
		const stale = `SELECT run_id FROM wellness_runs ORDER BY saved_at DESC, rowid DESC LIMIT -1 OFFSET ?`

		if _, err := txRepo.q.ExecContext(ctx,
			`DELETE FROM wellness_achievements WHERE run_id IN (`+stale+`)`, keep); err != nil {
			return repoerrors.WrapDatabaseError("PruneStates.Achievements", err)
		}
		res, err := txRepo.q.ExecContext(ctx,
			`DELETE FROM wellness_runs WHERE run_id IN (`+stale+`)`, keep)
		if err != nil {
			return repoerrors.WrapDatabaseError("PruneStates.Runs", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		logging.LogError(r.logger, err, "PruneStates", map[string]any{"keep": keep})
		return 0, err
	}
	return deleted, nil
}
