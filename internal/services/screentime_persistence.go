package services

import (
	"context"
	"time"

	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/types"
)

func (st *ScreenTimeTracker) persistenceLoop(stopCh <-chan struct{}) {
	defer st.wg.Done()

	ticker := time.NewTicker(st.config.PersistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Flush logs its own failures and keeps the pending time for the next tick
			_ = st.Flush(context.Background())
		case <-stopCh:
			return
		}
	}
}

// Flush writes the whole seconds of pending time to the repository. Sub-second
// remainders stay pending. On failure the drained time is put back.
func (st *ScreenTimeTracker) Flush(ctx context.Context) error {
	if st.repository == nil {
		return errors.HandleConnectionError("Flush", "no repository configured")
	}
	if !st.IsPersistenceEnabled() {
		return nil
	}

	batch := st.drainPending()
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, st.config.FlushTimeout)
	defer cancel()

	if err := st.repository.AccumulateSamples(ctx, batch); err != nil {
		st.restorePending(batch)
		logging.LogError(st.logger, err, "FlushSamples", map[string]any{"samples": len(batch)})
		return err
	}

	st.mutex.Lock()
	st.lastPersist = st.clock.Now()
	st.mutex.Unlock()

	logging.LogOperation(st.logger, "FlushSamples", time.Since(start), map[string]any{"samples": len(batch)})
	return nil
}

// SaveCurrentDataNow immediately persists pending usage
func (st *ScreenTimeTracker) SaveCurrentDataNow(ctx context.Context) error {
	return st.Flush(ctx)
}

// LastPersist reports when pending time was last written successfully
func (st *ScreenTimeTracker) LastPersist() time.Time {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.lastPersist
}

// drainPending converts whole seconds of every pending tally to samples. Tallies of
// past days are dropped entirely since they can no longer grow.
func (st *ScreenTimeTracker) drainPending() []types.AppSample {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	batch := make([]types.AppSample, 0, len(st.pending))
	for key, p := range st.pending {
		seconds := int64(p.elapsed / time.Second)
		if seconds > 0 {
			batch = append(batch, types.AppSample{
				Date:        p.date,
				AppName:     p.appName,
				PackageName: p.packageName,
				Seconds:     seconds,
				FirstSeen:   p.firstSeen,
				LastSeen:    p.lastSeen,
				ExePath:     p.exePath,
			})
			p.elapsed -= time.Duration(seconds) * time.Second
		}
		if p.date.Before(st.currentDate) || p.elapsed == 0 {
			delete(st.pending, key)
		}
	}
	return batch
}

func (st *ScreenTimeTracker) restorePending(batch []types.AppSample) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	for _, s := range batch {
		key := tallyKey(s.Date, s.PackageName)
		p, ok := st.pending[key]
		if !ok {
			p = &appTally{appName: s.AppName, packageName: s.PackageName, exePath: s.ExePath, date: s.Date}
			st.pending[key] = p
		}
		p.add(time.Duration(s.Seconds)*time.Second, s.FirstSeen, s.LastSeen)
	}
}

// loadTodaysData seeds today's totals from what earlier runs persisted
func (st *ScreenTimeTracker) loadTodaysData(ctx context.Context) {
	if st.repository == nil || !st.IsPersistenceEnabled() {
		return
	}

	day := st.CurrentDate()
	samples, err := st.repository.GetSamplesInRange(ctx, day, day)
	if err != nil {
		st.logger.Warn("Failed to load today's usage", "date", day.Format(types.DateLayout), "error", err)
		return
	}

	st.mutex.Lock()
	defer st.mutex.Unlock()

	for _, s := range samples {
		t, ok := st.today[s.PackageName]
		if !ok {
			t = &appTally{appName: s.AppName, packageName: s.PackageName, exePath: s.ExePath, date: day}
			st.today[s.PackageName] = t
		}
		t.add(time.Duration(s.Seconds)*time.Second, s.FirstSeen, s.LastSeen)
	}

	st.logger.Info("Loaded usage data for applications", "count", len(samples))
}
