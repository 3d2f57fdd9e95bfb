package services

import (
	"context"
	"time"

	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/types"
)

// TrackerConfig controls the desktop sampler
type TrackerConfig struct {
	SampleInterval  time.Duration `mapstructure:"sample_interval"`
	PersistInterval time.Duration `mapstructure:"persist_interval"`
	FlushTimeout    time.Duration `mapstructure:"flush_timeout"`
	// MaxGap is the longest interval between samples still credited; longer gaps are sleep or lock
	MaxGap             time.Duration `mapstructure:"max_gap"`
	PersistenceEnabled bool          `mapstructure:"persistence_enabled"`
}

// DefaultTrackerConfig samples every second and persists every 30 seconds
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		SampleInterval:     time.Second,
		PersistInterval:    30 * time.Second,
		FlushTimeout:       2 * time.Second,
		MaxGap:             10 * time.Second,
		PersistenceEnabled: true,
	}
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	d := DefaultTrackerConfig()
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.PersistInterval <= 0 {
		c.PersistInterval = d.PersistInterval
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = d.FlushTimeout
	}
	if c.MaxGap < c.SampleInterval {
		c.MaxGap = max(d.MaxGap, 2*c.SampleInterval)
	}
	return c
}

// ResetUsageData persists pending time, then clears all in-memory state
func (st *ScreenTimeTracker) ResetUsageData(ctx context.Context) error {
	err := st.Flush(ctx)

	st.mutex.Lock()
	defer st.mutex.Unlock()

	if err == nil {
		st.pending = make(map[string]*appTally)
	}
	st.today = make(map[string]*appTally)
	st.lastApp = nil
	st.lastTime = time.Time{}
	st.currentDate = types.StartOfDay(st.clock.Now())
	return err
}

// CleanupOldData removes samples older than retentionDays before today
func (st *ScreenTimeTracker) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	if st.repository == nil {
		return 0, errors.HandleConnectionError("CleanupOldData", "no repository configured")
	}
	if retentionDays <= 0 {
		return 0, errors.HandleValidationError("CleanupOldData", "retentionDays", "<=0", "retention must be positive")
	}

	cutoff := types.StartOfDay(st.clock.Now()).AddDate(0, 0, -retentionDays)
	return st.repository.DeleteOldUsage(ctx, cutoff)
}

// SetPersistenceEnabled enables or disables data persistence
func (st *ScreenTimeTracker) SetPersistenceEnabled(enabled bool) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.persistenceEnabled = enabled
}

// IsPersistenceEnabled returns whether data persistence is enabled
func (st *ScreenTimeTracker) IsPersistenceEnabled() bool {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.persistenceEnabled
}
