package services

import (
	"context"
	"sort"
	"time"

	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/types"
	"wellsync/internal/usage"
)

// HasPermission reports whether this host can observe the foreground app
func (st *ScreenTimeTracker) HasPermission() bool {
	return st.foreground.Supported()
}

// FetchRawUsageStats aggregates persisted and pending samples of the last days, today
// included, into one stat per package
func (st *ScreenTimeTracker) FetchRawUsageStats(ctx context.Context, days int) ([]types.RawUsageStat, error) {
	if st.repository == nil {
		return nil, errors.HandleConnectionError("FetchRawUsageStats", "no repository configured")
	}

	days = usage.ClampDays(days)
	end := types.StartOfDay(st.clock.Now())
	start := end.AddDate(0, 0, -(days - 1))

	samples, err := st.repository.GetSamplesInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	samples = append(samples, st.pendingSamples(start, end)...)

	return aggregateSamples(samples), nil
}

// GetUsageForDateRange returns persisted samples for an inclusive day range
func (st *ScreenTimeTracker) GetUsageForDateRange(ctx context.Context, startDate, endDate time.Time) ([]types.AppSample, error) {
	if st.repository == nil {
		return nil, errors.HandleConnectionError("GetUsageForDateRange", "no repository configured")
	}
	return st.repository.GetSamplesInRange(ctx, types.StartOfDay(startDate), types.StartOfDay(endDate))
}

// TopApps returns today's n most used apps, most minutes first
func (st *ScreenTimeTracker) TopApps(n int) []types.AppTime {
	st.mutex.RLock()
	apps := make([]types.AppTime, 0, len(st.today))
	for _, t := range st.today {
		apps = append(apps, types.AppTime{AppName: t.appName, Minutes: int(t.elapsed / time.Minute)})
	}
	st.mutex.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Minutes != apps[j].Minutes {
			return apps[i].Minutes > apps[j].Minutes
		}
		return apps[i].AppName < apps[j].AppName
	})
	if n >= 0 && len(apps) > n {
		apps = apps[:n]
	}
	return apps
}

// TodayTotal is the foreground time tracked today across all apps
func (st *ScreenTimeTracker) TodayTotal() time.Duration {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	var total time.Duration
	for _, t := range st.today {
		total += t.elapsed
	}
	return total
}

// pendingSamples snapshots unflushed whole seconds within [start, end] without draining them
func (st *ScreenTimeTracker) pendingSamples(start, end time.Time) []types.AppSample {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	var out []types.AppSample
	for _, p := range st.pending {
		if p.date.Before(start) || p.date.After(end) {
			continue
		}
		out = append(out, types.AppSample{
			Date:        p.date,
			AppName:     p.appName,
			PackageName: p.packageName,
			Seconds:     int64(p.elapsed / time.Second),
			FirstSeen:   p.firstSeen,
			LastSeen:    p.lastSeen,
			ExePath:     p.exePath,
		})
	}
	return out
}

// aggregateSamples sums seconds per package and spans first/last seen, sorted by package
func aggregateSamples(samples []types.AppSample) []types.RawUsageStat {
	byPkg := make(map[string]*types.RawUsageStat)
	latest := make(map[string]time.Time)

	for _, s := range samples {
		stat, ok := byPkg[s.PackageName]
		if !ok {
			stat = &types.RawUsageStat{PackageName: s.PackageName, AppName: s.AppName}
			byPkg[s.PackageName] = stat
		}
		stat.UsageTimeMillis += s.Seconds * 1000
		if !s.FirstSeen.IsZero() && (stat.FirstTimestamp.IsZero() || s.FirstSeen.Before(stat.FirstTimestamp)) {
			stat.FirstTimestamp = s.FirstSeen
		}
		if s.LastSeen.After(stat.LastTimestamp) {
			stat.LastTimestamp = s.LastSeen
		}
		// the most recent display name wins
		if s.LastSeen.After(latest[s.PackageName]) {
			latest[s.PackageName] = s.LastSeen
			stat.AppName = s.AppName
		}
	}

	out := make([]types.RawUsageStat, 0, len(byPkg))
	for _, stat := range byPkg {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackageName < out[j].PackageName })
	return out
}
