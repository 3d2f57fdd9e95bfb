package services

import (
	"context"
	"sync"
	"time"

	"wellsync/internal/clock"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/platform"
	"wellsync/internal/repository"
	"wellsync/internal/types"
)

// appTally is foreground time for one package on one day
type appTally struct {
	appName     string
	packageName string
	exePath     string
	date        time.Time
	elapsed     time.Duration
	firstSeen   time.Time
	lastSeen    time.Time
}

func (a *appTally) add(elapsed time.Duration, from, to time.Time) {
	a.elapsed += elapsed
	if a.firstSeen.IsZero() || from.Before(a.firstSeen) {
		a.firstSeen = from
	}
	if to.After(a.lastSeen) {
		a.lastSeen = to
	}
}

// ScreenTimeTracker samples the foreground application and persists per-app seconds.
// It is the desktop RawUsageSource.
type ScreenTimeTracker struct {
	mutex sync.RWMutex

	// pending holds time not yet written, keyed by day and package
	pending map[string]*appTally
	// today holds the current day's totals, persisted and pending
	today       map[string]*appTally
	currentDate time.Time
	lastApp     *platform.AppInfo
	lastTime    time.Time
	lastPersist time.Time

	config             TrackerConfig
	persistenceEnabled bool
	running            bool
	stopTracking       chan struct{}
	wg                 sync.WaitGroup

	foreground platform.ForegroundAPI
	repository repository.SampleRepository
	clock      clock.Clock
	logger     logging.Logger
}

// NewScreenTimeTrackerWithConfig creates a tracker; nil dependencies fall back to the
// host's foreground API, the wall clock and a default logger
func NewScreenTimeTrackerWithConfig(repo repository.SampleRepository, fg platform.ForegroundAPI, c clock.Clock, cfg TrackerConfig, logger logging.Logger) *ScreenTimeTracker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if c == nil {
		c = clock.New()
	}
	if fg == nil {
		fg = platform.NewForegroundAPI()
	}
	cfg = cfg.withDefaults()

	return &ScreenTimeTracker{
		pending:            make(map[string]*appTally),
		today:              make(map[string]*appTally),
		currentDate:        types.StartOfDay(c.Now()),
		config:             cfg,
		persistenceEnabled: cfg.PersistenceEnabled,
		foreground:         fg,
		repository:         repo,
		clock:              c,
		logger:             logger,
	}
}

// Start loads today's persisted totals and begins sampling and periodic persistence
func (st *ScreenTimeTracker) Start(ctx context.Context) {
	st.mutex.Lock()
	if st.running {
		st.mutex.Unlock()
		return
	}
	st.running = true
	st.stopTracking = make(chan struct{})
	stopCh := st.stopTracking
	st.mutex.Unlock()

	st.loadTodaysData(ctx)

	st.wg.Add(2)
	go st.trackingLoop(stopCh)
	go st.persistenceLoop(stopCh)

	st.logger.Info("Screen time tracking started",
		"sample_interval", st.config.SampleInterval.String(),
		"persist_interval", st.config.PersistInterval.String())
}

// Stop ends sampling and flushes whatever has not been written yet
func (st *ScreenTimeTracker) Stop(ctx context.Context) error {
	st.mutex.Lock()
	if !st.running {
		st.mutex.Unlock()
		return nil
	}
	st.running = false
	close(st.stopTracking)
	st.mutex.Unlock()

	st.wg.Wait()
	return st.Flush(ctx)
}

func (st *ScreenTimeTracker) IsRunning() bool {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.running
}

func (st *ScreenTimeTracker) trackingLoop(stopCh <-chan struct{}) {
	defer st.wg.Done()

	ticker := time.NewTicker(st.config.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.trackCurrentApp()
		case <-stopCh:
			return
		}
	}
}

// trackCurrentApp credits the time since the previous sample to the foreground app
// if it has not changed. Gaps longer than MaxGap are dropped.
func (st *ScreenTimeTracker) trackCurrentApp() {
	appInfo, ok := st.foreground.CurrentApp()
	now := st.clock.Now()

	st.mutex.Lock()
	defer st.mutex.Unlock()

	st.rollDay(now)

	if !ok || appInfo == nil || appInfo.Package == "" {
		st.lastApp = nil
		st.lastTime = time.Time{}
		return
	}

	if st.lastApp != nil && st.lastApp.Package == appInfo.Package && !st.lastTime.IsZero() {
		elapsed := now.Sub(st.lastTime)
		if elapsed > 0 && elapsed <= st.config.MaxGap {
			st.credit(appInfo, st.lastTime, now, elapsed)
		}
	}

	st.lastApp = appInfo
	st.lastTime = now
}

// credit must be called with the mutex held
func (st *ScreenTimeTracker) credit(info *platform.AppInfo, from, to time.Time, elapsed time.Duration) {
	day := types.StartOfDay(to)
	key := tallyKey(day, info.Package)

	p, ok := st.pending[key]
	if !ok {
		p = &appTally{appName: info.Name, packageName: info.Package, date: day}
		st.pending[key] = p
	}
	p.exePath = info.ExePath
	p.add(elapsed, from, to)

	t, ok := st.today[info.Package]
	if !ok {
		t = &appTally{appName: info.Name, packageName: info.Package, date: day}
		st.today[info.Package] = t
	}
	t.exePath = info.ExePath
	t.add(elapsed, from, to)
}

// rollDay resets today's totals at local midnight. Pending tallies keep their own date.
func (st *ScreenTimeTracker) rollDay(now time.Time) {
	day := types.StartOfDay(now)
	if day.Equal(st.currentDate) {
		return
	}
	st.currentDate = day
	st.today = make(map[string]*appTally)
}

// CurrentDate returns the day the tracker is accumulating into
func (st *ScreenTimeTracker) CurrentDate() time.Time {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.currentDate
}

func tallyKey(day time.Time, pkg string) string {
	return day.Format(types.DateLayout) + "|" + pkg
}
