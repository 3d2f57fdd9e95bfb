package app

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"wellsync/internal/achievements"
	"wellsync/internal/clock"
	"wellsync/internal/config"
	"wellsync/internal/database"
	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/infrastructure/metrics"
	"wellsync/internal/insights"
	"wellsync/internal/platform"
	"wellsync/internal/repository"
	"wellsync/internal/services"
	"wellsync/internal/types"
)

const (
	weeklyWindow = 7
	todayWindow  = 1
)

// App is the composition root and the presentation facade. Data getters never fail;
// without a database or a usage source they serve generated data.
type App struct {
	mu          sync.RWMutex
	started     bool
	persistence bool

	config       *config.Config
	clock        clock.Clock
	logger       logging.Logger
	metrics      *metrics.Metrics
	foreground   platform.ForegroundAPI
	dbService    database.Service
	repository   repository.UsageRepository
	tracker      *services.ScreenTimeTracker
	usage        *services.UsageService
	insights     *insights.Engine
	achievements *achievements.Engine
}

type Option func(*App)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithRegistry registers the pipeline metrics on reg
func WithRegistry(reg prometheus.Registerer) Option {
	return func(a *App) { a.metrics = metrics.New(reg) }
}

// WithForegroundAPI replaces the host's foreground window lookup
func WithForegroundAPI(fg platform.ForegroundAPI) Option {
	return func(a *App) { a.foreground = fg }
}

// NewApp wires every component; nothing touches the database until Startup
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.clock == nil {
		a.clock = clock.New()
	}
	if a.logger == nil {
		logger, err := logging.NewZapLogger(cfg.LoggerOptions())
		if err != nil {
			return nil, err
		}
		a.logger = logger
	}
	if a.metrics == nil {
		a.metrics = metrics.Nop()
	}
	if a.foreground == nil {
		a.foreground = platform.NewForegroundAPI()
	}
	errors.UseLogger(a.logger)

	a.dbService = database.NewSQLiteService(a.logger)
	a.usage = services.NewUsageService(nil, nil, a.clock, a.metrics, cfg.CacheOptions(), a.logger)
	a.insights = insights.NewEngine(a.clock)
	a.achievements = achievements.NewEngine(a.clock, cfg.Achievements.StreakThreshold)

	return a, nil
}

// Startup opens and migrates the database, applies retention, restores achievement
// state and starts the desktop tracker. Database failures degrade to generated data.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true

	ctx, cancel := context.WithTimeout(ctx, a.config.StartupTimeout)
	defer cancel()

	if err := a.initializeDatabase(ctx); err != nil {
		logging.LogError(a.logger, err, "startup", nil)
		a.logger.Warn("Continuing without database persistence - data will not be saved")
		a.logger.Info("Application started", "environment", a.config.Environment, "persistence", false)
		return
	}
	a.persistence = true

	repo := repository.NewSQLiteRepository(a.dbService, a.logger)
	a.repository = repo

	a.applyRetention(ctx)
	a.restoreState(ctx)

	tracker := services.NewScreenTimeTrackerWithConfig(repo, a.foreground, a.clock, a.config.Tracker.TrackerConfig, a.logger)
	a.tracker = tracker
	a.usage = services.NewUsageService(tracker, tracker, a.clock, a.metrics, a.config.CacheOptions(), a.logger)

	if a.config.Tracker.Enabled && tracker.HasPermission() {
		tracker.Start(ctx)
	} else {
		a.logger.Info("Desktop tracker not started", "enabled", a.config.Tracker.Enabled, "supported", tracker.HasPermission())
	}

	a.logger.Info("Application started", "environment", a.config.Environment, "persistence", true)
}

func (a *App) initializeDatabase(ctx context.Context) error {
	if err := a.dbService.Connect(ctx, &a.config.Database); err != nil {
		return errors.NewRepositoryErrorWithContext("startup", err, errors.ClassifyError(err), map[string]string{
			"operation": "connect",
			"db_path":   a.config.Database.Path,
		})
	}

	if a.config.Database.AutoMigrate {
		if err := a.dbService.Migrate(ctx); err != nil {
			a.dbService.Close()
			return errors.NewRepositoryErrorWithContext("startup", err, errors.ClassifyError(err), map[string]string{
				"operation": "migrate",
				"db_path":   a.config.Database.Path,
			})
		}
	}

	if err := a.dbService.Health(ctx); err != nil {
		a.dbService.Close()
		return errors.NewRepositoryErrorWithContext("startup", err, errors.ClassifyError(err), map[string]string{
			"operation": "health_check",
		})
	}
	return nil
}

func (a *App) applyRetention(ctx context.Context) {
	cutoff, ok := a.config.Database.RetentionCutoff(a.clock.Now())
	if !ok {
		return
	}
	if _, err := a.repository.DeleteOldUsage(ctx, cutoff); err != nil {
		a.logger.Warn("Retention cleanup failed", "cutoff", cutoff.Format(types.DateLayout), "error", err)
	}
}

func (a *App) restoreState(ctx context.Context) {
	state, err := a.repository.LoadLatestState(ctx)
	if errors.IsNotFound(err) {
		return
	}
	if err != nil {
		a.logger.Warn("Failed to restore achievement state", "error", err)
		return
	}
	a.achievements.Restore(*state)
	a.logger.Info("Restored achievement state", "run_id", state.RunID, "best_streak", state.BestStreak)
}

// Shutdown stops the tracker, flushes samples, saves achievement state and closes
// the database, all bounded by the shutdown timeout
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	a.started = false

	a.logger.Info("Starting application shutdown sequence")

	ctx, cancel := context.WithTimeout(ctx, a.config.ShutdownTimeout)
	defer cancel()

	if a.tracker != nil {
		if err := a.tracker.Stop(ctx); err != nil {
			a.logger.Warn("Failed to persist final usage during shutdown", "error", err)
		}
	}

	if a.persistence {
		if err := a.saveState(ctx); err != nil {
			logging.LogError(a.logger, err, "shutdown", map[string]any{"operation": "save_state"})
		}
		if err := a.closeDatabaseConnection(ctx); err != nil {
			logging.LogError(a.logger, err, "shutdown", map[string]any{"operation": "close_connection"})
		}
		a.persistence = false
	}

	// later getters fall back to generated data instead of a closed database
	a.tracker = nil
	a.repository = nil
	a.usage = services.NewUsageService(nil, nil, a.clock, a.metrics, a.config.CacheOptions(), a.logger)

	a.logger.Info("Application shutdown completed")
}

func (a *App) saveState(ctx context.Context) error {
	// bring progress up to date with the newest samples before saving
	a.achievements.UpdateStats(a.usage.ForceRefresh(ctx, weeklyWindow))

	runID, err := a.repository.SaveState(ctx, a.achievements.Snapshot())
	if err != nil {
		return err
	}
	if _, err := a.repository.PruneStates(ctx, a.config.Achievements.KeepStates); err != nil {
		a.logger.Warn("Failed to prune saved states", "error", err)
	}
	a.logger.Info("Saved achievement state", "run_id", runID)
	return nil
}

// closeDatabaseConnection closes the database, giving up when ctx expires
func (a *App) closeDatabaseConnection(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewRepositoryErrorWithContext("shutdown", err, errors.ClassifyError(err), map[string]string{
				"operation": "close_connection",
			})
		}
		a.logger.Info("Database connection closed successfully")
		return nil
	case <-ctx.Done():
		return errors.NewRepositoryError("shutdown", ctx.Err(), errors.ErrCodeTimeout)
	}
}

func (a *App) usageService() *services.UsageService {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.usage
}

// GetUsageForPeriod returns the normalized series for the last days, today included.
// The result is the caller's own copy.
func (a *App) GetUsageForPeriod(ctx context.Context, days int) []types.UsageRecord {
	return slices.Clone(a.usageService().GetUsageForPeriod(ctx, days))
}

// GetInsights computes health insights over the weekly and today series
func (a *App) GetInsights(ctx context.Context) types.HealthInsights {
	svc := a.usageService()
	weekly := svc.GetUsageForPeriod(ctx, weeklyWindow)
	today := svc.GetUsageForPeriod(ctx, todayWindow)
	return a.insights.Compute(weekly, today)
}

// GetAchievements refreshes progress from the weekly series and returns the catalog
func (a *App) GetAchievements(ctx context.Context) []types.Achievement {
	a.achievements.UpdateStats(a.usageService().GetUsageForPeriod(ctx, weeklyWindow))
	return a.achievements.Achievements()
}

// GetWellnessStats refreshes progress from the weekly series and returns the stats
func (a *App) GetWellnessStats(ctx context.Context) types.WellnessStats {
	return a.achievements.UpdateStats(a.usageService().GetUsageForPeriod(ctx, weeklyWindow))
}

// ForceRefresh drops cached series and recomputes the given window
func (a *App) ForceRefresh(ctx context.Context, days int) []types.UsageRecord {
	return slices.Clone(a.usageService().ForceRefresh(ctx, days))
}

func (a *App) ClearCache() {
	a.usageService().ClearCache()
}

// TodayTopApps returns the desktop tracker's most used apps today, or nil without a tracker
func (a *App) TodayTopApps(n int) []types.AppTime {
	a.mu.RLock()
	tracker := a.tracker
	a.mu.RUnlock()
	if tracker == nil {
		return nil
	}
	return tracker.TopApps(n)
}

// SaveCurrentDataNow immediately flushes pending tracker samples
func (a *App) SaveCurrentDataNow(ctx context.Context) error {
	a.mu.RLock()
	tracker := a.tracker
	a.mu.RUnlock()
	if tracker == nil {
		return errors.HandleConnectionError("SaveCurrentDataNow", "persistence unavailable")
	}
	return tracker.SaveCurrentDataNow(ctx)
}

// CleanupOldData removes samples older than retentionDays. Storage failures are logged;
// a bad retention value is only returned.
func (a *App) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	a.mu.RLock()
	tracker := a.tracker
	a.mu.RUnlock()
	if tracker == nil {
		return 0, errors.HandleConnectionError("CleanupOldData", "persistence unavailable")
	}

	deleted, err := tracker.CleanupOldData(ctx, retentionDays)
	if err != nil {
		if !errors.IsValidation(err) {
			logging.LogError(a.logger, err, "CleanupOldData", map[string]any{"retention_days": retentionDays})
		}
		return 0, err
	}
	a.logger.Info("Cleaned up old usage samples", "deleted", deleted, "retention_days", retentionDays)
	return deleted, nil
}

func (a *App) PersistenceEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.persistence
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
