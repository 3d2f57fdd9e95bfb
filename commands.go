package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wellsync/internal/app"
)

var (
	days          int
	retentionDays int
	trackFor      time.Duration
	topApps       int
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print the normalized usage series",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.GetUsageForPeriod(ctx, days), nil
		})
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print health insights for the last week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.GetInsights(ctx), nil
		})
	},
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Print achievement progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.GetAchievements(ctx), nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print streak and weekly progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.GetWellnessStats(ctx), nil
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute the usage series, bypassing the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.ForceRefresh(ctx, days), nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete samples older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app.App) (any, error) {
			deleted, err := a.CleanupOldData(ctx, retentionDays)
			if err != nil {
				return nil, err
			}
			return map[string]int64{"deleted": deleted}, nil
		})
	},
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Sample the foreground app until interrupted",
	Long: `Run the desktop sampler, persisting per-app seconds periodically.
Stops on SIGINT/SIGTERM or after --for, then prints today's top apps.`,
	RunE: runTrack,
}

func init() {
	for _, c := range []*cobra.Command{usageCmd, refreshCmd} {
		c.Flags().IntVarP(&days, "days", "d", 7, "number of days, today included")
	}
	cleanupCmd.Flags().IntVar(&retentionDays, "retention-days", 365, "keep this many days of samples")
	trackCmd.Flags().DurationVar(&trackFor, "for", 0, "stop after this long (0 runs until interrupted)")
	trackCmd.Flags().IntVar(&topApps, "top", 5, "number of apps to print on exit")
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Tracker.Enabled = true

	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if trackFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, trackFor)
		defer cancel()
	}

	a.Startup(ctx)
	a.GetLogger().Info("Tracking, press Ctrl+C to stop")
	<-ctx.Done()

	top := a.TodayTopApps(topApps)
	a.Shutdown(context.Background())
	return printJSON(cmd, top)
}
