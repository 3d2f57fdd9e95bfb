package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wellsync/internal/app"
	"wellsync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wellsync",
	Short: "Usage synchronization and wellness analytics",
	Long: `wellsync turns per-app screen time into a normalized daily series and
derives health insights, streaks and achievements from it.`,
	SilenceUsage: true,
}

var (
	configFile string
	envFile    string
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file loaded before the environment (default ./.env)")

	rootCmd.AddCommand(usageCmd, insightsCmd, achievementsCmd, statsCmd, refreshCmd, cleanupCmd, trackCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// runOnce starts the app without the desktop sampler, runs fn and prints its result as JSON
func runOnce(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Tracker.Enabled = false

	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a.Startup(ctx)
	defer a.Shutdown(context.WithoutCancel(ctx))

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
