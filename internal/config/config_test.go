package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellsync/internal/cache"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "production")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "wellsync.db", cfg.Database.Path)
	assert.Equal(t, "WAL", cfg.Database.JournalMode)
	assert.Equal(t, 365, cfg.Database.RetentionDays)
	assert.Equal(t, cache.DefaultTTL, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.PerKeyTTL)
	assert.Equal(t, 60.0, cfg.Achievements.StreakThreshold)
	assert.Equal(t, 10, cfg.Achievements.KeepStates)
	assert.True(t, cfg.Tracker.Enabled)
	assert.Equal(t, time.Second, cfg.Tracker.SampleInterval)
	assert.Equal(t, 30*time.Second, cfg.Tracker.PersistInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EnvironmentPreset(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "test")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.True(t, cfg.Database.ForceSingleConnection)
	assert.Equal(t, "test", cfg.Database.Environment)
	assert.False(t, cfg.Tracker.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "development")
	t.Setenv("WELLSYNC_LOG_LEVEL", "warn")
	t.Setenv("WELLSYNC_CACHE_TTL", "90s")
	t.Setenv("WELLSYNC_CACHE_PER_KEY_TTL", "true")
	t.Setenv("WELLSYNC_DATABASE_RETENTION_DAYS", "14")
	t.Setenv("WELLSYNC_TRACKER_SAMPLE_INTERVAL", "2s")
	t.Setenv("WELLSYNC_ACHIEVEMENTS_STREAK_THRESHOLD", "75")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "wellsync_dev.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.PerKeyTTL)
	assert.Equal(t, 14, cfg.Database.RetentionDays)
	assert.Equal(t, 2*time.Second, cfg.Tracker.SampleInterval)
	assert.Equal(t, 75.0, cfg.Achievements.StreakThreshold)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "production")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "wellsync.db")

	file := filepath.Join(dir, "wellsync.yaml")
	content := "log:\n  format: console\n" +
		"database:\n  path: " + dbPath + "\n  retention_days: 90\n" +
		"cache:\n  ttl: 10m\n" +
		"achievements:\n  keep_states: 3\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := Load(LoadOptions{ConfigFile: file})
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, 90, cfg.Database.RetentionDays)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Achievements.KeepStates)
	// unspecified keys keep their defaults
	assert.Equal(t, "WAL", cfg.Database.JournalMode)

	assert.DirExists(t, filepath.Dir(dbPath))
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "production")
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("WELLSYNC_ACHIEVEMENTS_KEEP_STATES=4\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WELLSYNC_ACHIEVEMENTS_KEEP_STATES") })

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Achievements.KeepStates)

	_, err = Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("WELLSYNC_ENVIRONMENT", "staging")

	_, err := Load(LoadOptions{})
	assert.Error(t, err)
}

func TestDefault_EnvironmentDrivesLevelAndTracker(t *testing.T) {
	tests := []struct {
		env      string
		level    string
		tracking bool
	}{
		{"development", "debug", true},
		{"test", "info", false},
		{"production", "info", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := Default(tt.env)
			assert.Equal(t, tt.env, cfg.Environment)
			assert.Equal(t, tt.level, cfg.Log.Level)
			assert.Equal(t, tt.tracking, cfg.Tracker.Enabled)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"uppercase log level", func(c *Config) { c.Log.Level = "DEBUG" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"bad database", func(c *Config) { c.Database.MaxConnections = 0 }, true},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"threshold above 100", func(c *Config) { c.Achievements.StreakThreshold = 101 }, true},
		{"negative threshold", func(c *Config) { c.Achievements.StreakThreshold = -1 }, true},
		{"keep no states", func(c *Config) { c.Achievements.KeepStates = 0 }, true},
		{"negative tracker interval", func(c *Config) { c.Tracker.SampleInterval = -time.Second }, true},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("test")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := Default("development")
	cfg.Log.Format = "Console"
	cfg.Cache = CacheConfig{TTL: time.Minute, PerKeyTTL: true}

	logOpts := cfg.LoggerOptions()
	assert.Equal(t, "debug", logOpts.Level)
	assert.Equal(t, "console", logOpts.Format)
	assert.Equal(t, "development", logOpts.Environment)

	assert.Equal(t, cache.Options{TTL: time.Minute, PerKeyTTL: true}, cfg.CacheOptions())
}
