package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wellsync/internal/achievements"
	"wellsync/internal/cache"
	"wellsync/internal/database"
	"wellsync/internal/infrastructure/logging"
	"wellsync/internal/services"
)

const EnvPrefix = "WELLSYNC"

// Config holds all configuration for the application
type Config struct {
	Environment     string        `mapstructure:"environment"`
	StartupTimeout  time.Duration `mapstructure:"startup_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Log          LogConfig          `mapstructure:"log"`
	Database     database.Config    `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Achievements AchievementsConfig `mapstructure:"achievements"`
	Tracker      TrackerConfig      `mapstructure:"tracker"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	PerKeyTTL bool          `mapstructure:"per_key_ttl"`
}

type AchievementsConfig struct {
	StreakThreshold float64 `mapstructure:"streak_threshold"`
	// KeepStates is how many saved runs survive pruning
	KeepStates int `mapstructure:"keep_states"`
}

type TrackerConfig struct {
	Enabled                bool `mapstructure:"enabled"`
	services.TrackerConfig `mapstructure:",squash"`
}

// LoadOptions points Load at explicit files; empty values use the defaults
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

// Load reads .env, then config.yaml (if present), then WELLSYNC_* environment variables
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("environment", "production")
	setDefaults(v, strings.ToLower(v.GetString("environment")))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.Database.Environment = cfg.Environment

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load would produce with no files and no environment
func Default(env string) *Config {
	db := database.ConfigForEnvironment(env)
	return &Config{
		Environment:     db.Environment,
		StartupTimeout:  30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Log:             LogConfig{Level: defaultLogLevel(db), Format: "json"},
		Database:        *db,
		Cache:           CacheConfig{TTL: cache.DefaultTTL},
		Achievements: AchievementsConfig{
			StreakThreshold: achievements.DefaultStreakThreshold,
			KeepStates:      10,
		},
		Tracker: TrackerConfig{
			Enabled:       !db.IsTest(),
			TrackerConfig: services.DefaultTrackerConfig(),
		},
	}
}

// loadEnvFile loads an explicit env file, or ./.env when present
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("error loading env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("error loading .env: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, env string) {
	d := Default(env)

	v.SetDefault("startup_timeout", d.StartupTimeout)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	db := d.Database
	v.SetDefault("database.path", db.Path)
	v.SetDefault("database.max_connections", db.MaxConnections)
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", db.ConnMaxIdleTime)
	v.SetDefault("database.force_single_connection", db.ForceSingleConnection)
	v.SetDefault("database.auto_migrate", db.AutoMigrate)
	v.SetDefault("database.journal_mode", db.JournalMode)
	v.SetDefault("database.synchronous_mode", db.SynchronousMode)
	v.SetDefault("database.cache_size", db.CacheSize)
	v.SetDefault("database.busy_timeout", db.BusyTimeout)
	v.SetDefault("database.foreign_keys", db.ForeignKeys)
	v.SetDefault("database.retention_days", db.RetentionDays)
	v.SetDefault("database.enable_cleanup", db.EnableCleanup)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.per_key_ttl", d.Cache.PerKeyTTL)

	v.SetDefault("achievements.streak_threshold", d.Achievements.StreakThreshold)
	v.SetDefault("achievements.keep_states", d.Achievements.KeepStates)

	v.SetDefault("tracker.enabled", d.Tracker.Enabled)
	v.SetDefault("tracker.sample_interval", d.Tracker.SampleInterval)
	v.SetDefault("tracker.persist_interval", d.Tracker.PersistInterval)
	v.SetDefault("tracker.flush_timeout", d.Tracker.FlushTimeout)
	v.SetDefault("tracker.max_gap", d.Tracker.MaxGap)
	v.SetDefault("tracker.persistence_enabled", d.Tracker.PersistenceEnabled)
}

func defaultLogLevel(db *database.Config) string {
	if db.IsDevelopment() {
		return "debug"
	}
	return "info"
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every section; the database section creates its directory
func (c *Config) Validate() error {
	valid := false
	for _, lvl := range validLogLevels {
		if strings.EqualFold(c.Log.Level, lvl) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Achievements.StreakThreshold < 0 || c.Achievements.StreakThreshold > 100 {
		return fmt.Errorf("achievements.streak_threshold must be within [0,100], got %v", c.Achievements.StreakThreshold)
	}
	if c.Achievements.KeepStates < 1 {
		return fmt.Errorf("achievements.keep_states must be at least 1, got %d", c.Achievements.KeepStates)
	}
	if c.Tracker.SampleInterval < 0 || c.Tracker.PersistInterval < 0 || c.Tracker.FlushTimeout < 0 || c.Tracker.MaxGap < 0 {
		return fmt.Errorf("tracker durations cannot be negative")
	}
	if c.StartupTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("startup and shutdown timeouts must be positive")
	}
	return nil
}

func (c *Config) LoggerOptions() logging.Options {
	return logging.Options{
		Level:       strings.ToLower(c.Log.Level),
		Format:      strings.ToLower(c.Log.Format),
		Environment: c.Environment,
		Service:     "wellsync",
	}
}

func (c *Config) CacheOptions() cache.Options {
	return cache.Options{TTL: c.Cache.TTL, PerKeyTTL: c.Cache.PerKeyTTL}
}
