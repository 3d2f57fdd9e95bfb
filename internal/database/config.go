package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all database configuration options
type Config struct {
	Path                  string        `json:"path" mapstructure:"path"`
	MaxConnections        int           `json:"maxConnections" mapstructure:"max_connections"`
	MaxIdleConns          int           `json:"maxIdleConns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" mapstructure:"conn_max_idle_time"`
	ForceSingleConnection bool          `json:"forceSingleConnection" mapstructure:"force_single_connection"`

	// AutoMigrate runs the embedded migrations on startup
	AutoMigrate bool `json:"autoMigrate" mapstructure:"auto_migrate"`

	// SQLite pragmas. CacheSize is in KB, BusyTimeout in milliseconds.
	JournalMode     string `json:"journalMode" mapstructure:"journal_mode"`
	SynchronousMode string `json:"synchronousMode" mapstructure:"synchronous_mode"`
	CacheSize       int    `json:"cacheSize" mapstructure:"cache_size"`
	BusyTimeout     int    `json:"busyTimeout" mapstructure:"busy_timeout"`
	ForeignKeys     bool   `json:"foreignKeys" mapstructure:"foreign_keys"`

	// RetentionDays of 0 keeps samples forever
	RetentionDays int  `json:"retentionDays" mapstructure:"retention_days"`
	EnableCleanup bool `json:"enableCleanup" mapstructure:"enable_cleanup"`

	Environment string `json:"environment" mapstructure:"environment"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:                  "wellsync.db",
		MaxConnections:        10,
		MaxIdleConns:          5,
		ConnMaxLifetime:       24 * time.Hour,
		ConnMaxIdleTime:       30 * time.Minute,
		ForceSingleConnection: false, // Let the service auto-detect based on journal mode

		AutoMigrate: true,

		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,  // 2MB cache
		BusyTimeout:     30000, // 30 seconds
		ForeignKeys:     true,

		RetentionDays: 365,
		EnableCleanup: true,

		Environment: "production",
	}
}

// DevelopmentConfig returns a configuration optimized for development
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "wellsync_dev.db"
	config.Environment = "development"
	config.RetentionDays = 30
	config.EnableCleanup = false
	return config
}

// TestConfig returns a configuration optimized for testing
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.RetentionDays = 0
	config.EnableCleanup = false

	// In-memory databases are per-connection
	config.ForceSingleConnection = true
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000

	return config
}

// ConfigForEnvironment returns a configuration optimized for the given environment
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		return DefaultConfig()
	}
}

var (
	validJournalModes = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	validSyncModes    = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
	validEnvironments = []string{"development", "test", "production"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// Validate validates the configuration parameters and creates the database directory
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}
	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connMaxLifetime cannot be negative, got %v", c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connMaxIdleTime cannot be negative, got %v", c.ConnMaxIdleTime)
	}

	if !oneOf(c.JournalMode, validJournalModes) {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}
	if !oneOf(c.SynchronousMode, validSyncModes) {
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retentionDays cannot be negative, got %d", c.RetentionDays)
	}
	if !oneOf(c.Environment, validEnvironments) {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	return nil
}

// GetConnectionString builds the SQLite connection string with all options
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative so SQLite interprets it as KB
	values.Set("_cache_size", fmt.Sprintf("%d", -c.CacheSize))
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	// Escape only the characters that would break query string parsing
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// RetentionCutoff returns the day before which samples may be deleted, and false when cleanup is off
func (c *Config) RetentionCutoff(now time.Time) (time.Time, bool) {
	if !c.EnableCleanup || c.RetentionDays <= 0 {
		return time.Time{}, false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -c.RetentionDays), true
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
