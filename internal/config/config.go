// Package config handles configuration loading for valuemetrics.
// It supports YAML config files, a .env file and environment variable
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/internal/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VALUEMETRICS"

// Config represents the complete application configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"   yaml:"engine"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Output   OutputConfig   `mapstructure:"output"   yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// EngineConfig holds derivation settings.
type EngineConfig struct {
	Workers         int `mapstructure:"workers"           yaml:"workers"`
	TTMWindowMonths int `mapstructure:"ttm_window_months" yaml:"ttm_window_months"`
	FixedMarginFrom int `mapstructure:"fixed_margin_from" yaml:"fixed_margin_from"`
	FixedMarginTo   int `mapstructure:"fixed_margin_to"   yaml:"fixed_margin_to"`
}

// StoreConfig selects where period records come from and derived metrics go.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"       yaml:"driver"` // "postgres", "badger", "memory"
	DSN         string `mapstructure:"dsn"          yaml:"dsn"`
	BadgerPath  string `mapstructure:"badger_path"  yaml:"badger_path"`
	SourceTable string `mapstructure:"source_table" yaml:"source_table"`
	TargetTable string `mapstructure:"target_table" yaml:"target_table"`
	InputFile   string `mapstructure:"input_file"   yaml:"input_file"` // JSON seed for the memory driver
}

// ScheduleConfig holds the recompute schedule.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron" yaml:"cron"` // standard 5-field cron expression
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "table" or "json"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.valuemetrics/config.yaml (home directory)
//  3. /etc/valuemetrics/config.yaml (system)
//
// A .env file in the working directory is loaded into the environment first.
// Environment variables override config file values.
// Format: VALUEMETRICS_<SECTION>_<KEY>, e.g., VALUEMETRICS_STORE_DSN
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".valuemetrics"))
	v.AddConfigPath("/etc/valuemetrics")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads path into the process environment when it exists.
// Variables already set take precedence.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.ttm_window_months", 15)
	v.SetDefault("engine.fixed_margin_from", 2015)
	v.SetDefault("engine.fixed_margin_to", 2019)

	// Store defaults
	v.SetDefault("store.driver", store.DriverPostgres)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.badger_path", filepath.Join(homeDir(), ".valuemetrics", "data"))
	v.SetDefault("store.source_table", "period_records")
	v.SetDefault("store.target_table", "derived_metrics")
	v.SetDefault("store.input_file", "")

	// Nightly at 02:30
	v.SetDefault("schedule.cron", "30 2 * * *")

	v.SetDefault("output.format", "table")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv lets VALUEMETRICS_STORE_DSN win over the config file and
// falls back to DATABASE_URL when no DSN is configured.
func overrideFromEnv(cfg *Config) {
	if dsn := os.Getenv(EnvPrefix + "_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
		return
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Workers <= 0 {
		errs = append(errs, fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers))
	}
	if c.Engine.TTMWindowMonths <= 0 {
		errs = append(errs, fmt.Errorf("engine.ttm_window_months must be positive, got %d", c.Engine.TTMWindowMonths))
	}
	if c.Engine.FixedMarginFrom > c.Engine.FixedMarginTo {
		errs = append(errs, fmt.Errorf("engine.fixed_margin_from (%d) is after fixed_margin_to (%d)",
			c.Engine.FixedMarginFrom, c.Engine.FixedMarginTo))
	}
	switch c.Store.Driver {
	case store.DriverPostgres, store.DriverBadger, store.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver: %w: %q", store.ErrUnknownDriver, c.Store.Driver))
	}
	switch c.Output.Format {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be table or json, got %q", c.Output.Format))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// StoreOptions maps the store section onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Store.Driver,
		DSN:         c.Store.DSN,
		SourceTable: c.Store.SourceTable,
		TargetTable: c.Store.TargetTable,
		BadgerPath:  c.Store.BadgerPath,
		InputFile:   c.Store.InputFile,
	}
}

// EngineOptions maps the engine section onto metrics.Options.
func (c *Config) EngineOptions() metrics.Options {
	return metrics.Options{
		TTMWindowMonths: c.Engine.TTMWindowMonths,
		FixedMarginFrom: c.Engine.FixedMarginFrom,
		FixedMarginTo:   c.Engine.FixedMarginTo,
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
