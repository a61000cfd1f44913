package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load,
// e.g. SERIES_DB_HOST, SERIES_GRPC_ADDR.
const EnvPrefix = "SERIES"

// Config holds the configuration of the series service.
type Config struct {
	DB DBConfig `envconfig:"DB" yaml:"db"`

	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090" yaml:"grpc_addr"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`

	// Scheduler: every tick materializes [now, now+HorizonDays] for active series.
	HorizonDays  int    `envconfig:"HORIZON_DAYS" default:"90" yaml:"horizon_days"`
	ScheduleCron string `envconfig:"SCHEDULE_CRON" default:"@every 15m" yaml:"schedule_cron"`
	// Upper bound on one scheduler run, in seconds.
	RefreshTimeoutSec int `envconfig:"REFRESH_TIMEOUT_SEC" default:"300" yaml:"refresh_timeout_sec"`

	// Safety cap on dates generated for one series in one call.
	MaxOccurrences int `envconfig:"MAX_OCCURRENCES" default:"5000" yaml:"max_occurrences"`

	// Zone used for events created without an explicit TimeZone.
	DefaultTimeZone string `envconfig:"DEFAULT_TIMEZONE" default:"UTC" yaml:"default_timezone"`

	// Optional YAML file; values present in it override the environment.
	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`
}

// Load reads .env (if present), the SERIES_* environment and the optional
// YAML overlay, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.overlayFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ResolveDefaults fills zero values and validates the configuration.
func (c *Config) ResolveDefaults() error {
	if c.HorizonDays <= 0 {
		c.HorizonDays = 90
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = 5000
	}
	if c.RefreshTimeoutSec <= 0 {
		c.RefreshTimeoutSec = 300
	}
	if c.ScheduleCron == "" {
		c.ScheduleCron = "@every 15m"
	}
	if c.DefaultTimeZone == "" {
		c.DefaultTimeZone = "UTC"
	}
	if _, err := time.LoadLocation(c.DefaultTimeZone); err != nil {
		return fmt.Errorf("unsupported DEFAULT_TIMEZONE %q: %w", c.DefaultTimeZone, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unsupported LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return c.DB.Validate()
}

// Horizon is the scheduler's materialization window length.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// RefreshTimeout bounds a single scheduler run.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutSec) * time.Second
}

// Level returns the parsed log level; invalid values fall back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewForTesting returns a config backed by in-memory SQLite.
func NewForTesting() *Config {
	return &Config{
		DB: DBConfig{
			Driver:     DriverSQLite,
			SQLitePath: ":memory:",
			TimeZone:   "UTC",
		},
		GRPCAddr:          "127.0.0.1:0",
		LogLevel:          "debug",
		HorizonDays:       30,
		ScheduleCron:      "@every 1m",
		RefreshTimeoutSec: 60,
		MaxOccurrences:    5000,
		DefaultTimeZone:   "UTC",
	}
}
