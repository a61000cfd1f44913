package config

import (
	"fmt"
	"strings"
)

// Поддерживаемые драйверы БД.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver          string `envconfig:"DRIVER" default:"postgres" yaml:"driver"`
	Host            string `envconfig:"HOST" default:"postgres" yaml:"host"`
	Port            int    `envconfig:"PORT" default:"5432" yaml:"port"`
	User            string `envconfig:"USER" default:"series" yaml:"user"`
	Password        string `envconfig:"PASSWORD" default:"series" yaml:"password"`
	Name            string `envconfig:"NAME" default:"series_db" yaml:"name"`
	SSLMode         string `envconfig:"SSLMODE" default:"disable" yaml:"sslmode"`
	TimeZone        string `envconfig:"TIMEZONE" default:"UTC" yaml:"timezone"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"10" yaml:"max_open_conns"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"5" yaml:"max_idle_conns"`
	ConnMaxLifeTime int    `envconfig:"CONN_MAX_LIFETIME_MIN" default:"30" yaml:"conn_max_lifetime_min"` // минут

	// Путь к файлу SQLite (или ":memory:").
	SQLitePath string `envconfig:"SQLITE_PATH" default:"series.db" yaml:"sqlite_path"`
}

// DSN строит строку подключения для Postgres.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
		c.TimeZone,
	)
}

// Validate normalizes the driver and checks it is supported.
func (c *DBConfig) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.User == "" || c.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("invalid DB config: sqlite path must not be empty")
		}
	default:
		return fmt.Errorf("unsupported DB driver: %q", c.Driver)
	}
	return nil
}
