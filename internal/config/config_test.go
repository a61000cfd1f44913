package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.DB.Driver)
	require.Equal(t, 5432, cfg.DB.Port)
	require.Equal(t, ":9090", cfg.GRPCAddr)
	require.Equal(t, 90, cfg.HorizonDays)
	require.Equal(t, 5000, cfg.MaxOccurrences)
	require.Equal(t, "UTC", cfg.DefaultTimeZone)
	require.Equal(t, 5*time.Minute, cfg.RefreshTimeout())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERIES_DB_DRIVER", "SQLite")
	t.Setenv("SERIES_DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SERIES_HORIZON_DAYS", "14")
	t.Setenv("SERIES_REFRESH_TIMEOUT_SEC", "45")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, cfg.RefreshTimeout())
	require.Equal(t, DriverSQLite, cfg.DB.Driver)
	require.Equal(t, "/tmp/x.db", cfg.DB.SQLitePath)
	require.Equal(t, 14, cfg.HorizonDays)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERIES_GRPC_ADDR=:7000\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SERIES_GRPC_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.GRPCAddr)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "series.yaml")
	body := "horizon_days: 7\nschedule_cron: \"*/5 * * * *\"\ndb:\n  driver: sqlite\n  sqlite_path: file.db\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("SERIES_CONFIG_FILE", path)
	t.Setenv("SERIES_HORIZON_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.HorizonDays)
	require.Equal(t, "*/5 * * * *", cfg.ScheduleCron)
	require.Equal(t, DriverSQLite, cfg.DB.Driver)
	require.Equal(t, "file.db", cfg.DB.SQLitePath)
	// untouched by the file
	require.Equal(t, 5432, cfg.DB.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SERIES_DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SERIES_DB_DRIVER", "postgres")
	t.Setenv("SERIES_DEFAULT_TIMEZONE", "Mars/Base")
	_, err = Load()
	require.Error(t, err)
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, DriverSQLite, cfg.DB.Driver)
}
