package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Leganyst/event-series/internal/config"
	"github.com/Leganyst/event-series/internal/db"
	"github.com/Leganyst/event-series/internal/logger"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/series"
)

const serviceName = "event-series"

// app is what every subcommand gets after config and logging are set up.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	var (
		configFile string
		a          app
	)

	rootCmd := &cobra.Command{
		Use:           "event-series",
		Short:         "Recurring event series service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(serviceName, cfg.Level())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides the environment)")

	rootCmd.AddCommand(
		serveCmd(&a),
		migrateCmd(&a),
		materializeCmd(&a),
		exportCmd(&a),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB connects and migrates the schema.
func (a *app) openDB() (*gorm.DB, func(), error) {
	gormDB, err := db.NewGormDB(&a.cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql DB: %w", err)
	}
	closeFn := func() { _ = sqlDB.Close() }

	if err := model.AutoMigrate(gormDB); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}
	return gormDB, closeFn, nil
}

func (a *app) newService(gormDB *gorm.DB) *series.Service {
	return series.NewService(
		repository.NewGormSeriesStore(gormDB),
		a.log,
		series.WithMaxOccurrences(a.cfg.MaxOccurrences),
		series.WithDefaultTimeZone(a.cfg.DefaultTimeZone),
	)
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeDB, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			a.log.Info().Str("driver", a.cfg.DB.Driver).Msg("schema migrated")
			return nil
		},
	}
}
