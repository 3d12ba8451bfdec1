/*
main.go - Application entry point

PURPOSE:
  Command-line entry point for the hours engine. `serve` runs the HTTP API;
  the report commands run one computation against the database and print
  JSON to stdout.

COMMANDS:
  serve            HTTP server with graceful shutdown
  summary          Employee summary for a month or year
  billing          Employee or company billing window
  projection       Employee year projection
  rollup           Team or organization rollup
  import-holidays  Load a production-calendar file into the holiday table

GLOBAL FLAGS:
  -c, --config     Config file (default: ./config.yaml or ./config/config.yaml)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the billing close scheduler
  4. Close database connection

ENVIRONMENT:
  Every config key can be set as HOURS_<KEY> with dots as underscores,
  e.g. HOURS_DB_PATH=/data/hours.db, HOURS_LOG_LEVEL=debug.

EXAMPLES:
  hours-engine serve -c config.yaml
  hours-engine summary --employee emp-1 --year 2025 --month 3
  hours-engine billing --company acme --year 2025 --month 3

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/config"
	"github.com/warp/hours-engine/store/sqlite"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "hours-engine",
		Short:         "Hours and billing accounting engine",
		Long:          "Computes theoretical and actual hours, benefits, billing windows, projections and rollups from schedules and activity records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	rootCmd.AddCommand(
		serveCmd(),
		summaryCmd(),
		billingCmd(),
		projectionCmd(),
		rollupCmd(),
		importHolidaysCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *sqlite.Store
	service *accounting.Service
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	svc, err := accounting.NewService(store, store, store, cfg.ServiceOptions(logger))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	logger.Debug("Application initialized",
		zap.String("db", cfg.DB.Path),
		zap.String("extra_duty_policy", cfg.Engine.ExtraDutyPolicy))
	return &app{cfg: cfg, logger: logger, store: store, service: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Closing database failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
