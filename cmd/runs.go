package cmd

import (
	"errors"
	"fmt"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/outwriter"
	"github.com/defectlab/defectscan/internal/runstore"
	"github.com/defectlab/defectscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run store operations.
// This is used by commands that need store access without full shared setup.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get run-store config values
	backend := schema.DatabaseBackend(viper.GetString("run-backend"))
	connStr := viper.GetString("run-db-connect")

	if backend == "" {
		return errors.New("run tracking is not enabled; set --run-backend (or DEFECTSCAN_RUN_BACKEND) to sqlite, mysql or postgresql")
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the run store with the loaded config
	if err := runstore.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr

	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsCmd focused on run tracking management.
//
// Note: Runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup used by pipeline commands. This avoids path collection
// and model config processing for simple store operations.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and manage tracked model runs",
	Long: `Manage the run store that records training runs and prediction events.

Every tracked run stores the model name and state, dataset row count, timing
and (for training) holdout accuracy; prediction runs additionally store one
event per classified file.

Supported backends: SQLite, MySQL, PostgreSQL, or None (no-op)

Subcommands:
  (none)  - List recorded runs, newest last
  status  - Show store statistics and connection info
  clear   - Remove all tracked run data
  export  - Export runs and prediction events to Parquet files
  migrate - Apply or roll back store schema migrations

Examples:
  # List recent runs from the SQLite store
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs

  # Show store status
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs status`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Fill in display config the minimal setup skips
		cfg.ResultLimit = viper.GetInt("limit")
		cfg.Precision = viper.GetInt("precision")
		cfg.Output = schema.OutputMode(viper.GetString("output"))
		cfg.OutputFile = viper.GetString("output-file")

		store := runstore.Manager.GetRunStore()
		runs, err := store.GetAllRuns()
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.PrintRuns(runs, cfg); err != nil {
			contract.LogFatal("Failed to render runs", err)
		}
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run store statistics and connection details",
	Long: `Show detailed information about the run store.

Displays:
- Backend type and connection status
- Total number of tracked runs and prediction events
- Last and oldest run timestamps
- Table sizes

Use this to:
- Verify run tracking is working and connected
- Monitor store growth over time
- Debug persistence-related issues

Examples:
  # Check run store status
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs status`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := runstore.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run store status", err)
		}
		runstore.PrintRunStatus(status)
	},
}

// runsClearCmd clears all tracked run data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked run data",
	Long: `Delete all tracked runs and prediction events from the configured backend.

Use this when:
- Starting a fresh measurement period
- The store may be stale or corrupted
- Reclaiming disk space after heavy tracking

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run tables

Examples:
  # Clear the SQLite store
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs clear

  # Clear a MySQL store (set connection string via env variable)
  DEFECTSCAN_RUN_BACKEND=mysql DEFECTSCAN_RUN_DB_CONNECT="..." defectscan runs clear`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runstore.ClearRuns(cfg.RunBackend, runstore.GetRunDBFilePath(), cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear runs", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsExportCmd exports tracked data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export <output-prefix>",
	Short: "Export tracked runs and prediction events to Parquet files",
	Long: `Export both run store tables to Parquet files for external analysis.

Writes two files:
  <output-prefix>.model_runs.parquet
  <output-prefix>.prediction_events.parquet

The files load directly into Spark, Pandas (pyarrow), DuckDB or any other
Parquet-compatible tool.

Examples:
  # Export the SQLite store
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs export ./runs-2026-08`,
	Args:    cobra.ExactArgs(1),
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := runstore.ExecuteRunsExport(args[0]); err != nil {
			contract.LogFatal("Failed to export runs", err)
		}
	},
}

// runsMigrateCmd applies run store schema migrations.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back run store schema migrations",
	Long: `Run versioned schema migrations against the run store.

By default migrates to the latest version. Use --target-version to pin a
specific version or 0 to roll everything back.

Examples:
  # Migrate the SQLite store to the latest schema
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs migrate

  # Roll back to the initial state
  DEFECTSCAN_RUN_BACKEND=sqlite defectscan runs migrate --target-version 0`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := runstore.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to migrate run store", err)
		}
		fmt.Println("Run store migrations applied successfully.")
	},
}
