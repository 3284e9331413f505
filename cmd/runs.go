package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/classdrift/core"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/iocache"
	"github.com/huangsam/classdrift/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run tracking operations.
func runsSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("run-backend", "run-db-connect", schema.NoneBackend)
	if err != nil {
		return err
	}

	// Initialize run tracking only (no snapshot store for run commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsMigrateSetup resolves the run backend without creating tables.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("run-backend", "run-db-connect", schema.NoneBackend)
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend {
		connStr = sqlitePath(connStr, contract.GetRunDBFilePath())
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	return nil
}

// runsCmd focused on run tracking data management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage tracking of extract and evolve runs",
	Long: `Manage the record of extract and evolve runs.

When a run backend is configured, classdrift records every run with:
- Run metadata (system, kind, timestamps, configuration, duration)
- Per-release class counts and evolution tallies

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  list    - List tracked runs
  status  - Show run tracking statistics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  CLASSDRIFT_RUN_BACKEND=sqlite classdrift run ant.yaml
  CLASSDRIFT_RUN_BACKEND=sqlite classdrift runs list`,
}

// runsListCmd lists tracked runs.
var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tracked extract and evolve runs",
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRuns(rootCtx, cfg, iocache.Manager); err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
	},
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsClearCmd clears the tracking data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run tracking data",
	Long: `Delete all tracked runs and their release summaries.

WARNING: This action cannot be undone. Consider 'classdrift store export' first.`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunBackend, cfg.RunDBConnect, cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run run-tracking schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  classdrift runs migrate
  classdrift runs migrate --target-version 1`,
	PreRunE: runsMigrateSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.Migrate(iocache.RunMigrations, cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
