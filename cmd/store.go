package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/iocache"
	"github.com/huangsam/classdrift/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// backendFromViper reads and validates a backend and its connection string.
// An empty backend resolves to fallback.
func backendFromViper(backendKey, connKey string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, string, error) {
	backend := fallback
	if v := viper.GetString(backendKey); v != "" {
		backend = schema.DatabaseBackend(v)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString(connKey)
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// sqlitePath resolves the database file a SQLite backend will use.
func sqlitePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// storeSetup loads minimal configuration needed for snapshot store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("store-backend", "store-db-connect", schema.SQLiteBackend)
	if err != nil {
		return err
	}

	// Initialize the snapshot store only (no run tracking for store commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeExportSetup opens the snapshot store together with the run store, if one is configured.
func storeExportSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("store-backend", "store-db-connect", schema.SQLiteBackend)
	if err != nil {
		return err
	}
	runBackend, runConnStr, err := backendFromViper("run-backend", "run-db-connect", schema.NoneBackend)
	if err != nil {
		return err
	}
	if runBackend == schema.NoneBackend {
		runBackend = ""
	}
	if err := iocache.InitStores(backend, connStr, runBackend, runConnStr); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeMigrateSetup resolves the backend without opening the store, so
// migrations can run against a fresh database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("store-backend", "store-db-connect", schema.SQLiteBackend)
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend {
		connStr = sqlitePath(connStr, contract.GetStoreDBFilePath())
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on snapshot store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by extraction and reports.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the class snapshot store",
	Long: `Manage the store that holds one snapshot per extracted release.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove all stored snapshots and histories
  migrate - Run database schema migrations
  export  - Export stored classes to Parquet

Examples:
  classdrift store status
  CLASSDRIFT_STORE_BACKEND=mysql CLASSDRIFT_STORE_DB_CONNECT="..." classdrift store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetSnapshotStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored snapshots and histories",
	Long: `Delete all stored snapshots and histories from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the snapshot and history tables

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs database migrations for the snapshot store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run snapshot store schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  classdrift store migrate
  classdrift store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.Migrate(iocache.StoreMigrations, cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// storeExportCmd exports stored classes to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export [system]",
	Short: "Export stored classes to Parquet for BI tools and analytics",
	Long: `Export one row per (release, class) with the core structural and evolution
metrics. Without a system argument every stored system is exported.
Tracked runs are exported alongside when a run backend is configured.

Requires: --output-file parameter

Examples:
  classdrift store export ant --output-file ant
  duckdb -c "SELECT class_name, instability FROM read_parquet('ant.classes.parquet') LIMIT 10"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: storeExportSetup,
	Run: func(_ *cobra.Command, args []string) {
		system := ""
		if len(args) == 1 {
			system = args[0]
		}
		if err := iocache.ExecuteStoreExport(storeManager, system, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}
