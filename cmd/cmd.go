// Package cmd defines the command-line interface for classdrift.
package cmd

import (
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(systemsCmd)
	rootCmd.AddCommand(releasesCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(runsCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for ratio columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent class decoders")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Snapshot store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run tracking")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Prefix progress lines with emojis (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress lines on stderr")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("io-prefixes", "", "Comma-separated package prefixes that mark IO classes")
	rootCmd.PersistentFlags().String("gui-prefixes", "", "Comma-separated package prefixes that mark GUI classes")
	rootCmd.PersistentFlags().String("utility-prefixes", "", "Comma-separated package prefixes treated as utility libraries")
	rootCmd.PersistentFlags().String("ignored-dependencies", "", "Comma-separated types left out of dependency sets")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of classesCmd to Viper
	classesCmd.Flags().Int("rsn", 0, "Release sequence number (0 = latest stored release)")
	classesCmd.Flags().String("sort", string(schema.Instability), "Metric name or acronym to rank classes by")
	if err := viper.BindPFlags(classesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding classes flags", err)
	}

	// Migrate flags are read from each command directly since both share a name
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
