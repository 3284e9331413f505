package cmd

import (
	"github.com/huangsam/classdrift/core"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/spf13/cobra"
)

// extractCmd reads every release of a history into the snapshot store.
var extractCmd = &cobra.Command{
	Use:   "extract <descriptor>",
	Short: "Extract class snapshots for every release of a history.",
	Long: `Read the compiled classes of every release named by a history descriptor
(YAML or TOML) and store one snapshot per release.

Each release may be a JAR/ZIP archive or a directory of .class files.
Releases that cannot be read are reported and skipped; the rest are stored.

Examples:
  # Extract with the default SQLite store
  classdrift extract histories/ant.yaml

  # Use more decoders and a PostgreSQL store
  classdrift extract ant.toml --workers 8 \
    --store-backend postgresql --store-db-connect "host=localhost dbname=classdrift"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupWith(bindDescriptor),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExtract(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot extract history", err)
		}
	},
}

// evolveCmd runs the evolution passes over stored snapshots.
var evolveCmd = &cobra.Command{
	Use:   "evolve <system>",
	Short: "Compute evolution metrics over the stored releases of a system.",
	Long: `Compare each stored release with its predecessor and record, per class:
- evolution status (added, modified, deleted, unchanged)
- birth release, age and modification frequency
- evolution distance and distance moved since birth
- renames detected between releases

Releases must be stored without gaps. Trailing releases that are missing are skipped
with a warning.

Examples:
  classdrift evolve ant`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupWith(bindSystem),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEvolve(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot evolve history", err)
		}
	},
}

// runCmd extracts and evolves in one go.
var runCmd = &cobra.Command{
	Use:   "run <descriptor>",
	Short: "Extract and evolve a history, then print the release summary.",
	Long: `Shortcut for 'extract' followed by 'evolve' and 'releases'.

Examples:
  classdrift run histories/ant.yaml
  classdrift run histories/ant.yaml --output json --output-file ant.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupWith(bindDescriptor),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRun(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run history", err)
		}
	},
}
