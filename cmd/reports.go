package cmd

import (
	"github.com/huangsam/classdrift/core"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/spf13/cobra"
)

// systemsCmd lists stored systems.
var systemsCmd = &cobra.Command{
	Use:     "systems",
	Short:   "List the systems held by the snapshot store.",
	Args:    cobra.NoArgs,
	PreRunE: setupWith(nil),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSystems(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list systems", err)
		}
	},
}

// releasesCmd summarizes every stored release of a system.
var releasesCmd = &cobra.Command{
	Use:   "releases <system>",
	Short: "Show per-release class counts and evolution tallies.",
	Long: `Show one row per stored release with the number of classes that were
added, modified, deleted (gone in the next release), unchanged and renamed.

Examples:
  classdrift releases ant
  classdrift releases ant --output csv --output-file ant-releases.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupWith(bindSystem),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReleases(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot show releases", err)
		}
	},
}

// classesCmd lists the classes of one release.
var classesCmd = &cobra.Command{
	Use:   "classes <system>",
	Short: "Rank the classes of one release by a metric.",
	Long: `List the classes of a release with their layer, coupling, instability,
inheritance depth and evolution status.

Classes are ranked by --sort (a metric name or acronym, default instability)
and cut to --limit. --rsn picks the release; the latest is used by default.

Examples:
  classdrift classes ant --rsn 3
  classdrift classes ant --sort DIT --limit 10
  classdrift classes ant --output parquet --output-file ant-classes.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupWith(bindSystem),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClasses(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list classes", err)
		}
	},
}

// classCmd shows one class across releases.
var classCmd = &cobra.Command{
	Use:   "class <system> <class>",
	Short: "Show the history of one class across releases.",
	Long: `Trace a fully qualified class back through the stored releases.
Renames are followed, so the timeline continues under the class's earlier names.

Examples:
  classdrift class ant org.apache.tools.ant.Project`,
	Args:    cobra.ExactArgs(2),
	PreRunE: setupWith(bindSystemClass),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassTimeline(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot show class history", err)
		}
	},
}
