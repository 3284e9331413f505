package cmd

import (
	"github.com/huangsam/classdrift/core"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the metric alias table.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the names, acronyms and merge kinds of all class metrics",
	Long: `Show every class metric with its stable name, the acronym used in report
headers, a readable label and how it merges when nested classes fold into
their enclosing class.

Names and acronyms are both accepted by 'classes --sort'.

Examples:
  classdrift metrics
  classdrift metrics --output csv`,
	PreRunE: setupWith(nil),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
