package cmd

import (
	"github.com/huangsam/classdrift/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the classdrift MCP server",
	Long:  `Launch an MCP server that lets AI agents query stored systems, releases and class histories.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, nil, args); err != nil {
			return err
		}
		// stdio carries the protocol, so progress lines must stay off it
		cfg.Quiet = true
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
