package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	Runtime   string `json:"runtime"`
	StorePath string `json:"store_path"`
	RunPath   string `json:"run_path"`
}

// currentBuild falls back to the module version when no version was stamped at link time.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Built:     date,
		Runtime:   runtime.Version(),
		StorePath: contract.GetStoreDBFilePath(),
		RunPath:   contract.GetRunDBFilePath(),
	}
	if info, ok := debug.ReadBuildInfo(); ok && b.Version == "dev" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			b.Version = v
		}
	}
	return b
}

// versionCmd shows the build and the default SQLite locations.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the classdrift build and its default database files.",
	Long: `Display the build of this binary and where the SQLite stores live by default.

Pass --output json for a machine-readable form when reporting bugs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b := currentBuild()
		out := cmd.OutOrStdout()
		if schema.OutputMode(viper.GetString("output")) == schema.JSONOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		}
		_, _ = fmt.Fprintf(out, "classdrift %s (%s, built %s, %s)\n", b.Version, b.Commit, b.Built, b.Runtime)
		_, _ = fmt.Fprintf(out, "  Snapshot store: %s\n", b.StorePath)
		_, _ = fmt.Fprintf(out, "  Run store:      %s\n", b.RunPath)
		return nil
	},
}
