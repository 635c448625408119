package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/version"
)

var versionOutput string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "output format (text, json)")
}

// runVersion implements the version command.
func runVersion(cmd *cobra.Command, args []string) error {
	switch versionOutput {
	case "json":
		info := struct {
			version.Info
			GoVersion string `json:"go_version"`
			Platform  string `json:"platform"`
		}{
			Info:      versionInfo,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)

	case "text", "":
		fmt.Fprintf(cmd.OutOrStdout(), "plumb %s\n", versionInfo.Version)
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", versionInfo.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
		return nil
	}

	return perrors.Validation("cli.version",
		fmt.Sprintf("unknown output format %q (valid: text, json)", versionOutput))
}
