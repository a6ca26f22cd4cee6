// Package version implements "ralph-loop version".
package version

import (
	"fmt"
	"strings"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdVersion creates the version command.
func NewCmdVersion(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of ralph-loop",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(f.IOStreams.Out, Format(f.Version, f.Commit))
		},
	}
}

// Format returns the version line, e.g. "ralph-loop version 1.2.0 (abc123)".
func Format(version, commit string) string {
	version = strings.TrimPrefix(version, "v")

	var commitStr string
	if commit != "" && commit != "none" {
		commitStr = fmt.Sprintf(" (%s)", commit)
	}

	return fmt.Sprintf("ralph-loop version %s%s\n", version, commitStr)
}
