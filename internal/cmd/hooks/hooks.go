// Package hooks implements "ralph-loop hooks".
package hooks

import (
	"context"
	"fmt"
	"os"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/spf13/cobra"
)

const binaryName = "ralph-loop"

// HooksOptions holds options for the hooks command.
type HooksOptions struct {
	IOStreams *iostreams.IOStreams
	// Executable resolves the running binary for --absolute.
	Executable func() (string, error)

	Absolute bool
	Timeout  int
}

// NewCmdHooks creates the hooks command.
func NewCmdHooks(f *cmdutil.Factory, runF func(context.Context, *HooksOptions) error) *cobra.Command {
	opts := &HooksOptions{
		IOStreams:  f.IOStreams,
		Executable: os.Executable,
	}

	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Print the settings.json fragment that registers the stop hook",
		Long: `Prints the "hooks" block to merge into .claude/settings.json (project) or
~/.claude/settings.json (user) so the agent runtime calls
"ralph-loop stop-hook" after every turn.`,
		Example: `  # Show the fragment
  ralph-loop hooks

  # Reference this binary by absolute path, with a 30s timeout
  ralph-loop hooks --absolute --timeout 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Timeout < 0 {
				return cmdutil.FlagErrorf("--timeout must not be negative")
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return hooksRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Absolute, "absolute", false, "Use the absolute path of this binary instead of relying on PATH")
	cmd.Flags().IntVar(&opts.Timeout, "timeout", 0, "Hook timeout in seconds (0 keeps the runtime default)")

	return cmd
}

func hooksRun(_ context.Context, opts *HooksOptions) error {
	binary := binaryName
	if opts.Absolute {
		exe, err := opts.Executable()
		if err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}
		binary = exe
	}

	data, err := ralph.DefaultHooks(ralph.StopHookCommand(binary), opts.Timeout).MarshalSettingsJSON()
	if err != nil {
		return fmt.Errorf("encoding hooks: %w", err)
	}
	_, err = fmt.Fprintln(opts.IOStreams.Out, string(data))
	return err
}
