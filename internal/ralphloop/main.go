// Package ralphloop is the ralph-loop CLI entry point.
package ralphloop

import (
	"context"
	"errors"

	"github.com/schmitthub/ralphloop/internal/cmd/factory"
	"github.com/schmitthub/ralphloop/internal/cmd/root"
	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/logger"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

const (
	exitOK    = 0
	exitError = 1
)

// Main runs the CLI and returns the process exit code.
func Main() int {
	defer func() { _ = logger.CloseFileWriter() }()

	f := factory.New(Version, Commit)
	rootCmd := root.NewCmdRoot(f)

	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if err == nil {
		return exitOK
	}
	return handleError(f, cmd, err)
}

func handleError(f *cmdutil.Factory, cmd *cobra.Command, err error) int {
	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	logger.Error().Err(err).Str("command", cmd.CommandPath()).Msg("command failed")
	cmdutil.PrintError(f.IOStreams, "%s", err)

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		cmdutil.PrintHelpHint(f.IOStreams, cmd.CommandPath())
	}
	return exitError
}
