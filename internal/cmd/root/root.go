// Package root assembles the ralph-loop command tree.
package root

import (
	"github.com/schmitthub/ralphloop/internal/cmd/cancel"
	"github.com/schmitthub/ralphloop/internal/cmd/hooks"
	"github.com/schmitthub/ralphloop/internal/cmd/start"
	"github.com/schmitthub/ralphloop/internal/cmd/status"
	"github.com/schmitthub/ralphloop/internal/cmd/stophook"
	versioncmd "github.com/schmitthub/ralphloop/internal/cmd/version"
	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewCmdRoot creates the root command for the ralph-loop CLI.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ralph-loop",
		Short: "Keep an AI coding agent working on one goal, turn after turn",
		Long: `ralph-loop runs a "Ralph loop": the same prompt is fed back to the agent
after every turn until it declares the goal met or an iteration budget runs
out.

Quick start:
  ralph-loop hooks >> .claude/settings.json   # register the stop hook (merge by hand)
  ralph-loop start -n 20 "Make the test suite pass"

The agent finishes by outputting <promise>IMPLEMENTED</promise> (or the
promise given with -p).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Str("command", cmd.CommandPath()).
				Str("workdir", f.WorkDir).
				Msg("ralph-loop starting")
			return nil
		},
		Version: f.Version,
	}

	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging to stderr")
	cmd.SetVersionTemplate(versioncmd.Format(f.Version, f.Commit))
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		if err == pflag.ErrHelp {
			return err
		}
		return cmdutil.FlagErrorWrap(err)
	})

	cmd.AddCommand(start.NewCmdStart(f, nil))
	cmd.AddCommand(stophook.NewCmdStopHook(f, nil))
	cmd.AddCommand(status.NewCmdStatus(f, nil))
	cmd.AddCommand(cancel.NewCmdCancel(f, nil))
	cmd.AddCommand(hooks.NewCmdHooks(f, nil))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up file logging from the configuration.
// Falls back to the nop logger on any error; logging never fails a command.
func initializeLogger(f *cmdutil.Factory) {
	if f.Config == nil {
		logger.Init()
		return
	}
	cfg, err := f.Config()
	if err != nil {
		logger.Init()
		return
	}

	logsDir, err := cfg.LogsDir()
	if err != nil {
		logsDir = ""
	}
	if err := logger.InitWithFile(f.Debug, logsDir, cfg.Logging.LoggerConfig()); err != nil {
		logger.Init()
		logger.Warn().Err(err).Msg("file logging unavailable")
	}
}
