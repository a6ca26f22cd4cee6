// Package status implements "ralph-loop status".
package status

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/logger"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/schmitthub/ralphloop/internal/signals"
	"github.com/schmitthub/ralphloop/internal/text"
	"github.com/spf13/cobra"
)

const goalWidth = 40

// Watcher is implemented by stores that can report changes.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// StatusOptions holds options for the status command.
type StatusOptions struct {
	IOStreams *iostreams.IOStreams
	Store     func() (ralph.Store, error)
	Sessions  func(explicit string) ralph.Sessions

	Session string
	JSON    bool
	Watch   bool
}

// NewCmdStatus creates the status command.
func NewCmdStatus(f *cmdutil.Factory, runF func(context.Context, *StatusOptions) error) *cobra.Command {
	opts := &StatusOptions{
		IOStreams: f.IOStreams,
		Store:     f.Store,
		Sessions:  f.Sessions,
	}

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"ls"},
		Short:   "List Ralph loops in the state directory",
		Long: `Lists every Ralph loop record in the state directory with its progress
and whether the owning session is still alive. Records whose owner is gone
are removed by the next "ralph-loop start" or by "ralph-loop cancel --stale".`,
		Example: `  # Show all loops
  ralph-loop status

  # Machine-readable output
  ralph-loop status --json

  # Refresh whenever a loop advances (Ctrl-C to exit)
  ralph-loop status --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.JSON && opts.Watch {
				return cmdutil.FlagErrorf("--json and --watch cannot be used together")
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return statusRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Session to mark as current (default $RALPH_LOOP_SESSION or the parent process)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-render whenever a loop changes")

	return cmd
}

func statusRun(ctx context.Context, opts *StatusOptions) error {
	store, err := opts.Store()
	if err != nil {
		return err
	}
	sessions := opts.Sessions(opts.Session)
	current, err := sessions.Current()
	if err != nil {
		logger.Debug().Err(err).Msg("current session unknown")
		current = ""
	}

	render := func() error {
		loops, err := ralph.ListLoops(ctx, store, sessions, current)
		if err != nil {
			return fmt.Errorf("listing loops: %w", err)
		}
		if opts.JSON {
			return cmdutil.WriteJSON(opts.IOStreams.Out, loops)
		}
		return renderTable(opts.IOStreams, loops)
	}

	if err := render(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	w, ok := store.(Watcher)
	if !ok {
		return errors.New("this store does not support --watch")
	}
	ctx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	var renderErr error
	err = w.Watch(ctx, func() {
		fmt.Fprintf(opts.IOStreams.Out, "\n%s\n", opts.IOStreams.ColorScheme().Muted(time.Now().Format(time.TimeOnly)))
		if err := render(); err != nil {
			renderErr = err
			cancel()
		}
	})
	if renderErr != nil {
		return renderErr
	}
	return err
}

func renderTable(ios *iostreams.IOStreams, loops []ralph.LoopStatus) error {
	cs := ios.ColorScheme()
	if len(loops) == 0 {
		fmt.Fprintf(ios.ErrOut, "%s No active Ralph loops\n", cs.InfoIcon())
		return nil
	}

	tp := ios.NewTablePrinter("SESSION", "ITERATION", "PROMISE", "STARTED", "OWNER", "GOAL")
	for _, l := range loops {
		session := l.Session
		if l.Current {
			session += " *"
		}
		owner := "alive"
		if !l.Alive {
			owner = "stale"
		}
		if l.Corrupt != "" {
			tp.AddRow(session, "-", "-", "-", owner+", corrupted", "-")
			continue
		}
		rec := l.Record
		tp.AddRow(
			session,
			strconv.Itoa(rec.Iteration)+"/"+strconv.Itoa(rec.MaxIterations),
			rec.CompletionPromise,
			rec.StartedAt,
			owner,
			text.Summary(rec.Goal, goalWidth),
		)
	}
	if err := tp.Render(); err != nil {
		return err
	}

	for _, l := range loops {
		if l.Corrupt != "" {
			fmt.Fprintf(ios.ErrOut, "%s %s: %s\n", cs.WarningIcon(), l.Key, l.Corrupt)
		}
	}
	return nil
}
