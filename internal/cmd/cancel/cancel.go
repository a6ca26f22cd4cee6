// Package cancel implements "ralph-loop cancel".
package cancel

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/prompter"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/spf13/cobra"
)

// CancelOptions holds options for the cancel command.
type CancelOptions struct {
	IOStreams *iostreams.IOStreams
	Store     func() (ralph.Store, error)
	History   func() (*ralph.HistoryStore, error)
	Sessions  func(explicit string) ralph.Sessions
	Prompter  func() *prompter.Prompter

	Session string
	Stale   bool
	Yes     bool
}

// NewCmdCancel creates the cancel command.
func NewCmdCancel(f *cmdutil.Factory, runF func(context.Context, *CancelOptions) error) *cobra.Command {
	opts := &CancelOptions{
		IOStreams: f.IOStreams,
		Store:     f.Store,
		History:   f.History,
		Sessions:  f.Sessions,
		Prompter:  f.Prompter,
	}

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Stop a Ralph loop without waiting for it to finish",
		Long: `Removes the loop state of the current session, so the next stop-hook call
lets the agent stop. On a terminal you are asked to confirm first; pass --yes
to skip the question. With --stale, removes instead every record whose owning
session no longer exists.`,
		Example: `  # Cancel the loop of this session
  ralph-loop cancel

  # Cancel the loop of another session
  ralph-loop cancel --session 4242

  # Clean up loops left behind by exited sessions
  ralph-loop cancel --stale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Stale && opts.Session != "" {
				return cmdutil.FlagErrorf("--stale and --session cannot be used together")
			}
			if opts.Session != "" {
				if err := ralph.ValidateSessionID(opts.Session); err != nil {
					return cmdutil.FlagErrorWrap(err)
				}
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return cancelRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Session whose loop to cancel (default $RALPH_LOOP_SESSION or the parent process)")
	cmd.Flags().BoolVar(&opts.Stale, "stale", false, "Remove the loops of every session that no longer exists")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func cancelRun(ctx context.Context, opts *CancelOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	store, err := opts.Store()
	if err != nil {
		return err
	}
	history, err := opts.History()
	if err != nil {
		return err
	}
	sessions := opts.Sessions(opts.Session)

	if opts.Stale {
		reclaimed, err := ralph.ReclaimStale(ctx, store, sessions, history)
		if err != nil {
			return fmt.Errorf("removing stale loops: %w", err)
		}
		if len(reclaimed) == 0 {
			fmt.Fprintf(ios.ErrOut, "%s No stale Ralph loops\n", cs.InfoIcon())
			return nil
		}
		for _, s := range reclaimed {
			fmt.Fprintf(ios.ErrOut, "%s Removed stale loop of session %s\n", cs.SuccessIcon(), s)
		}
		return nil
	}

	session, err := sessions.Current()
	if err != nil {
		return err
	}

	if !opts.Yes && opts.Prompter != nil && ios.IsInteractive() {
		rec, err := ralph.LoadRecord(ctx, store, session)
		if errors.Is(err, ralph.ErrNotFound) {
			fmt.Fprintf(ios.ErrOut, "%s No Ralph loop in session %s\n", cs.InfoIcon(), session)
			return nil
		}
		prompt := fmt.Sprintf("Cancel the Ralph loop of session %s?", session)
		if err == nil {
			prompt = fmt.Sprintf("Cancel the Ralph loop of session %s (iteration %d of %d)?", session, rec.Iteration, rec.MaxIterations)
		}
		ok, err := opts.Prompter().Confirm(prompt, false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(ios.ErrOut, "%s Loop left running\n", cs.InfoIcon())
			return nil
		}
	}

	cancelled, err := ralph.Cancel(ctx, store, history, session)
	if err != nil {
		return fmt.Errorf("cancelling loop: %w", err)
	}
	if !cancelled {
		fmt.Fprintf(ios.ErrOut, "%s No Ralph loop in session %s\n", cs.InfoIcon(), session)
		return nil
	}
	fmt.Fprintf(ios.ErrOut, "%s Cancelled Ralph loop of session %s\n", cs.SuccessIcon(), session)
	return nil
}
