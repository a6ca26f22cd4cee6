// Package stophook implements "ralph-loop stop-hook", the turn gatekeeper
// registered as the agent runtime's Stop hook.
package stophook

import (
	"context"
	"fmt"
	"io"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/spf13/cobra"
)

// StopHookOptions holds options for the stop-hook command.
type StopHookOptions struct {
	IOStreams *iostreams.IOStreams
	Store     func() (ralph.Store, error)
	History   func() (*ralph.HistoryStore, error)
	Sessions  func(explicit string) ralph.Sessions

	Session string
}

// NewCmdStopHook creates the stop-hook command.
func NewCmdStopHook(f *cmdutil.Factory, runF func(context.Context, *StopHookOptions) error) *cobra.Command {
	opts := &StopHookOptions{
		IOStreams: f.IOStreams,
		Store:     f.Store,
		History:   f.History,
		Sessions:  f.Sessions,
	}

	cmd := &cobra.Command{
		Use:   "stop-hook",
		Short: "Decide whether the agent stops or takes another turn",
		Long: `Reads the Stop hook payload from standard input and checks the session's
Ralph loop after each agent turn.

Without a loop the command prints nothing and the agent stops normally.
If the last assistant message contains <promise>COMPLETION_PROMISE</promise>
or the iteration budget is spent, the loop state is removed and the agent
stops. Otherwise the iteration is advanced and a block decision re-sends the
original prompt:

  {"decision": "block", "reason": "<prompt>", "systemMessage": "Ralph iteration N | ..."}

The command exits 0 on every recognized outcome.`,
		Example: `  # Register in .claude/settings.json (see "ralph-loop hooks")
  ralph-loop stop-hook < payload.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return stopHookRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Session that owns the loop (default $RALPH_LOOP_SESSION or the parent process)")

	return cmd
}

func stopHookRun(ctx context.Context, opts *StopHookOptions) error {
	ios := opts.IOStreams

	payload, err := io.ReadAll(ios.In)
	if err != nil {
		return fmt.Errorf("reading hook input: %w", err)
	}

	store, err := opts.Store()
	if err != nil {
		return err
	}
	history, err := opts.History()
	if err != nil {
		return err
	}

	gk := &ralph.Gatekeeper{
		Store:    store,
		Sessions: opts.Sessions(opts.Session),
		History:  history,
	}
	d, err := gk.Evaluate(ctx, payload)
	if err != nil {
		return fmt.Errorf("evaluating loop: %w", err)
	}

	switch d.Outcome {
	case ralph.OutcomeNoLoop:
		return nil
	case ralph.OutcomeContinue:
		return cmdutil.WriteJSON(ios.Out, d.Continuation)
	case ralph.OutcomeCompleted, ralph.OutcomeBudgetExhausted:
		fmt.Fprintln(ios.Out, d.Message)
	default:
		fmt.Fprintln(ios.ErrOut, d.Message)
	}
	return nil
}
