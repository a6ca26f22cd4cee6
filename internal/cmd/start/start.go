// Package start implements "ralph-loop start", the loop initializer.
package start

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/config"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/spf13/cobra"
)

// StartOptions holds options for the start command.
type StartOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Store     func() (ralph.Store, error)
	History   func() (*ralph.HistoryStore, error)
	Sessions  func(explicit string) ralph.Sessions

	Goal              []string
	MaxIterations     int
	CompletionPromise string
	Session           string

	maxIterationsSet bool
	promiseSet       bool
}

// NewCmdStart creates the start command.
func NewCmdStart(f *cmdutil.Factory, runF func(context.Context, *StartOptions) error) *cobra.Command {
	opts := &StartOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Store:     f.Store,
		History:   f.History,
		Sessions:  f.Sessions,
	}

	cmd := &cobra.Command{
		Use:   "start [flags] [PROMPT...]",
		Short: "Start a Ralph loop in the current session",
		Long: `Start a Ralph loop: the agent keeps working on PROMPT, turn after turn,
until it declares the goal met or the iteration budget runs out.

USAGE:
  ralph-loop start [-n MAX_ITERATIONS] [-p COMPLETION_PROMISE] PROMPT...
  echo "PROMPT" | ralph-loop start [-n MAX_ITERATIONS] [-p COMPLETION_PROMISE]

The prompt is taken from the arguments (joined with spaces) or, when no
arguments are given, from standard input. The loop state is written to
<state_dir>/ralph-loop.<SESSION>.local.md; records left behind by sessions
that no longer exist are removed first.

To finish, the agent outputs <promise>COMPLETION_PROMISE</promise>, and only
when that statement is completely and unequivocally true.`,
		Example: `  # Work until the tests pass, at most 20 turns
  ralph-loop start -n 20 "Make every test in ./... pass"

  # Custom completion promise
  ralph-loop start -p ALL_GREEN "Fix the flaky integration suite"

  # Multi-line prompt from a file
  ralph-loop start < TASK.md

  # Use a generated session handle instead of the parent process
  eval "$(ralph-loop start --session new "Refactor the parser")"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Goal = args
			opts.maxIterationsSet = cmd.Flags().Changed("max-iterations")
			opts.promiseSet = cmd.Flags().Changed("completion-promise")

			if opts.maxIterationsSet {
				if err := ralph.ValidateMaxIterations(opts.MaxIterations); err != nil {
					return cmdutil.FlagErrorf("invalid --max-iterations: %v", err)
				}
			}
			if opts.promiseSet {
				if err := ralph.ValidateCompletionPromise(opts.CompletionPromise); err != nil {
					return cmdutil.FlagErrorf("invalid --completion-promise: %v", err)
				}
			}
			if opts.Session != "" && opts.Session != ralph.NewSessionKeyword {
				if err := ralph.ValidateSessionID(opts.Session); err != nil {
					return cmdutil.FlagErrorWrap(err)
				}
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return startRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.MaxIterations, "max-iterations", "n", 0, "Maximum number of turns (default from config, 10)")
	cmd.Flags().StringVarP(&opts.CompletionPromise, "completion-promise", "p", "", "Text the agent outputs inside <promise></promise> when done (default from config, IMPLEMENTED)")
	cmd.Flags().StringVar(&opts.Session, "session", "", `Session that owns the loop; "new" generates one (default $RALPH_LOOP_SESSION or the parent process)`)

	return cmd
}

func startRun(ctx context.Context, opts *StartOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	goal, err := readGoal(opts)
	if err != nil {
		return err
	}
	if goal == "" {
		return cmdutil.FlagErrorf("No prompt provided. Pass the prompt as arguments or on standard input")
	}

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	maxIterations := cfg.MaxIterations
	if opts.maxIterationsSet {
		maxIterations = opts.MaxIterations
	}
	promise := cfg.CompletionPromise
	if opts.promiseSet {
		promise = opts.CompletionPromise
	}

	session := opts.Session
	generated := session == ralph.NewSessionKeyword
	if generated {
		session = ralph.NewSessionID()
	}

	store, err := opts.Store()
	if err != nil {
		return err
	}
	history, err := opts.History()
	if err != nil {
		return err
	}

	ini := &ralph.Initializer{
		Store:    store,
		Sessions: opts.Sessions(session),
		History:  history,
	}
	res, err := ini.Start(ctx, ralph.StartOptions{
		Goal:              goal,
		MaxIterations:     maxIterations,
		CompletionPromise: promise,
	})
	if errors.Is(err, ralph.ErrNoGoal) {
		return cmdutil.FlagErrorf("No prompt provided. Pass the prompt as arguments or on standard input")
	}
	if err != nil {
		return fmt.Errorf("starting loop: %w", err)
	}

	if generated {
		fmt.Fprintf(ios.Out, "export %s=%s\n", ralph.SessionEnvVar, res.Session)
	}

	for _, stale := range res.Reclaimed {
		fmt.Fprintf(ios.ErrOut, "%s Removed stale loop of session %s\n", cs.InfoIcon(), stale)
	}
	if res.Replaced {
		fmt.Fprintf(ios.ErrOut, "%s Replaced the loop already running in this session\n", cs.WarningIcon())
	}

	rec := res.Record
	fmt.Fprintf(ios.ErrOut, "%s Ralph loop started (iteration %d of %d)\n", cs.SuccessIcon(), rec.Iteration, rec.MaxIterations)
	fmt.Fprintf(ios.ErrOut, "  Session:    %s\n", res.Session)
	fmt.Fprintf(ios.ErrOut, "  To finish:  output %s only when it is completely and unequivocally true\n", cs.Bold(rec.Marker()))
	if p, ok := store.(interface{ Path(string) string }); ok {
		fmt.Fprintf(ios.ErrOut, "  State file: %s\n", cs.Muted(p.Path(res.Key)))
	}
	return nil
}

// readGoal joins the positional arguments, or reads standard input when
// there are none and it is not a terminal.
func readGoal(opts *StartOptions) (string, error) {
	if len(opts.Goal) > 0 {
		return ralph.NormalizeGoal(strings.Join(opts.Goal, " ")), nil
	}
	ios := opts.IOStreams
	if ios.In == nil || ios.IsInputTTY() {
		return "", nil
	}
	data, err := io.ReadAll(ios.In)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	return ralph.NormalizeGoal(string(data)), nil
}
