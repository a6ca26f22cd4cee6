package cancel

import (
	"context"
	"testing"

	"github.com/google/shlex"
	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/iostreams/iostreamstest"
	"github.com/schmitthub/ralphloop/internal/prompter"
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactory(t *testing.T) (*cmdutil.Factory, *iostreamstest.TestIOStreams, *ralph.MemoryStore) {
	t.Helper()
	tio := iostreamstest.New()
	store := ralph.NewMemoryStore()
	dead := map[string]bool{"99999999": true}
	f := &cmdutil.Factory{
		IOStreams: tio.IOStreams,
		Store:     func() (ralph.Store, error) { return store, nil },
		History:   func() (*ralph.HistoryStore, error) { return ralph.NewHistoryStore(store), nil },
		Sessions: func(explicit string) ralph.Sessions {
			if explicit == "" {
				explicit = "4242"
			}
			return &ralph.StaticSessions{ID: explicit, Dead: dead}
		},
	}
	return f, tio, store
}

func seed(t *testing.T, store ralph.Store, sessions ...string) {
	t.Helper()
	for _, s := range sessions {
		rec := &ralph.Record{Active: true, Iteration: 1, MaxIterations: 5, CompletionPromise: "DONE", Goal: "g"}
		require.NoError(t, ralph.SaveRecord(context.Background(), store, s, rec))
	}
}

func remaining(t *testing.T, store ralph.Store) []string {
	t.Helper()
	sessions, err := ralph.ListSessions(context.Background(), store)
	require.NoError(t, err)
	return sessions
}

func run(t *testing.T, f *cmdutil.Factory, tio *iostreamstest.TestIOStreams, input string) error {
	t.Helper()
	argv, err := shlex.Split(input)
	require.NoError(t, err)
	if argv == nil {
		argv = []string{}
	}
	cmd := NewCmdCancel(f, nil)
	cmd.SetArgs(argv)
	cmd.SetOut(tio.Out)
	cmd.SetErr(tio.ErrOut)
	return cmd.Execute()
}

func TestNewCmdCancel_FlagErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{input: "--stale --session 4242", wantErr: "cannot be used together"},
		{input: "--session 'a b'", wantErr: "invalid session id"},
		{input: "extra", wantErr: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, tio, _ := testFactory(t)
			err := run(t, f, tio, tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCancelRun_CurrentSession(t *testing.T) {
	f, tio, store := testFactory(t)
	seed(t, store, "4242", "5555")

	require.NoError(t, run(t, f, tio, ""))
	assert.Equal(t, []string{"5555"}, remaining(t, store))
	assert.Contains(t, tio.ErrBuf.String(), "Cancelled Ralph loop of session 4242")

	h, err := ralph.NewHistoryStore(store).Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, h.Entries)
	assert.Equal(t, ralph.EventCancelled, h.Entries[len(h.Entries)-1].Event)
}

func TestCancelRun_ExplicitSession(t *testing.T) {
	f, tio, store := testFactory(t)
	seed(t, store, "4242", "5555")

	require.NoError(t, run(t, f, tio, "--session 5555"))
	assert.Equal(t, []string{"4242"}, remaining(t, store))
}

func TestCancelRun_NothingToCancel(t *testing.T) {
	f, tio, _ := testFactory(t)
	require.NoError(t, run(t, f, tio, ""))
	assert.Contains(t, tio.ErrBuf.String(), "No Ralph loop in session 4242")
}

func TestCancelRun_Stale(t *testing.T) {
	f, tio, store := testFactory(t)
	seed(t, store, "4242", "99999999")

	require.NoError(t, run(t, f, tio, "--stale"))
	assert.Equal(t, []string{"4242"}, remaining(t, store))
	assert.Contains(t, tio.ErrBuf.String(), "Removed stale loop of session 99999999")

	tio.ErrBuf.Reset()
	require.NoError(t, run(t, f, tio, "--stale"))
	assert.Contains(t, tio.ErrBuf.String(), "No stale Ralph loops")
}

func TestCancelRun_Confirm(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		args      string
		wantLeft  []string
		wantInErr string
	}{
		{name: "declined", input: "n\n", wantLeft: []string{"4242"}, wantInErr: "Loop left running"},
		{name: "accepted", input: "y\n", wantLeft: nil, wantInErr: "Cancelled Ralph loop of session 4242"},
		{name: "yes flag skips prompt", args: "--yes", wantLeft: nil, wantInErr: "Cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, tio, store := testFactory(t)
			f.Prompter = func() *prompter.Prompter { return prompter.New(tio.IOStreams) }
			tio.SetInteractive(true)
			tio.InBuf.SetInput(tt.input)
			seed(t, store, "4242")

			require.NoError(t, run(t, f, tio, tt.args))
			assert.Equal(t, tt.wantLeft, remaining(t, store))
			assert.Contains(t, tio.ErrBuf.String(), tt.wantInErr)
			if tt.args == "--yes" {
				assert.NotContains(t, tio.ErrBuf.String(), "[y/N]")
			} else {
				assert.Contains(t, tio.ErrBuf.String(), "(iteration 1 of 5)? [y/N]")
			}
		})
	}
}

func TestCancelRun_ConfirmNothingToCancel(t *testing.T) {
	f, tio, _ := testFactory(t)
	f.Prompter = func() *prompter.Prompter { return prompter.New(tio.IOStreams) }
	tio.SetInteractive(true)

	require.NoError(t, run(t, f, tio, ""))
	assert.Contains(t, tio.ErrBuf.String(), "No Ralph loop in session 4242")
	assert.NotContains(t, tio.ErrBuf.String(), "[y/N]")
}
