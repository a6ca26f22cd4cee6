package cmdutil

import (
	"github.com/schmitthub/ralphloop/internal/config"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/prompter"
	"github.com/schmitthub/ralphloop/internal/ralph"
)

// Factory provides shared dependencies for CLI commands.
// The struct is the contract; internal/cmd/factory wires the real
// implementations. Tests construct &cmdutil.Factory{} directly and set only
// the fields the command under test reads.
//
// Closure fields are lazily initialized. Commands copy the ones they need
// into their Options struct.
type Factory struct {
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	IOStreams *iostreams.IOStreams

	// Config returns the merged configuration for WorkDir.
	Config func() (*config.Config, error)

	// Store returns the record store rooted at the configured state dir.
	Store func() (ralph.Store, error)

	// History returns the loop journal kept next to the records.
	History func() (*ralph.HistoryStore, error)

	// Sessions resolves session identity. explicit is the --session flag
	// value and may be empty.
	Sessions func(explicit string) ralph.Sessions

	Prompter func() *prompter.Prompter
}
