// Package factory wires the production implementations behind
// cmdutil.Factory.
package factory

import (
	"os"
	"sync"

	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/config"
	"github.com/schmitthub/ralphloop/internal/iostreams"
	"github.com/schmitthub/ralphloop/internal/logger"
	"github.com/schmitthub/ralphloop/internal/prompter"
	"github.com/schmitthub/ralphloop/internal/ralph"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/ralphloop).
// Tests should NOT import this package; construct &cmdutil.Factory{} directly.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.System()
	ios.Logger = logger.Contextual{}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	f := &cmdutil.Factory{
		WorkDir:   workDir,
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	// Config
	var (
		configOnce sync.Once
		configData *config.Config
		configErr  error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			opts, err := config.DefaultLoadOptions(f.WorkDir)
			if err != nil {
				configErr = err
				return
			}
			configData, configErr = config.Load(opts)
		})
		return configData, configErr
	}

	// Store
	var (
		storeOnce sync.Once
		store     *ralph.FileStore
		storeErr  error
	)
	f.Store = func() (ralph.Store, error) {
		storeOnce.Do(func() {
			cfg, err := f.Config()
			if err != nil {
				storeErr = err
				return
			}
			store = ralph.NewFileStore(cfg.StateDirPath(f.WorkDir))
			logger.Debug().Str("state_dir", store.Dir()).Msg("using file store")
		})
		if storeErr != nil {
			return nil, storeErr
		}
		return store, nil
	}

	f.History = func() (*ralph.HistoryStore, error) {
		s, err := f.Store()
		if err != nil {
			return nil, err
		}
		return ralph.NewHistoryStore(s), nil
	}

	f.Sessions = func(explicit string) ralph.Sessions {
		return ralph.NewProcessSessions(explicit)
	}

	f.Prompter = func() *prompter.Prompter {
		return prompter.New(f.IOStreams)
	}

	return f
}
