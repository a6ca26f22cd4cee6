package config

import (
	"errors"
	"fmt"

	"github.com/schmitthub/ralphloop/internal/ralph"
)

// Validate checks values that would otherwise fail later inside a loop.
func (c *Config) Validate() error {
	var errs []error
	if err := ralph.ValidateMaxIterations(c.MaxIterations); err != nil {
		errs = append(errs, fmt.Errorf("max_iterations: %w", err))
	}
	if err := ralph.ValidateCompletionPromise(c.CompletionPromise); err != nil {
		errs = append(errs, fmt.Errorf("completion_promise: %w", err))
	}
	if c.StateDir == "" {
		errs = append(errs, errors.New("state_dir: must not be empty"))
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxAgeDays < 0 || c.Logging.MaxBackups < 0 {
		errs = append(errs, errors.New("logging: sizes and counts must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
