package cmdutil

import (
	"errors"
	"fmt"
)

// ExitError carries a specific process exit code back to Main. Commands
// return it instead of calling os.Exit so deferred cleanup (lock release,
// log flush) still runs.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// FlagError marks bad flags or arguments. Main prints the message followed
// by a hint pointing at the command's --help.
type FlagError struct {
	err error
}

func (e *FlagError) Error() string { return e.err.Error() }
func (e *FlagError) Unwrap() error { return e.err }

// FlagErrorf creates a FlagError with a formatted message.
func FlagErrorf(format string, args ...any) error {
	return &FlagError{err: fmt.Errorf(format, args...)}
}

// FlagErrorWrap marks an existing error as a usage error.
func FlagErrorWrap(err error) error {
	return &FlagError{err: err}
}

// SilentError signals that the command already reported the failure.
// Main exits non-zero without printing anything else.
var SilentError = errors.New("SilentError")
