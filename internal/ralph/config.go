package ralph

import (
	"fmt"
	"strings"
)

// Default values for loop configuration.
const (
	DefaultMaxIterations     = 10
	DefaultCompletionPromise = "IMPLEMENTED"
	DefaultStateDir          = ".claude"
)

// ValidateMaxIterations checks that a budget allows at least one turn.
func ValidateMaxIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", n)
	}
	return nil
}

// ValidateCompletionPromise checks that a marker token can round-trip
// through a record header and be matched on a single line of output.
func ValidateCompletionPromise(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("completion promise must not be empty")
	}
	if strings.ContainsAny(token, "\r\n") {
		return fmt.Errorf("completion promise must be a single line")
	}
	return nil
}
