package cmdutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagErrorf(t *testing.T) {
	err := FlagErrorf("invalid --max-iterations %d", 0)
	assert.Equal(t, "invalid --max-iterations 0", err.Error())

	var flagErr *FlagError
	require.True(t, errors.As(err, &flagErr))
}

func TestFlagErrorWrap(t *testing.T) {
	inner := errors.New("no prompt provided")
	err := FlagErrorWrap(inner)
	assert.Equal(t, "no prompt provided", err.Error())
	assert.ErrorIs(t, err, inner)

	var flagErr *FlagError
	require.True(t, errors.As(fmt.Errorf("start: %w", err), &flagErr))
	assert.Equal(t, inner, flagErr.Unwrap())
}

func TestExitError(t *testing.T) {
	err := fmt.Errorf("stop-hook: %w", &ExitError{Code: 2})
	assert.Equal(t, "stop-hook: exit status 2", err.Error())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

func TestSilentError(t *testing.T) {
	err := fmt.Errorf("already reported: %w", SilentError)
	assert.ErrorIs(t, err, SilentError)
}
