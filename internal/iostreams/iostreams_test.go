package iostreams

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOStreams_NonFileStreamsAreNotTTY(t *testing.T) {
	ios := &IOStreams{
		In:           &bytes.Buffer{},
		Out:          &bytes.Buffer{},
		ErrOut:       &bytes.Buffer{},
		isInputTTY:   -1,
		isOutputTTY:  -1,
		isStderrTTY:  -1,
		colorEnabled: -1,
	}

	assert.False(t, ios.IsInputTTY())
	assert.False(t, ios.IsOutputTTY())
	assert.False(t, ios.IsStderrTTY())
	assert.False(t, ios.ColorEnabled(), "auto color follows stderr")
}

func TestIOStreams_PipeIsNotTTY(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	ios := &IOStreams{In: r, Out: w, ErrOut: w, isInputTTY: -1, isOutputTTY: -1, isStderrTTY: -1}
	assert.False(t, ios.IsInputTTY())
	assert.False(t, ios.IsOutputTTY())
}

func TestIOStreams_Overrides(t *testing.T) {
	ios := &IOStreams{In: &bytes.Buffer{}, Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}

	ios.SetStdinTTY(true)
	ios.SetStdoutTTY(true)
	ios.SetStderrTTY(true)
	assert.True(t, ios.IsInputTTY())
	assert.True(t, ios.IsOutputTTY())
	assert.True(t, ios.IsStderrTTY())

	ios.SetColorEnabled(true)
	assert.True(t, ios.ColorScheme().Enabled())
	ios.SetColorEnabled(false)
	assert.False(t, ios.ColorScheme().Enabled())
}

func TestSystem_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	ios := System()
	assert.False(t, ios.ColorEnabled())
}
