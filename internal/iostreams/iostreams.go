// Package iostreams wires the three standard streams used by ralph-loop
// commands and answers terminal questions about them.
//
// Stop-hook invocations run with stdin and stdout attached to pipes, so every
// TTY check falls back to false for non-*os.File streams.
package iostreams

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IOStreams provides access to standard input/output/error streams.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// Logger receives diagnostic entries from the command layer.
	Logger Logger

	// -1 = unchecked, 0 = false, 1 = true
	isInputTTY  int
	isOutputTTY int
	isStderrTTY int

	// -1 = auto (detect from stdout), 0 = disabled, 1 = enabled
	colorEnabled int
}

// System creates an IOStreams connected to the process streams.
func System() *IOStreams {
	ios := &IOStreams{
		In:           os.Stdin,
		Out:          os.Stdout,
		ErrOut:       os.Stderr,
		isInputTTY:   -1,
		isOutputTTY:  -1,
		isStderrTTY:  -1,
		colorEnabled: -1,
	}
	if os.Getenv("NO_COLOR") != "" {
		ios.colorEnabled = 0
	}
	return ios
}

func isTerminal(v any) int {
	if f, ok := v.(*os.File); ok {
		return boolToInt(term.IsTerminal(int(f.Fd())))
	}
	return 0
}

// IsInputTTY returns true if stdin is a terminal.
func (s *IOStreams) IsInputTTY() bool {
	if s.isInputTTY == -1 {
		s.isInputTTY = isTerminal(s.In)
	}
	return s.isInputTTY == 1
}

// IsOutputTTY returns true if stdout is a terminal.
func (s *IOStreams) IsOutputTTY() bool {
	if s.isOutputTTY == -1 {
		s.isOutputTTY = isTerminal(s.Out)
	}
	return s.isOutputTTY == 1
}

// IsStderrTTY returns true if stderr is a terminal.
func (s *IOStreams) IsStderrTTY() bool {
	if s.isStderrTTY == -1 {
		s.isStderrTTY = isTerminal(s.ErrOut)
	}
	return s.isStderrTTY == 1
}

// IsInteractive reports whether the user can answer prompts: stdin and
// stderr are both terminals.
func (s *IOStreams) IsInteractive() bool {
	return s.IsInputTTY() && s.IsStderrTTY()
}

// SetStdinTTY overrides stdin terminal detection.
func (s *IOStreams) SetStdinTTY(isTTY bool) { s.isInputTTY = boolToInt(isTTY) }

// SetStdoutTTY overrides stdout terminal detection.
func (s *IOStreams) SetStdoutTTY(isTTY bool) { s.isOutputTTY = boolToInt(isTTY) }

// SetStderrTTY overrides stderr terminal detection.
func (s *IOStreams) SetStderrTTY(isTTY bool) { s.isStderrTTY = boolToInt(isTTY) }

// ColorEnabled reports whether output should be colorized. In auto mode
// this follows stderr, where all human-facing ralph-loop output goes.
func (s *IOStreams) ColorEnabled() bool {
	if s.colorEnabled == -1 {
		return s.IsStderrTTY()
	}
	return s.colorEnabled == 1
}

// SetColorEnabled explicitly enables or disables color output.
func (s *IOStreams) SetColorEnabled(enabled bool) {
	s.colorEnabled = boolToInt(enabled)
}

// ColorScheme returns a ColorScheme configured for this IOStreams.
func (s *IOStreams) ColorScheme() *ColorScheme {
	return NewColorScheme(s.ColorEnabled())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
