// Package prompter asks the user yes/no questions on the terminal.
package prompter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schmitthub/ralphloop/internal/iostreams"
)

// Prompter reads answers from IOStreams.In and writes prompts to ErrOut,
// keeping stdout free for data.
type Prompter struct {
	ios *iostreams.IOStreams
}

// New creates a Prompter.
func New(ios *iostreams.IOStreams) *Prompter {
	return &Prompter{ios: ios}
}

// Confirm asks a y/N question. Without a terminal, or on EOF, the default
// is returned.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	if !p.ios.IsInteractive() {
		return defaultYes, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.ios.ErrOut, "%s %s ", message, hint)

	answer, err := bufio.NewReader(p.ios.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	if errors.Is(err, io.EOF) && answer == "" {
		fmt.Fprintln(p.ios.ErrOut)
		return defaultYes, nil
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
