package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/schmitthub/ralphloop/internal/iostreams"
)

// PrintError writes "Error: <message>" to stderr.
func PrintError(ios *iostreams.IOStreams, format string, args ...any) {
	fmt.Fprintf(ios.ErrOut, "Error: "+format+"\n", args...)
}

// PrintHelpHint points the user at the help of the command that failed.
// cmdPath should be cmd.CommandPath(), e.g. "ralph-loop start".
func PrintHelpHint(ios *iostreams.IOStreams, cmdPath string) {
	fmt.Fprintf(ios.ErrOut, "\nRun '%s --help' for more information.\n", cmdPath)
}

// WriteJSON encodes data as indented JSON without HTML escaping, so goals
// containing <promise> tags stay readable.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
