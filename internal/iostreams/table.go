package iostreams

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var dividerStyle = lipgloss.NewStyle().Foreground(colorMuted)

// TablePrinter writes aligned rows to IOStreams.Out. On a color TTY the
// header is bold and underlined by a divider; otherwise the output is plain
// space-aligned columns suitable for scripts.
type TablePrinter struct {
	ios     *IOStreams
	headers []string
	rows    [][]string
}

// NewTablePrinter creates a table with the given column headers.
func (s *IOStreams) NewTablePrinter(headers ...string) *TablePrinter {
	return &TablePrinter{ios: s, headers: headers}
}

// AddRow appends a row. Missing columns render empty.
func (tp *TablePrinter) AddRow(cols ...string) {
	tp.rows = append(tp.rows, tp.normalizeRow(cols))
}

// Len returns the number of data rows.
func (tp *TablePrinter) Len() int {
	return len(tp.rows)
}

// Render writes the table.
func (tp *TablePrinter) Render() error {
	if len(tp.headers) == 0 {
		return nil
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(tp.headers, "\t"))
	for _, row := range tp.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !tp.ios.IsOutputTTY() || !tp.ios.ColorEnabled() {
		_, err := fmt.Fprint(tp.ios.Out, buf.String())
		return err
	}

	// Styling is applied after alignment so escape sequences do not skew
	// the column widths.
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	header := strings.TrimRight(lines[0], " ")
	fmt.Fprintln(tp.ios.Out, tp.ios.ColorScheme().Bold(header))
	fmt.Fprintln(tp.ios.Out, dividerStyle.Render(strings.Repeat("─", lipgloss.Width(header))))
	for _, line := range lines[1:] {
		if _, err := fmt.Fprintln(tp.ios.Out, line); err != nil {
			return err
		}
	}
	return nil
}

func (tp *TablePrinter) normalizeRow(row []string) []string {
	cols := make([]string, len(tp.headers))
	copy(cols, row)
	return cols
}
