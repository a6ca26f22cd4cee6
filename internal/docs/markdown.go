package docs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// GenMarkdown writes the Markdown page of a single command. Links to
// related commands point at sibling files named by GenTree.
func GenMarkdown(cmd *cobra.Command, out io.Writer) error {
	cmd.InitDefaultHelpFlag()

	w := new(bytes.Buffer)

	fmt.Fprintf(w, "## %s\n\n", cmd.CommandPath())
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s\n\n", cmd.Short)
	}

	if cmd.Runnable() {
		w.WriteString("### Usage\n\n")
		fmt.Fprintf(w, "```\n%s\n```\n\n", cmd.UseLine())
	}
	if cmd.Long != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(cmd.Long))
	}

	if len(cmd.Aliases) > 0 {
		names := append([]string{cmd.Name()}, cmd.Aliases...)
		for i, n := range names {
			names[i] = "`" + n + "`"
		}
		fmt.Fprintf(w, "### Aliases\n\n%s\n\n", strings.Join(names, ", "))
	}

	if cmd.Example != "" {
		fmt.Fprintf(w, "### Examples\n\n```\n%s\n```\n\n", cmd.Example)
	}

	if subs := visibleCommands(cmd); len(subs) > 0 {
		w.WriteString("### Commands\n\n")
		for _, c := range subs {
			fmt.Fprintf(w, "* [%s](%s.md) - %s\n", c.CommandPath(), pageName(c, "_"), c.Short)
		}
		w.WriteString("\n")
	}

	if flags := cmd.NonInheritedFlags(); flags.HasAvailableFlags() {
		fmt.Fprintf(w, "### Options\n\n```\n%s```\n\n", flags.FlagUsages())
	}
	if flags := cmd.InheritedFlags(); flags.HasAvailableFlags() {
		fmt.Fprintf(w, "### Global options\n\n```\n%s```\n\n", flags.FlagUsages())
	}

	if cmd.HasParent() {
		p := cmd.Parent()
		fmt.Fprintf(w, "### See also\n\n* [%s](%s.md) - %s\n", p.CommandPath(), pageName(p, "_"), p.Short)
	}

	_, err := w.WriteTo(out)
	return err
}
