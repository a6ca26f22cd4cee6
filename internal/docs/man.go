package docs

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenMan writes the roff man page of a single command.
func GenMan(cmd *cobra.Command, opts Options, w io.Writer) error {
	_, err := w.Write(md2man.Render(manSource(cmd, opts)))
	return err
}

// manSource builds the md2man Markdown of a man page.
func manSource(cmd *cobra.Command, opts Options) []byte {
	cmd.InitDefaultHelpFlag()

	var b bytes.Buffer
	name := cmd.CommandPath()
	section := opts.section()

	fmt.Fprintf(&b, "%% %s(%s) | %s\n\n", strings.ToUpper(pageName(cmd, "-")), section, opts.Manual)

	short := cmd.Short
	if short == "" {
		short = name
	}
	fmt.Fprintf(&b, "# NAME\n%s \\- %s\n\n", name, short)

	fmt.Fprintf(&b, "# SYNOPSIS\n**%s**", name)
	if cmd.NonInheritedFlags().HasAvailableFlags() {
		b.WriteString(" [OPTIONS]")
	}
	if len(visibleCommands(cmd)) > 0 {
		b.WriteString(" COMMAND")
	} else if _, args, ok := strings.Cut(cmd.Use, " "); ok {
		b.WriteString(" " + args)
	}
	b.WriteString("\n\n")

	if cmd.Long != "" {
		fmt.Fprintf(&b, "# DESCRIPTION\n%s\n\n", strings.TrimSpace(cmd.Long))
	}

	if subs := visibleCommands(cmd); len(subs) > 0 {
		b.WriteString("# COMMANDS\n")
		for _, c := range subs {
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", c.Name(), c.Short)
		}
	}

	local, inherited := cmd.NonInheritedFlags(), cmd.InheritedFlags()
	if local.HasAvailableFlags() || inherited.HasAvailableFlags() {
		b.WriteString("# OPTIONS\n")
		writeManFlags(&b, local)
		writeManFlags(&b, inherited)
	}

	if cmd.Example != "" {
		fmt.Fprintf(&b, "# EXAMPLES\n```\n%s\n```\n\n", cmd.Example)
	}

	var related []string
	if cmd.HasParent() {
		related = append(related, pageName(cmd.Parent(), "-"))
	}
	for _, c := range visibleCommands(cmd) {
		related = append(related, pageName(c, "-"))
	}
	if len(related) > 0 {
		for i, r := range related {
			related[i] = fmt.Sprintf("**%s(%s)**", r, section)
		}
		fmt.Fprintf(&b, "# SEE ALSO\n%s\n", strings.Join(related, ", "))
	}
	return b.Bytes()
}

func writeManFlags(b *bytes.Buffer, flags *pflag.FlagSet) {
	var list []*pflag.Flag
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			list = append(list, f)
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	for _, f := range list {
		if f.Shorthand != "" {
			fmt.Fprintf(b, "**-%s**, ", f.Shorthand)
		}
		fmt.Fprintf(b, "**--%s**", f.Name)
		if t := f.Value.Type(); t != "bool" {
			fmt.Fprintf(b, " *%s*", t)
		}
		fmt.Fprintf(b, "\n: %s", f.Usage)
		switch f.DefValue {
		case "", "false", "0", "[]":
		default:
			fmt.Fprintf(b, " (default %s)", f.DefValue)
		}
		b.WriteString("\n\n")
	}
}
