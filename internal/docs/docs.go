// Package docs renders reference documentation for the ralph-loop command
// tree as Markdown pages or man pages.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Format selects the output of a generator.
type Format string

const (
	Markdown Format = "markdown"
	Man      Format = "man"
)

// Formats lists every supported format in generation order.
var Formats = []Format{Markdown, Man}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of: %s)", name, formatNames())
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Options configures a tree generation.
type Options struct {
	// Section is the man section; defaults to "1".
	Section string
	// Manual is the man page footer, e.g. "ralph-loop Manual".
	Manual string
}

func (o Options) section() string {
	if o.Section == "" {
		return "1"
	}
	return o.Section
}

// GenTree writes one page per visible command under root into dir and
// returns the written paths.
func GenTree(root *cobra.Command, dir string, format Format, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var written []string
	var walk func(cmd *cobra.Command) error
	walk = func(cmd *cobra.Command) error {
		for _, c := range visibleCommands(cmd) {
			if err := walk(c); err != nil {
				return err
			}
		}

		var (
			buf  bytes.Buffer
			name string
			err  error
		)
		switch format {
		case Markdown:
			name = pageName(cmd, "_") + ".md"
			err = GenMarkdown(cmd, &buf)
		case Man:
			name = pageName(cmd, "-") + "." + opts.section()
			err = GenMan(cmd, opts, &buf)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", cmd.CommandPath(), err)
		}

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return written, nil
}

func pageName(cmd *cobra.Command, sep string) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", sep)
}

// visibleCommands returns the non-hidden subcommands of cmd sorted by
// name, without the generated help and completion commands.
func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.Hidden || !c.IsAvailableCommand() || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
