// gen-docs writes the ralph-loop command reference as Markdown pages and
// man pages.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schmitthub/ralphloop/internal/cmd/root"
	"github.com/schmitthub/ralphloop/internal/cmdutil"
	"github.com/schmitthub/ralphloop/internal/docs"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	flags := pflag.NewFlagSet("gen-docs", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		docPath string
		formats []string
		section string
	)
	flags.StringVar(&docPath, "doc-path", "", "Output directory for generated docs (required)")
	flags.StringSliceVar(&formats, "format", []string{string(docs.Markdown), string(docs.Man)}, "Formats to generate: markdown, man")
	flags.StringVar(&section, "man-section", "1", "Man page section")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage of %s:\n\n%s", filepath.Base(args[0]), flags.FlagUsages())
	}

	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if docPath == "" {
		return fmt.Errorf("--doc-path is required")
	}
	if len(formats) == 0 {
		return fmt.Errorf("at least one --format is required")
	}

	parsed := make([]docs.Format, 0, len(formats))
	for _, name := range formats {
		f, err := docs.ParseFormat(name)
		if err != nil {
			return err
		}
		parsed = append(parsed, f)
	}

	rootCmd := root.NewCmdRoot(&cmdutil.Factory{})
	rootCmd.DisableAutoGenTag = true

	opts := docs.Options{Section: section, Manual: "ralph-loop Manual"}
	for _, f := range parsed {
		dir := filepath.Join(docPath, string(f))
		written, err := docs.GenTree(rootCmd, dir, f, opts)
		if err != nil {
			return fmt.Errorf("generating %s docs: %w", f, err)
		}
		fmt.Fprintf(stderr, "Generated %d %s pages in %s\n", len(written), f, dir)
	}
	return nil
}
