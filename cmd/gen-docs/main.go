// gen-docs generates rdsharness CLI reference documentation in Markdown, man
// page, YAML and reStructuredText formats without running the CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schmitthub/rdsharness/internal/cmd/root"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type format struct {
	enabled bool
	dir     string
	gen     func(cmd *cobra.Command, dir string) error
}

func run(args []string) error {
	flags := pflag.NewFlagSet("gen-docs", pflag.ContinueOnError)

	var (
		flagDocPath  string
		flagMarkdown bool
		flagManPage  bool
		flagYAML     bool
		flagRST      bool
		flagWebsite  bool
	)

	flags.StringVar(&flagDocPath, "doc-path", "", "Output directory for generated docs (required)")
	flags.BoolVar(&flagMarkdown, "markdown", false, "Generate Markdown documentation")
	flags.BoolVar(&flagManPage, "man-page", false, "Generate man pages")
	flags.BoolVar(&flagYAML, "yaml", false, "Generate YAML reference")
	flags.BoolVar(&flagRST, "rst", false, "Generate reStructuredText documentation")
	flags.BoolVar(&flagWebsite, "website", false, "Add Jekyll front matter (requires --markdown)")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n%s", filepath.Base(args[0]), flags.FlagUsages())
	}

	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	if flagDocPath == "" {
		return fmt.Errorf("--doc-path is required")
	}
	if !flagMarkdown && !flagManPage && !flagYAML && !flagRST {
		return fmt.Errorf("at least one format must be specified (--markdown, --man-page, --yaml, --rst)")
	}
	if flagWebsite && !flagMarkdown {
		return fmt.Errorf("--website requires --markdown")
	}

	rootCmd := root.NewCmdRoot(&cmdutil.Factory{}, "")
	rootCmd.DisableAutoGenTag = true

	markdown := func(cmd *cobra.Command, dir string) error {
		if flagWebsite {
			return doc.GenMarkdownTreeCustom(cmd, dir, jekyllFilePrepender, jekyllLinkHandler)
		}
		return doc.GenMarkdownTree(cmd, dir)
	}
	man := func(cmd *cobra.Command, dir string) error {
		return doc.GenManTree(cmd, &doc.GenManHeader{Title: "RDSHARNESS", Section: "1"}, dir)
	}

	formats := []format{
		{enabled: flagMarkdown, dir: "markdown", gen: markdown},
		{enabled: flagManPage, dir: "man", gen: man},
		{enabled: flagYAML, dir: "yaml", gen: doc.GenYamlTree},
		{enabled: flagRST, dir: "rst", gen: doc.GenReSTTree},
	}
	for _, fm := range formats {
		if !fm.enabled {
			continue
		}
		dir := filepath.Join(flagDocPath, fm.dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", fm.dir, err)
		}
		if err := fm.gen(rootCmd, dir); err != nil {
			return fmt.Errorf("failed to generate %s documentation: %w", fm.dir, err)
		}
		fmt.Fprintf(os.Stderr, "Generated %s documentation in %s\n", fm.dir, dir)
	}

	return nil
}

// jekyllFilePrepender returns Jekyll front matter for a given filename.
func jekyllFilePrepender(filename string) string {
	// "rdsharness_service_up.md" -> "rdsharness service up"
	name := strings.TrimSuffix(filepath.Base(filename), ".md")
	cmdPath := strings.ReplaceAll(name, "_", " ")
	permalink := "/cli/" + strings.ReplaceAll(name, "_", "/") + "/"

	return fmt.Sprintf(`---
layout: manual
permalink: %s
title: %s
---

`, permalink, cmdPath)
}

// jekyllLinkHandler keeps links relative to the generated markdown directory.
func jekyllLinkHandler(name string) string {
	return name
}
