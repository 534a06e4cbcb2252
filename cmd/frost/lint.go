package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frost/internal/diag"
	"frost/internal/diagfmt"
	"frost/internal/schema"
	"frost/internal/session"
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Lint source files against the plugin schema",
	Long:  `Parse the given files or directories and evaluate every schema rule, reporting diagnostics in the chosen format`,
	RunE:  runLint,
}

func init() {
	lintCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	lintCmd.Flags().String("fail-on", "", "lowest severity that fails the run (error|warning|info)")
	lintCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	lintCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
}

func runLint(cmd *cobra.Command, args []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	files, err := collectInputs(args)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	failOn, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return fmt.Errorf("failed to get fail-on flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	jobs, err := jobsFor(cmd, inv.manifest)
	if err != nil {
		return err
	}

	failSev := inv.manifest.FailSeverity()
	if failOn != "" {
		sev, ok := diag.ParseSeverity(failOn)
		if !ok {
			return fmt.Errorf("unknown fail-on value: %s", failOn)
		}
		failSev = sev
	}

	ws := session.New(schema.NewRegistry(inv.snapshot), inv.config)
	if wd, err := os.Getwd(); err == nil {
		ws.FileSet().SetBaseDir(wd)
	}
	for _, file := range files {
		if err := ws.OpenFile(file); err != nil {
			return err
		}
	}

	bag, err := ws.LintAll(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}

	switch format {
	case "pretty":
		opts := diagfmt.PrettyOpts{
			Color:     color,
			PathMode:  pathMode,
			ShowNotes: true,
			ShowFixes: suggest,
		}
		diagfmt.Pretty(os.Stdout, bag, ws.FileSet(), opts)
		if !quiet {
			diagfmt.Summary(os.Stdout, bag, opts)
		}
	case "json":
		opts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     true,
			IncludeFixes:     suggest,
		}
		if err := diagfmt.JSON(os.Stdout, bag, ws.FileSet(), opts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "frost",
			ToolVersion:    "0.1.0",
			InvocationArgs: os.Args[1:],
		}
		if err := diagfmt.Sarif(os.Stdout, bag, ws.FileSet(), meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if bag.HasAtLeast(failSev) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // diagnostics already printed
	}
	return nil
}
