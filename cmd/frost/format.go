package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frost/internal/diag"
	"frost/internal/diagfmt"
	"frost/internal/format"
	"frost/internal/markup"
	"frost/internal/source"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Format source files canonically",
	Long:  `Rewrite files into the canonical layout: plugin-defined indentation, primary-attribute-first ordering and attribute wrapping. Without -w the result goes to stdout`,
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().BoolP("write", "w", false, "write result back to the source files")
	fmtCmd.Flags().Bool("check", false, "list files that are not canonically formatted and exit non-zero")
}

func runFmt(cmd *cobra.Command, args []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	files, err := collectInputs(args)
	if err != nil {
		return err
	}

	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return fmt.Errorf("failed to get check flag: %w", err)
	}
	if write && check {
		return fmt.Errorf("write and check flags cannot be used together")
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}

	prefs := inv.manifest.FormatPrefs(inv.snapshot.Format)
	fs := source.NewFileSet()
	if wd, err := os.Getwd(); err == nil {
		fs.SetBaseDir(wd)
	}

	var changed []string
	for _, file := range files {
		id, err := fs.Load(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		bag := diag.NewBag(inv.config.MaxDiagnostics + 100)
		doc, err := markup.Parse(fs, id, &diag.BagReporter{Bag: bag})
		if err != nil {
			diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: color})
			return fmt.Errorf("cannot format %s: %w", file, err)
		}

		out := format.Format(doc, prefs)
		if bytes.Equal(out, fs.Get(id).Content) {
			continue
		}
		changed = append(changed, file)

		switch {
		case write:
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file, out, mode); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}
		case check:
			// reported below
		default:
			if _, err := os.Stdout.Write(out); err != nil {
				return err
			}
		}
	}

	if check && len(changed) > 0 {
		for _, file := range changed {
			fmt.Fprintln(os.Stdout, file)
		}
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // paths already printed
	}
	return nil
}
