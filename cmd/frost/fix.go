package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frost/internal/fix"
	"frost/internal/schema"
	"frost/internal/session"
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Apply automatic fixes for reported diagnostics",
	Long:  `Run the full lint pass, then apply the suggested fixes in document order. Safe fixes only, unless --all is given`,
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply fixes marked unsafe too")
	fixCmd.Flags().String("id", "", "apply only the fix with this id")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
}

func runFix(cmd *cobra.Command, args []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	files, err := collectInputs(args)
	if err != nil {
		return err
	}

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	jobs, err := jobsFor(cmd, inv.manifest)
	if err != nil {
		return err
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeSafe}
	switch {
	case targetID != "":
		opts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: targetID}
	case applyAll:
		opts = fix.ApplyOptions{Mode: fix.ApplyModeAll}
	}

	ws := session.New(schema.NewRegistry(inv.snapshot), inv.config)
	for _, file := range files {
		if err := ws.OpenFile(file); err != nil {
			return err
		}
	}
	bag, err := ws.LintAll(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	result, err := fix.Apply(ws.FileSet(), bag.Items(), opts)
	if errors.Is(err, fix.ErrNoFixes) {
		if !quiet {
			fmt.Fprintln(os.Stdout, "no applicable fixes")
			for _, skipped := range result.Skipped {
				fmt.Fprintf(os.Stdout, "skipped %s: %s\n", skipped.Title, skipped.Reason)
			}
		}
		return nil
	}
	if err != nil {
		return err
	}

	if !dryRun {
		if err := fix.WriteBack(ws.FileSet(), result); err != nil {
			return err
		}
	}

	if !quiet {
		for _, applied := range result.Applied {
			fmt.Fprintf(os.Stdout, "%s: %s [%s] (%s)\n", applied.Path, applied.Title, applied.Code, applied.ID)
		}
		for _, skipped := range result.Skipped {
			fmt.Fprintf(os.Stdout, "skipped %s: %s\n", skipped.Title, skipped.Reason)
		}
		verb := "applied"
		if dryRun {
			verb = "would apply"
		}
		fmt.Fprintf(os.Stdout, "%s %d fixes, skipped %d\n", verb, len(result.Applied), len(result.Skipped))
	}
	return nil
}
