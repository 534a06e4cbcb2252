package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"frost/internal/diag"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules of the loaded plugin",
	Long:  `Print every rule the active plugin defines, with its effective severity after frost.toml overrides, plus any rules that failed to compile`,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	colorOn, err := useColor(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !colorOn

	ids := make([]string, 0, len(inv.snapshot.Rules))
	for id := range inv.snapshot.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rule := inv.snapshot.Rules[id]
		label := rule.Severity.String()
		if override, ok := inv.config.Overrides[id]; ok {
			label = override
		}
		fmt.Fprintf(os.Stdout, "%-30s %-8s %s\n", id, severityColor(label).Sprint(label), rule.Message)
	}

	for _, issue := range inv.snapshot.Issues {
		fmt.Fprintf(os.Stdout, "%-30s %-8s %s\n", issue.ID, severityColor("broken").Sprint("broken"), issue.Msg)
	}
	return nil
}

func severityColor(label string) *color.Color {
	switch label {
	case diag.SevError.String(), "broken":
		return color.New(color.FgRed)
	case diag.SevWarning.String():
		return color.New(color.FgYellow)
	case "off":
		return color.New(color.Faint)
	default:
		return color.New(color.FgCyan)
	}
}
