package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"frost/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "frost",
	Short: "Schema-driven toolchain for installer markup sources",
	Long:  `frost lints, formats and fixes XML-like installer definition files against a plugin schema, and serves the same analyses over LSP`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("plugin", "", "plugin schema file (overrides frost.toml)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0=config or default)")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel workers (0=auto)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "skip the compiled plugin disk cache")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
