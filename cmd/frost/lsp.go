package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"frost/internal/lsp"
	"frost/internal/schema"
	"frost/internal/session"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server over stdio",
	Long:  `Serve diagnostics, completion, hover, definition and references to an editor over the Language Server Protocol on stdin/stdout`,
	RunE:  runLsp,
}

func runLsp(cmd *cobra.Command, args []string) error {
	commonlog.Configure(1, nil)

	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	ws := session.New(schema.NewRegistry(inv.snapshot), inv.config)
	return lsp.NewServer(ws).RunStdio()
}
