package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"frost/internal/session"
)

const serverName = "frost"

// Server adapts a session workspace to the Language Server Protocol.
// One server owns one workspace; documents arrive over didOpen and
// leave over didClose.
type Server struct {
	handler         *protocol.Handler
	ws              *session.Workspace
	diagnosticCache map[string][]protocol.Diagnostic
}

// NewServer builds a stdio-ready LSP server around a workspace.
func NewServer(ws *session.Workspace) *server.Server {
	ls := &Server{
		ws:              ws,
		diagnosticCache: make(map[string][]protocol.Diagnostic),
	}
	ls.handler = &protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
		TextDocumentDefinition: ls.textDocumentDefinition,
		TextDocumentReferences: ls.textDocumentReferences,
	}
	return server.NewServer(ls.handler, serverName, false)
}
