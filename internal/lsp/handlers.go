package lsp

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"frost/internal/complete"
	"frost/internal/diag"
	"frost/internal/symbols"
)

func (s *Server) initialize(
	ctx *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"<", " ", `"`, "="},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
	}, nil
}

func (s *Server) initialized(
	ctx *glsp.Context,
	params *protocol.InitializedParams,
) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(
	ctx *glsp.Context,
	params *protocol.SetTraceParams,
) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(
	ctx *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	path := URIToPath(uri)
	s.ws.UpdateText(path, []byte(params.TextDocument.Text))
	s.publishDiagnostics(ctx, uri, path)
	return nil
}

func (s *Server) textDocumentDidChange(
	ctx *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	path := URIToPath(uri)

	rev, ok := s.ws.Revision(path)
	if !ok {
		return fmt.Errorf("document not open: %s", path)
	}
	text := rev.Text

	for _, rawChange := range params.ContentChanges {
		switch change := rawChange.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = []byte(change.Text)
		case protocol.TextDocumentContentChangeEvent:
			start := offsetAt(text, change.Range.Start)
			end := offsetAt(text, change.Range.End)
			next := make([]byte, 0, len(text)+len(change.Text))
			next = append(next, text[:start]...)
			next = append(next, change.Text...)
			next = append(next, text[end:]...)
			text = next
		default:
			return fmt.Errorf("unsupported change event %T", rawChange)
		}
	}

	s.ws.UpdateText(path, text)
	s.publishDiagnostics(ctx, uri, path)
	return nil
}

func (s *Server) textDocumentDidClose(
	ctx *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	s.ws.Close(URIToPath(uri))
	delete(s.diagnosticCache, uri)
	ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publishDiagnostics relints one document and pushes the result, unless
// it matches what the client already has.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri string, path string) {
	ds, err := s.ws.Lint(context.Background(), path)
	if err != nil {
		return
	}

	fs := s.ws.FileSet()
	source := serverName
	diagnostics := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		severity := toSeverity(d.Severity)
		code := protocol.IntegerOrString{Value: string(d.Code)}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    toRange(fs, d.Primary),
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}

	if previous, exists := s.diagnosticCache[uri]; exists {
		if reflect.DeepEqual(previous, diagnostics) {
			return
		}
	}
	s.diagnosticCache[uri] = diagnostics
	ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func toSeverity(sev diag.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diag.SevError:
		return protocol.DiagnosticSeverityError
	case diag.SevWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func (s *Server) textDocumentCompletion(
	ctx *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	path := URIToPath(params.TextDocument.URI)
	rev, ok := s.ws.Revision(path)
	if !ok {
		return nil, nil
	}

	items := s.ws.Completions(path, offsetAt(rev.Text, params.Position))
	out := make([]protocol.CompletionItem, 0, len(items))
	for i, item := range items {
		kind := toCompletionKind(item.Kind)
		insert := item.InsertText
		sortText := fmt.Sprintf("%04d", i)
		ci := protocol.CompletionItem{
			Label:      item.Label,
			Kind:       &kind,
			InsertText: &insert,
			SortText:   &sortText,
		}
		if item.Detail != "" {
			detail := item.Detail
			ci.Detail = &detail
		}
		if item.Kind == complete.ItemSnippet {
			format := protocol.InsertTextFormatSnippet
			ci.InsertTextFormat = &format
		}
		out = append(out, ci)
	}
	return out, nil
}

func toCompletionKind(kind complete.ItemKind) protocol.CompletionItemKind {
	switch kind {
	case complete.ItemElement:
		return protocol.CompletionItemKindClass
	case complete.ItemAttribute:
		return protocol.CompletionItemKindProperty
	case complete.ItemValue:
		return protocol.CompletionItemKindValue
	case complete.ItemSnippet:
		return protocol.CompletionItemKindSnippet
	default:
		return protocol.CompletionItemKindText
	}
}

func (s *Server) textDocumentHover(
	ctx *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	path := URIToPath(params.TextDocument.URI)
	rev, ok := s.ws.Revision(path)
	if !ok {
		return nil, nil
	}

	md, ok := s.ws.Hover(path, offsetAt(rev.Text, params.Position))
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: md,
		},
	}, nil
}

func (s *Server) textDocumentDefinition(
	ctx *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	path := URIToPath(params.TextDocument.URI)
	rev, ok := s.ws.Revision(path)
	if !ok {
		return nil, nil
	}

	defs, outcome := s.ws.Definition(path, offsetAt(rev.Text, params.Position))
	if outcome != symbols.DefFound {
		return nil, nil
	}
	return s.toLocations(defs), nil
}

func (s *Server) textDocumentReferences(
	ctx *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	path := URIToPath(params.TextDocument.URI)
	rev, ok := s.ws.Revision(path)
	if !ok {
		return nil, nil
	}

	refs, ok := s.ws.References(path, offsetAt(rev.Text, params.Position))
	if !ok {
		return nil, nil
	}
	return s.toLocations(refs), nil
}

func (s *Server) toLocations(occs []symbols.Occurrence) []protocol.Location {
	fs := s.ws.FileSet()
	locations := make([]protocol.Location, len(occs))
	for i, occ := range occs {
		locations[i] = protocol.Location{
			URI:   PathToURI(occ.Doc),
			Range: toRange(fs, occ.Span),
		}
	}
	return locations
}
