// Package lsp exposes the workspace over the Language Server Protocol:
// document sync, published diagnostics, completion, hover, definition
// and references. Transport and dispatch come from glsp; everything of
// substance is delegated to the session workspace.
package lsp
