// Package session holds the long-lived state of an interactive or
// batch run: open documents and their revisions, the shared file set,
// the symbol index and the active plugin registry. Everything editor
// facing (the LSP server, watch mode) and batch facing (lint, fix)
// goes through a Workspace rather than touching the engine packages
// directly, so both sides see the same revision semantics.
package session
