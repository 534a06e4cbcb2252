// Package diag defines the diagnostic model shared by the parser, the
// rule evaluator and the front ends: severities, codes, spans with
// secondary notes, and suggested fixes. A Bag collects diagnostics for
// one run and sorts them into the stable document order the CLI and the
// LSP server both rely on.
package diag
