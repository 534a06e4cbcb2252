package diag

import (
	"frost/internal/source"
)

// Code identifies the rule or engine check that produced a diagnostic,
// e.g. "parse/unclosed-element" or "component-requires-guid".
type Code string

// Note attaches a secondary span with an explanatory message.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single text replacement inside one file.
type FixEdit struct {
	Span    source.Span
	NewText string
	OldText string // guard: skipped when the current text differs
}

// Fix is a suggested repair consisting of one or more edits.
type Fix struct {
	Title string
	Safe  bool // safe fixes may be applied without confirmation
	Edits []FixEdit
}

// Diagnostic is one finding against a document. Produced fresh on every
// evaluation and never mutated afterwards.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// New constructs a diagnostic with the required fields.
func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// NewError is shorthand for a SevError diagnostic.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// NewWarning is shorthand for a SevWarning diagnostic.
func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// WithNote returns a copy with one more secondary span attached.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithFix returns a copy with a suggested fix attached.
func (d Diagnostic) WithFix(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes, fix)
	return d
}
