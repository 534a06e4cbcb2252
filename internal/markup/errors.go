package markup

import (
	"fmt"

	"frost/internal/source"
)

// ParseError is an unrecoverable syntax failure: the parser could not
// build a usable tree past this point.
type ParseError struct {
	Span     source.Span
	Offset   uint32
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

// Diagnostic codes emitted by the parser for recoverable problems.
const (
	CodeUnclosedElement   = "parse/unclosed-element"
	CodeMismatchedClose   = "parse/mismatched-close"
	CodeStrayCloseTag     = "parse/stray-close-tag"
	CodeDuplicateAttr     = "parse/duplicate-attribute"
	CodeMultipleRoots     = "parse/multiple-roots"
	CodeContentAfterClose = "parse/content-after-close"
)
