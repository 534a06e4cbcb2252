package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"frost/internal/markup"
	"frost/internal/source"
)

// CheckDocumentInvariants runs the structural invariants every parsed
// document must satisfy:
// 1) every node span is non-empty and within content bounds
// 2) every child span is contained in its parent span and child
//    parent links point back correctly
// 3) a node's open span sits inside its full span
// 4) roots have no parent
func CheckDocumentInvariants(doc *markup.Document, sf *source.File) error {
	if doc == nil || sf == nil {
		return fmt.Errorf("nil document or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	for _, n := range doc.Nodes() {
		if n.Span.End <= n.Span.Start {
			return fmt.Errorf("node %d %q: empty span %v", n.ID, n.Tag, n.Span)
		}
		if n.Span.File != sf.ID {
			return fmt.Errorf("node %d %q: span file mismatch: got=%d want=%d", n.ID, n.Tag, n.Span.File, sf.ID)
		}
		if n.Span.End > lenContent {
			return fmt.Errorf("node %d %q: span end beyond content: %d > %d", n.ID, n.Tag, n.Span.End, lenContent)
		}
		if !n.Span.Covers(n.OpenSpan) {
			return fmt.Errorf("node %d %q: open span %v outside span %v", n.ID, n.Tag, n.OpenSpan, n.Span)
		}
		for _, a := range n.Attrs {
			if !n.OpenSpan.Covers(a.NameSpan) || !n.OpenSpan.Covers(a.ValueSpan) {
				return fmt.Errorf("node %d %q: attribute %q outside open tag", n.ID, n.Tag, a.Name)
			}
		}
		for _, childID := range n.Children {
			child := doc.Node(childID)
			if child == nil {
				return fmt.Errorf("node %d %q: missing child %d", n.ID, n.Tag, childID)
			}
			if child.Parent != n.ID {
				return fmt.Errorf("node %d %q: child %d points at parent %d", n.ID, n.Tag, childID, child.Parent)
			}
			if !n.Span.Covers(child.Span) {
				return fmt.Errorf("node %d %q: child span %v outside parent span %v", n.ID, n.Tag, child.Span, n.Span)
			}
		}
	}

	for _, rootID := range doc.Roots() {
		root := doc.Node(rootID)
		if root == nil {
			return fmt.Errorf("missing root %d", rootID)
		}
		if root.Parent.IsValid() {
			return fmt.Errorf("root %d %q has parent %d", rootID, root.Tag, root.Parent)
		}
	}
	return nil
}
