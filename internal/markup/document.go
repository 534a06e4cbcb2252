package markup

import "frost/internal/source"

// Document owns the node arena for one parsed source revision plus the
// raw text it was built from. It is immutable after Parse returns;
// concurrent readers need no locking.
type Document struct {
	fileID       source.FileID
	nodes        []Node
	roots        []NodeID
	text         []byte
	suppressions []Suppression
	lineIdx      []uint32
}

// FileID returns the source file this revision was parsed from.
func (d *Document) FileID() source.FileID {
	return d.fileID
}

// Text returns the exact bytes the document was parsed from.
// Re-serializing without formatting is byte-identical to the input.
func (d *Document) Text() []byte {
	return d.text
}

// Node resolves an id to its node in O(1). The id must come from this
// revision.
func (d *Document) Node(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[id]
}

// Roots returns the top-level elements in source order. Valid input has
// exactly one; recovery can leave several.
func (d *Document) Roots() []NodeID {
	return d.roots
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Nodes iterates the arena in document order (pre-order, since nodes
// are appended as their opening tags are seen).
func (d *Document) Nodes() []Node {
	return d.nodes
}

// NodeAt returns the innermost element enclosing the byte offset, or
// InvalidNodeID when the offset sits outside every element.
func (d *Document) NodeAt(off uint32) NodeID {
	best := InvalidNodeID
	for _, rootID := range d.roots {
		if n := d.Node(rootID); n != nil && n.Span.Contains(off) {
			best = rootID
			break
		}
	}
	if !best.IsValid() {
		return InvalidNodeID
	}
	for {
		n := d.Node(best)
		descended := false
		for _, childID := range n.Children {
			if c := d.Node(childID); c != nil && c.Span.Contains(off) {
				best = childID
				descended = true
				break
			}
		}
		if !descended {
			return best
		}
	}
}

// Suppressions returns the inline disable directives found in comments.
func (d *Document) Suppressions() []Suppression {
	return d.suppressions
}

// Suppressed reports whether a diagnostic with the given rule id and
// primary span is covered by an inline directive.
func (d *Document) Suppressed(rule string, primary source.Span) bool {
	if len(d.suppressions) == 0 {
		return false
	}
	line := lineOf(d.lineIdx, primary.Start)
	for i := range d.suppressions {
		s := &d.suppressions[i]
		if !s.Matches(rule) {
			continue
		}
		switch s.Kind {
		case SuppressFile:
			return true
		case SuppressLine:
			if s.Line == line {
				return true
			}
		case SuppressNextLine:
			if s.Line+1 == line {
				return true
			}
		}
	}
	return false
}

// lineOf returns the 1-based line for a byte offset given the offsets
// of '\n' bytes.
func lineOf(lineIdx []uint32, off uint32) uint32 {
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return uint32(lo + 1)
}
