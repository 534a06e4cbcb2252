package markup

import (
	"math"

	"frost/internal/source"
)

// NodeID is a revision-local index into a Document's node arena.
type NodeID uint32

// InvalidNodeID marks "no node": a root's parent, or a failed lookup.
const InvalidNodeID NodeID = math.MaxUint32

// IsValid reports whether the id refers to a node.
func (id NodeID) IsValid() bool {
	return id != InvalidNodeID
}

// NodeFlags encode parser-derived properties of a node.
type NodeFlags uint8

const (
	// NodeSynthetic marks an element the parser closed implicitly
	// during error recovery. Checks about missing children or content
	// are suppressed for such nodes.
	NodeSynthetic NodeFlags = 1 << iota
	// NodeSelfClosing marks an element written as <Tag/>.
	NodeSelfClosing
)

// Attr is one name="value" pair on an element. Names keep their prefix
// verbatim; no namespace resolution happens at parse time.
type Attr struct {
	Name      string
	Value     string
	NameSpan  source.Span
	ValueSpan source.Span // inside the quotes
}

// Node is one element instance. Children are in source order; the
// parent/child relation mirrors source nesting exactly.
type Node struct {
	ID       NodeID
	Tag      string
	Attrs    []Attr
	Children []NodeID
	Parent   NodeID
	Span     source.Span // opening '<' through closing '>'
	OpenSpan source.Span // the opening tag only
	Flags    NodeFlags
}

// Attr returns the value of the named attribute. Lookup is case-sensitive.
func (n *Node) Attr(name string) (string, bool) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Value, true
		}
	}
	return "", false
}

// AttrRef returns the attribute record itself, or nil.
func (n *Node) AttrRef(name string) *Attr {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return &n.Attrs[i]
		}
	}
	return nil
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// Synthetic reports whether the parser closed this element implicitly.
func (n *Node) Synthetic() bool {
	return n.Flags&NodeSynthetic != 0
}
