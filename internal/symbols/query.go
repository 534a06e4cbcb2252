package symbols

import (
	"frost/internal/markup"
	"frost/internal/schema"
)

// DefOutcome distinguishes the three answers a go-to-definition query
// can give. "Not found" (a reference whose target does not exist) is
// not the same thing as "no target" (the position is not on a
// reference at all).
type DefOutcome uint8

const (
	// DefFound: at least one matching definition exists.
	DefFound DefOutcome = iota
	// DefNotFound: the position is on a reference, but nothing defines
	// the identifier.
	DefNotFound
	// DefNoTarget: the position is not on a reference.
	DefNoTarget
)

// GoToDefinition resolves the reference under the byte offset.
func GoToDefinition(ix *Index, doc *markup.Document, snap *schema.Snapshot, off uint32) ([]Occurrence, DefOutcome) {
	kind, ident, ok := referenceAt(doc, snap, off)
	if !ok {
		return nil, DefNoTarget
	}
	defs := ix.Definitions(kind, ident)
	if len(defs) == 0 {
		return nil, DefNotFound
	}
	return defs, DefFound
}

// FindReferences returns the referrers of the identifier under the
// offset. The offset may sit on a definition or on a reference. The
// empty result is a valid answer.
func FindReferences(ix *Index, doc *markup.Document, snap *schema.Snapshot, off uint32) ([]Occurrence, bool) {
	kind, ident, ok := symbolAt(doc, snap, off)
	if !ok {
		return nil, false
	}
	return ix.References(kind, ident), true
}

// referenceAt returns the (kind, ident) of the referencing attribute
// value under the offset.
func referenceAt(doc *markup.Document, snap *schema.Snapshot, off uint32) (string, string, bool) {
	n, attr := attrAt(doc, off)
	if attr == nil {
		return "", "", false
	}
	el := snap.Element(n.Tag)
	if el == nil {
		return "", "", false
	}
	def := el.Attr(attr.Name)
	if def == nil || def.RefTo == "" {
		return "", "", false
	}
	return def.RefTo, attr.Value, true
}

// symbolAt is like referenceAt but also accepts defining attributes,
// answering "who references this definition".
func symbolAt(doc *markup.Document, snap *schema.Snapshot, off uint32) (string, string, bool) {
	n, attr := attrAt(doc, off)
	if attr == nil {
		return "", "", false
	}
	el := snap.Element(n.Tag)
	if el == nil {
		return "", "", false
	}
	def := el.Attr(attr.Name)
	if def == nil {
		return "", "", false
	}
	if def.RefTo != "" {
		return def.RefTo, attr.Value, true
	}
	if def.Defining {
		return n.Tag, attr.Value, true
	}
	return "", "", false
}

// attrAt finds the attribute whose value span contains the offset.
func attrAt(doc *markup.Document, off uint32) (*markup.Node, *markup.Attr) {
	id := doc.NodeAt(off)
	if !id.IsValid() {
		return nil, nil
	}
	n := doc.Node(id)
	for i := range n.Attrs {
		a := &n.Attrs[i]
		if a.ValueSpan.Contains(off) || a.ValueSpan.End == off {
			return n, a
		}
	}
	return n, nil
}
