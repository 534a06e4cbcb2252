package symbols

import (
	"frost/internal/markup"
	"frost/internal/schema"
)

// Collect walks one document and gathers its symbol contribution
// according to the schema's defining/referencing attribute marks.
func Collect(doc *markup.Document, snap *schema.Snapshot, docKey string) Contribution {
	c := Contribution{Doc: docKey}
	for i := range doc.Nodes() {
		n := &doc.Nodes()[i]
		el := snap.Element(n.Tag)
		if el == nil {
			continue
		}
		for j := range n.Attrs {
			attr := &n.Attrs[j]
			def := el.Attr(attr.Name)
			if def == nil || attr.Value == "" {
				continue
			}
			if def.Defining {
				c.Defs = append(c.Defs, Symbol{
					Kind:  n.Tag,
					Ident: attr.Value,
					Node:  n.ID,
					Span:  attr.ValueSpan,
				})
			}
			if def.RefTo != "" {
				c.Refs = append(c.Refs, Symbol{
					Kind:  def.RefTo,
					Ident: attr.Value,
					Node:  n.ID,
					Span:  attr.ValueSpan,
				})
			}
		}
	}
	return c
}
