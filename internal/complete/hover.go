package complete

import (
	"strings"

	"frost/internal/markup"
	"frost/internal/schema"
)

// Hover returns the schema description for the element or attribute
// under the offset, verbatim from the snapshot. The second result is
// false over free text, unknown tags or anything the schema has no
// description for. Synthetically closed elements hover like any other.
func Hover(doc *markup.Document, snap *schema.Snapshot, off uint32) (string, bool) {
	id := doc.NodeAt(off)
	if !id.IsValid() {
		return "", false
	}
	n := doc.Node(id)
	el := snap.Element(n.Tag)
	if el == nil {
		return "", false
	}

	for i := range n.Attrs {
		attr := &n.Attrs[i]
		if attr.NameSpan.Contains(off) || attr.ValueSpan.Contains(off) {
			def := el.Attr(attr.Name)
			if def == nil || def.Description == "" {
				return "", false
			}
			return def.Description, true
		}
	}

	// the tag name region of the opening tag
	if onTagName(n, off) {
		if el.Description == "" {
			return "", false
		}
		return el.Description, true
	}
	return "", false
}

func onTagName(n *markup.Node, off uint32) bool {
	start := n.OpenSpan.Start
	end := start + uint32(len(n.Tag)) + 1 // '<' plus the tag
	return off >= start && off <= end
}

// HoverMarkdown renders a fuller hover card: the description plus the
// element's required attributes and allowed children, for clients that
// display markdown.
func HoverMarkdown(doc *markup.Document, snap *schema.Snapshot, off uint32) (string, bool) {
	id := doc.NodeAt(off)
	if !id.IsValid() {
		return "", false
	}
	n := doc.Node(id)
	el := snap.Element(n.Tag)
	if el == nil {
		return "", false
	}

	if desc, ok := Hover(doc, snap, off); ok && !onTagName(n, off) {
		return desc, true
	}
	if !onTagName(n, off) {
		return "", false
	}

	var b strings.Builder
	b.WriteString("## " + el.Tag + "\n\n")
	if el.Description != "" {
		b.WriteString(el.Description + "\n\n")
	}
	var required []string
	for i := range el.Attrs {
		if el.Attrs[i].Required {
			required = append(required, el.Attrs[i].Name)
		}
	}
	if len(required) > 0 {
		b.WriteString("**Required attributes:** " + strings.Join(required, ", ") + "\n\n")
	}
	if len(el.Children) > 0 {
		tags := make([]string, len(el.Children))
		for i := range el.Children {
			tags[i] = el.Children[i].Tag
		}
		b.WriteString("**Children:** " + strings.Join(tags, ", ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), true
}
