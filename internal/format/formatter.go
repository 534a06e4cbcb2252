package format

import (
	"sort"
	"strings"

	"frost/internal/markup"
	"frost/internal/schema"
)

// Format renders a document into canonical form: one indentation step
// per nesting level, the primary attribute first and the rest in
// alphabetical order, attribute-per-line layout once an element carries
// enough of them. Child order, attribute values and comment text pass
// through untouched. The output is a fixed point: formatting it again
// yields the same bytes.
func Format(doc *markup.Document, prefs schema.FormatPrefs) []byte {
	prefs = withDefaults(prefs)
	text := doc.Text()
	p := &printer{
		doc:   doc,
		text:  text,
		prefs: prefs,
		w:     NewWriter(len(text)+64, prefs.IndentWidth, prefs.UseTabs),
	}

	prev := 0
	for _, rootID := range doc.Roots() {
		root := doc.Node(rootID)
		p.gap(text[prev:root.Span.Start])
		p.element(rootID)
		prev = int(root.Span.End)
	}
	p.gap(text[prev:])
	p.w.Newline()
	return p.w.Bytes()
}

func withDefaults(prefs schema.FormatPrefs) schema.FormatPrefs {
	def := schema.DefaultFormatPrefs()
	if prefs.IndentWidth <= 0 {
		prefs.IndentWidth = def.IndentWidth
	}
	if prefs.AttrWrapThreshold <= 0 {
		prefs.AttrWrapThreshold = def.AttrWrapThreshold
	}
	return prefs
}

type printer struct {
	doc   *markup.Document
	text  []byte
	prefs schema.FormatPrefs
	w     *Writer
}

func (p *printer) element(id markup.NodeID) {
	n := p.doc.Node(id)
	innerStart := int(n.OpenSpan.End)
	innerEnd := p.closeTagStart(n)

	inner := ""
	if innerStart < innerEnd {
		inner = strings.TrimSpace(string(p.text[innerStart:innerEnd]))
	}
	selfClose := n.Flags&markup.NodeSelfClosing != 0 ||
		(len(n.Children) == 0 && inner == "")

	p.openTag(n, selfClose)
	if selfClose {
		p.w.Newline()
		return
	}

	if len(n.Children) == 0 {
		// text-only element
		if !strings.Contains(inner, "\n") {
			p.w.WriteString(inner)
			p.w.Line("</" + n.Tag + ">")
			return
		}
		p.w.Newline()
		p.w.IndentPush()
		p.gap(p.text[innerStart:innerEnd])
		p.w.IndentPop()
		p.w.Line("</" + n.Tag + ">")
		return
	}

	p.w.Newline()
	p.w.IndentPush()
	prev := innerStart
	for _, childID := range n.Children {
		child := p.doc.Node(childID)
		p.gap(p.text[prev:child.Span.Start])
		p.element(childID)
		prev = int(child.Span.End)
	}
	if prev < innerEnd {
		p.gap(p.text[prev:innerEnd])
	}
	p.w.IndentPop()
	p.w.Line("</" + n.Tag + ">")
}

// closeTagStart returns the offset of the '<' of the element's closing
// tag, or the span end for elements the parser closed synthetically.
func (p *printer) closeTagStart(n *markup.Node) int {
	if n.Flags&(markup.NodeSelfClosing|markup.NodeSynthetic) != 0 {
		return int(n.Span.End)
	}
	rel := strings.LastIndexByte(string(p.text[n.OpenSpan.End:n.Span.End]), '<')
	if rel < 0 {
		return int(n.Span.End)
	}
	return int(n.OpenSpan.End) + rel
}

func (p *printer) openTag(n *markup.Node, selfClose bool) {
	attrs := p.orderedAttrs(n)
	closer := ">"
	if selfClose {
		closer = "/>"
	}

	if len(attrs) < p.prefs.AttrWrapThreshold {
		p.w.WriteString("<" + n.Tag)
		for _, a := range attrs {
			p.w.WriteString(" ")
			p.writeAttr(a)
		}
		p.w.WriteString(closer)
		return
	}

	p.w.WriteString("<" + n.Tag)
	p.w.IndentPush()
	for _, a := range attrs {
		p.w.Newline()
		p.writeAttr(a)
	}
	p.w.IndentPop()
	p.w.WriteString(closer)
}

func (p *printer) writeAttr(a *markup.Attr) {
	// canonical double quotes; fall back to single when the raw value
	// contains one
	if strings.Contains(a.Value, `"`) {
		p.w.WriteString(a.Name + "='" + a.Value + "'")
		return
	}
	p.w.WriteString(a.Name + `="` + a.Value + `"`)
}

// orderedAttrs returns pointers into the node's attribute slice with
// the primary attribute first and the remainder sorted by name.
func (p *printer) orderedAttrs(n *markup.Node) []*markup.Attr {
	out := make([]*markup.Attr, 0, len(n.Attrs))
	var primary *markup.Attr
	for i := range n.Attrs {
		a := &n.Attrs[i]
		if primary == nil && p.prefs.PrimaryAttr != "" && a.Name == p.prefs.PrimaryAttr {
			primary = a
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if primary != nil {
		out = append([]*markup.Attr{primary}, out...)
	}
	return out
}

// gap re-emits the non-element content between two nodes: comments,
// processing instructions, stray text. Each line lands on its own
// output line at the current indent.
func (p *printer) gap(raw []byte) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			p.w.Line(line)
		}
	}
}
