package markup

import (
	"fmt"

	"frost/internal/diag"
	"frost/internal/source"
)

// Parse builds a Document from the file's content. Recoverable problems
// (unclosed elements, duplicate attributes, stray close tags) are
// reported through rep and recovery continues; a non-nil error means
// the input was malformed beyond recovery and no Document is produced.
func Parse(fs *source.FileSet, id source.FileID, rep diag.Reporter) (*Document, error) {
	file := fs.Get(id)
	p := &parser{
		fileID: id,
		src:    file.Content,
		rep:    rep,
		doc: &Document{
			fileID:  id,
			text:    file.Content,
			lineIdx: file.LineIdx,
		},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	fileID   source.FileID
	src      []byte
	pos      int
	rep      diag.Reporter
	doc      *Document
	stack    []NodeID
	trailing bool // text after the root already reported
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		if p.src[p.pos] != '<' {
			// Text and whitespace are positional data, not nodes.
			p.textByte()
			continue
		}
		if err := p.markupStart(); err != nil {
			return err
		}
	}
	p.closeDanglingAtEOF()
	return nil
}

// textByte consumes one content byte. Non-whitespace text at the top
// level after the root element has closed is dead content: report the
// whole run once.
func (p *parser) textByte() {
	c := p.src[p.pos]
	if !p.trailing && len(p.stack) == 0 && len(p.doc.roots) > 0 && !isSpaceByte(c) {
		start := p.pos
		end := start
		for end < len(p.src) && p.src[end] != '<' {
			end++
		}
		for end > start && isSpaceByte(p.src[end-1]) {
			end--
		}
		diag.Warning(p.rep, CodeContentAfterClose,
			source.Span{File: p.fileID, Start: uint32(start), End: uint32(end)},
			"text after the document root is ignored")
		p.trailing = true
	}
	p.pos++
}

func (p *parser) markupStart() error {
	start := p.pos
	switch {
	case p.lookingAt("<!--"):
		return p.comment(start)
	case p.lookingAt("<![CDATA["):
		return p.scanUntil(start, "]]>", "end of CDATA section")
	case p.lookingAt("<?"):
		return p.scanUntil(start, "?>", "end of processing instruction")
	case p.lookingAt("<!"):
		return p.scanUntil(start, ">", "end of declaration")
	case p.lookingAt("</"):
		return p.closeTag(start)
	default:
		return p.openTag(start)
	}
}

func (p *parser) lookingAt(s string) bool {
	if p.pos+len(s) > len(p.src) {
		return false
	}
	return string(p.src[p.pos:p.pos+len(s)]) == s
}

// scanUntil advances past the terminator or fails with an unrecoverable
// error describing what was expected.
func (p *parser) scanUntil(start int, term, expected string) error {
	for i := p.pos; i+len(term) <= len(p.src); i++ {
		if string(p.src[i:i+len(term)]) == term {
			p.pos = i + len(term)
			return nil
		}
	}
	return p.fail(start, expected, "end of input")
}

func (p *parser) comment(start int) error {
	if err := p.scanUntil(start, "-->", "end of comment"); err != nil {
		return err
	}
	body := string(p.src[start+4 : p.pos-3])
	line := lineOf(p.doc.lineIdx, uint32(start))
	if s, ok := parseSuppression(body, line); ok {
		p.doc.suppressions = append(p.doc.suppressions, s)
	}
	return nil
}

func (p *parser) openTag(start int) error {
	p.pos++ // consume '<'
	tag, err := p.name(start, "element name")
	if err != nil {
		return err
	}

	node := Node{
		ID:     NodeID(len(p.doc.nodes)),
		Tag:    tag,
		Parent: InvalidNodeID,
	}
	node.Span = source.Span{File: p.fileID, Start: uint32(start)}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return p.fail(start, "'>' or '/>'", "end of input")
		}
		c := p.src[p.pos]
		if c == '>' {
			p.pos++
			break
		}
		if c == '/' {
			if !p.lookingAt("/>") {
				return p.fail(p.pos, "'/>'", p.describeByte())
			}
			p.pos += 2
			node.Flags |= NodeSelfClosing
			break
		}
		attr, err := p.attribute()
		if err != nil {
			return err
		}
		if prev := findAttr(node.Attrs, attr.Name); prev != nil {
			// first occurrence wins in the model
			diag.Error(p.rep, CodeDuplicateAttr, attr.NameSpan,
				fmt.Sprintf("duplicate attribute %q on <%s>", attr.Name, tag))
			continue
		}
		node.Attrs = append(node.Attrs, attr)
	}

	node.OpenSpan = source.Span{File: p.fileID, Start: uint32(start), End: uint32(p.pos)}
	node.Span.End = uint32(p.pos)
	p.attach(&node)
	if node.Flags&NodeSelfClosing == 0 {
		p.stack = append(p.stack, node.ID)
	}
	return nil
}

func (p *parser) attach(node *Node) {
	if len(p.stack) > 0 {
		parentID := p.stack[len(p.stack)-1]
		node.Parent = parentID
		p.doc.nodes = append(p.doc.nodes, *node)
		parent := &p.doc.nodes[parentID]
		parent.Children = append(parent.Children, node.ID)
		return
	}
	p.doc.nodes = append(p.doc.nodes, *node)
	p.doc.roots = append(p.doc.roots, node.ID)
	if len(p.doc.roots) > 1 {
		diag.Warning(p.rep, CodeMultipleRoots, node.OpenSpan,
			fmt.Sprintf("element <%s> follows the document root", node.Tag))
	}
}

func (p *parser) closeTag(start int) error {
	p.pos += 2 // consume '</'
	tag, err := p.name(start, "element name")
	if err != nil {
		return err
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '>' {
		return p.fail(start, "'>'", p.describeByte())
	}
	p.pos++
	closeSpan := source.Span{File: p.fileID, Start: uint32(start), End: uint32(p.pos)}

	depth := p.findOpen(tag)
	if depth < 0 {
		diag.Error(p.rep, CodeStrayCloseTag, closeSpan,
			fmt.Sprintf("close tag </%s> has no matching open element", tag))
		return nil
	}

	// Close intermediates implicitly: they never saw their own close tag.
	for len(p.stack)-1 > depth {
		id := p.pop(uint32(start))
		n := p.doc.Node(id)
		n.Flags |= NodeSynthetic
		d := diag.NewError(CodeMismatchedClose, n.OpenSpan,
			fmt.Sprintf("element <%s> is closed implicitly by </%s>", n.Tag, tag)).
			WithNote(closeSpan, "closed here")
		if p.rep != nil {
			p.rep.Report(d)
		}
	}
	p.pop(uint32(p.pos))
	return nil
}

// pop removes the innermost open element and stamps its end offset.
func (p *parser) pop(end uint32) NodeID {
	id := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.doc.Node(id).Span.End = end
	return id
}

func (p *parser) findOpen(tag string) int {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.doc.Node(p.stack[i]).Tag == tag {
			return i
		}
	}
	return -1
}

func (p *parser) closeDanglingAtEOF() {
	end := uint32(len(p.src))
	for len(p.stack) > 0 {
		id := p.pop(end)
		n := p.doc.Node(id)
		n.Flags |= NodeSynthetic
		diag.Error(p.rep, CodeUnclosedElement, n.OpenSpan,
			fmt.Sprintf("element <%s> is never closed", n.Tag))
	}
}

func (p *parser) attribute() (Attr, error) {
	nameStart := p.pos
	name, err := p.name(nameStart, "attribute name")
	if err != nil {
		return Attr{}, err
	}
	nameSpan := source.Span{File: p.fileID, Start: uint32(nameStart), End: uint32(p.pos)}

	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '=' {
		return Attr{}, p.fail(nameStart, "'=' after attribute name", p.describeByte())
	}
	p.pos++
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '"' && p.src[p.pos] != '\'') {
		return Attr{}, p.fail(nameStart, "quoted attribute value", p.describeByte())
	}
	quote := p.src[p.pos]
	p.pos++
	valueStart := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		if p.src[p.pos] == '<' {
			return Attr{}, p.fail(valueStart, "closing quote", "'<'")
		}
		p.pos++
	}
	if p.pos >= len(p.src) {
		return Attr{}, p.fail(valueStart, "closing quote", "end of input")
	}
	valueSpan := source.Span{File: p.fileID, Start: uint32(valueStart), End: uint32(p.pos)}
	value := string(p.src[valueStart:p.pos])
	p.pos++ // consume quote
	return Attr{Name: name, Value: value, NameSpan: nameSpan, ValueSpan: valueSpan}, nil
}

func (p *parser) name(errAt int, expected string) (string, error) {
	start := p.pos
	if p.pos >= len(p.src) || !isNameStart(p.src[p.pos]) {
		return "", p.fail(errAt, expected, p.describeByte())
	}
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos]), nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpaceByte(p.src[p.pos]) {
		p.pos++
	}
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *parser) fail(at int, expected, found string) error {
	return &ParseError{
		Span:     source.Span{File: p.fileID, Start: uint32(at), End: uint32(p.pos)},
		Offset:   uint32(at),
		Expected: expected,
		Found:    found,
	}
}

func (p *parser) describeByte() string {
	if p.pos >= len(p.src) {
		return "end of input"
	}
	return fmt.Sprintf("%q", string(p.src[p.pos]))
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func findAttr(attrs []Attr, name string) *Attr {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}
