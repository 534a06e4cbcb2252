package complete

import "strings"

// CtxKind classifies where in the markup the cursor sits. Detection
// runs over the raw text so it works mid-keystroke, when the document
// around the cursor is not yet well formed.
type CtxKind uint8

const (
	CtxUnknown CtxKind = iota
	// CtxElementStart: in element content or right after '<'; child
	// tags and snippets complete here.
	CtxElementStart
	// CtxAttrName: inside an opening tag, typing an attribute name.
	CtxAttrName
	// CtxAttrValue: inside the quotes (or right after '=').
	CtxAttrValue
	// CtxClosingTag: inside </...>; nothing completes here.
	CtxClosingTag
)

// Context is the parsed cursor environment.
type Context struct {
	Kind     CtxKind
	Parent   string   // enclosing element tag, element-start only
	Element  string   // tag of the opening tag the cursor is inside
	Attr     string   // attribute whose value is being typed
	Existing []string // attribute names already present in the tag
	Prefix   string   // partial word before the cursor
}

// DetectContext classifies the byte offset within text. off is clamped
// to the text length.
func DetectContext(text []byte, off int) Context {
	if off < 0 {
		off = 0
	}
	if off > len(text) {
		off = len(text)
	}
	before := string(text[:off])

	lastOpen := strings.LastIndexByte(before, '<')
	lastClose := strings.LastIndexByte(before, '>')
	inTag := lastOpen >= 0 && lastOpen > lastClose

	if !inTag {
		after := before
		if lastClose >= 0 {
			after = before[lastClose+1:]
		}
		prefix := strings.TrimPrefix(partialWord(after), "<")
		parent := parentElement(before)
		if parent == "" && strings.TrimSpace(after) != "" && !strings.Contains(after, "<") {
			// free text outside any element
			return Context{Kind: CtxUnknown}
		}
		return Context{Kind: CtxElementStart, Parent: parent, Prefix: prefix}
	}

	tag := before[lastOpen+1:]
	switch {
	case strings.HasPrefix(tag, "/"):
		return Context{Kind: CtxClosingTag}
	case strings.HasPrefix(tag, "?"), strings.HasPrefix(tag, "!"):
		return Context{Kind: CtxUnknown}
	}

	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return Context{
			Kind:   CtxElementStart,
			Parent: parentElement(before[:lastOpen]),
		}
	}

	ctx := Context{
		Kind:     CtxAttrName,
		Element:  fields[0],
		Existing: existingAttrs(tag),
	}
	if len(fields) == 1 && !strings.ContainsAny(tag, " \t\n") {
		// still typing the tag name itself
		return Context{
			Kind:   CtxElementStart,
			Parent: parentElement(before[:lastOpen]),
			Prefix: fields[0],
		}
	}

	eq := strings.LastIndexByte(tag, '=')
	if eq < 0 {
		ctx.Prefix = partialWord(tag)
		return ctx
	}
	afterEq := strings.TrimLeft(tag[eq+1:], " \t")
	switch {
	case afterEq == "":
		ctx.Kind = CtxAttrValue
		ctx.Attr = lastField(tag[:eq])
	case afterEq[0] == '"' || afterEq[0] == '\'':
		quote := afterEq[0]
		value := afterEq[1:]
		if i := strings.IndexByte(value, quote); i < 0 {
			// unterminated: cursor is in the value
			ctx.Kind = CtxAttrValue
			ctx.Attr = lastField(tag[:eq])
			ctx.Prefix = value
		} else if rest := value[i+1:]; strings.TrimSpace(rest) != "" {
			ctx.Prefix = partialWord(tag)
		}
	default:
		ctx.Prefix = partialWord(tag)
	}
	return ctx
}

// partialWord returns the trailing run of non-boundary characters. A
// trailing separator means the word before the cursor is complete, so
// the partial word is empty.
func partialWord(s string) string {
	if i := strings.LastIndexAny(s, " \t\n<>\"'"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// existingAttrs collects attribute names already written in an opening
// tag fragment, skipping quoted values so spaces inside them do not
// split words.
func existingAttrs(tag string) []string {
	var names []string
	inValue := false
	for _, part := range strings.Split(tag, `"`) {
		if inValue {
			inValue = false
			continue
		}
		for _, word := range strings.Fields(part) {
			if i := strings.IndexByte(word, '='); i > 0 {
				names = append(names, word[:i])
			}
		}
		inValue = true
	}
	return names
}

// parentElement finds the innermost unclosed element before the cursor
// by replaying open and close tags against a stack.
func parentElement(before string) string {
	var stack []string
	inTag := false
	closing := false
	var cur strings.Builder

	for i := 0; i < len(before); i++ {
		c := before[i]
		switch {
		case c == '<':
			inTag = true
			closing = false
			cur.Reset()
			if i+1 < len(before) && before[i+1] == '/' {
				closing = true
				i++
			}
		case c == '>' && inTag:
			raw := cur.String()
			selfClosing := strings.HasSuffix(raw, "/")
			raw = strings.TrimSuffix(raw, "/")
			name := ""
			if f := strings.Fields(raw); len(f) > 0 {
				name = f[0]
			}
			if name != "" && name[0] != '?' && name[0] != '!' {
				switch {
				case closing:
					for j := len(stack) - 1; j >= 0; j-- {
						if stack[j] == name {
							stack = stack[:j]
							break
						}
					}
				case !selfClosing:
					stack = append(stack, name)
				}
			}
			inTag = false
		case inTag:
			cur.WriteByte(c)
		}
	}
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}
