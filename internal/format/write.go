package format

// Writer accumulates formatted output and manages indentation. Indent
// is emitted lazily at the first write on a fresh line, so pushing and
// popping around empty regions costs nothing.
type Writer struct {
	buf         []byte
	indentWidth int
	useTabs     bool
	indentLevel int
	atLineStart bool
}

// NewWriter creates a writer sized for roughly the input length.
func NewWriter(capacity, indentWidth int, useTabs bool) *Writer {
	return &Writer{
		buf:         make([]byte, 0, capacity),
		indentWidth: indentWidth,
		useTabs:     useTabs,
		atLineStart: true,
	}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) writeIndent() {
	if !w.atLineStart {
		return
	}
	if w.useTabs {
		for range w.indentLevel {
			w.buf = append(w.buf, '\t')
		}
	} else {
		for range w.indentLevel * w.indentWidth {
			w.buf = append(w.buf, ' ')
		}
	}
	w.atLineStart = false
}

// WriteString writes s, emitting pending indentation first.
func (w *Writer) WriteString(s string) {
	if s == "" {
		return
	}
	w.writeIndent()
	w.buf = append(w.buf, s...)
	w.atLineStart = s[len(s)-1] == '\n'
}

// Line writes s followed by a newline.
func (w *Writer) Line(s string) {
	w.WriteString(s)
	w.Newline()
}

// Newline terminates the current line unless it already is.
func (w *Writer) Newline() {
	if len(w.buf) > 0 && w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
	w.atLineStart = true
}

// IndentPush increases the indentation level.
func (w *Writer) IndentPush() {
	w.indentLevel++
}

// IndentPop decreases the indentation level.
func (w *Writer) IndentPop() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}
