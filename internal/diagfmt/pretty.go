package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"frost/internal/diag"
	"frost/internal/source"
)

// Pretty renders diagnostics for a terminal. For each one it prints
// the header line
//
//	<path>:<line>:<col>: <severity>[<code>]: <message>
//
// followed by the source line with a caret run under the span, then
// any notes in the same shape. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(&d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	p.header(d.Primary, p.severityLabel(d.Severity), string(d.Code), d.Message)
	p.sourceLine(d.Primary, p.caretColor(d.Severity))

	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			p.header(note.Span, p.noteLabel(), "", note.Msg)
			p.sourceLine(note.Span, p.noteColor())
		}
	}
	if p.opts.ShowFixes {
		for _, fix := range d.Fixes {
			tag := "suggested fix"
			if fix.Safe {
				tag = "fix"
			}
			fmt.Fprintf(p.w, "  %s: %s\n", p.colorize(tag, color.FgCyan), fix.Title)
		}
	}
}

func (p *prettyPrinter) header(span source.Span, sev, code, msg string) {
	start, _ := p.fs.Resolve(span)
	loc := fmt.Sprintf("%s:%d:%d", p.path(span.File), start.Line, start.Col)
	if code != "" {
		fmt.Fprintf(p.w, "%s: %s[%s]: %s\n", loc, sev, code, msg)
		return
	}
	fmt.Fprintf(p.w, "%s: %s: %s\n", loc, sev, msg)
}

// sourceLine prints the offending line with a caret run underneath.
// Column math uses display width, so tabs and wide runes keep the
// carets aligned.
func (p *prettyPrinter) sourceLine(span source.Span, attr color.Attribute) {
	file := p.fs.Get(span.File)
	start, end := p.fs.Resolve(span)
	line := file.Line(start.Line)
	if line == "" {
		return
	}

	fmt.Fprintf(p.w, "  %s\n", strings.ReplaceAll(line, "\t", "    "))

	colStart := int(start.Col) - 1
	if colStart > len(line) {
		colStart = len(line)
	}
	pad := runewidth.StringWidth(strings.ReplaceAll(line[:colStart], "\t", "    "))

	spanLen := 1
	if end.Line == start.Line && end.Col > start.Col {
		colEnd := int(end.Col) - 1
		if colEnd > len(line) {
			colEnd = len(line)
		}
		spanLen = runewidth.StringWidth(line[colStart:colEnd])
	} else if end.Line > start.Line {
		spanLen = runewidth.StringWidth(line[colStart:])
	}
	if spanLen < 1 {
		spanLen = 1
	}

	carets := "^" + strings.Repeat("~", spanLen-1)
	fmt.Fprintf(p.w, "  %s%s\n", strings.Repeat(" ", pad), p.colorize(carets, attr))
}

func (p *prettyPrinter) path(id source.FileID) string {
	f := p.fs.Get(id)
	switch p.opts.PathMode {
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeRelative, PathModeAuto:
		return f.RelPath(p.fs.BaseDir())
	default:
		return f.Path
	}
}

func (p *prettyPrinter) severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.colorize("error", color.FgRed)
	case diag.SevWarning:
		return p.colorize("warning", color.FgYellow)
	default:
		return p.colorize("info", color.FgBlue)
	}
}

func (p *prettyPrinter) noteLabel() string {
	return p.colorize("note", color.FgCyan)
}

func (p *prettyPrinter) caretColor(sev diag.Severity) color.Attribute {
	switch sev {
	case diag.SevError:
		return color.FgRed
	case diag.SevWarning:
		return color.FgYellow
	default:
		return color.FgBlue
	}
}

func (p *prettyPrinter) noteColor() color.Attribute {
	return color.FgCyan
}

func (p *prettyPrinter) colorize(s string, attr color.Attribute) string {
	if !p.opts.Color {
		return s
	}
	return color.New(attr).Sprint(s)
}

// Summary prints the closing "N errors, M warnings" line.
func Summary(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	errors, warnings := 0, 0
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errors++
		case diag.SevWarning:
			warnings++
		}
	}
	if errors == 0 && warnings == 0 {
		return
	}
	parts := make([]string, 0, 2)
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", errors, plural(errors, "error")))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", warnings, plural(warnings, "warning")))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
