package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"frost/internal/source"
)

// URIToPath converts an LSP URI to a filesystem path.
func URIToPath(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	path = strings.ReplaceAll(path, "%20", " ")
	return path
}

// PathToURI converts a filesystem path to an LSP URI.
func PathToURI(path string) string {
	uri := strings.ReplaceAll(path, " ", "%20")
	return "file://" + uri
}

// offsetAt converts a 0-based LSP position to a byte offset in content.
// Character counts UTF-16 code units, the protocol's default encoding.
// A position past the end of a line clamps to the line end; a line past
// the end of the buffer clamps to the buffer end.
func offsetAt(content []byte, pos protocol.Position) uint32 {
	off := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := indexByteFrom(content, off, '\n')
		if nl < 0 {
			return uint32(len(content))
		}
		off = nl + 1
	}
	lineEnd := indexByteFrom(content, off, '\n')
	if lineEnd < 0 {
		lineEnd = len(content)
	}
	return uint32(off + utf16UnitsToBytes(content[off:lineEnd], pos.Character))
}

// utf16UnitsToBytes returns the byte length of the line prefix spanning
// units UTF-16 code units, clamped to the whole line. A position inside
// a surrogate pair snaps back to the rune start.
func utf16UnitsToBytes(line []byte, units uint32) int {
	rem := int(units)
	i := 0
	for i < len(line) && rem > 0 {
		r, size := utf8.DecodeRune(line[i:])
		rem -= utf16.RuneLen(r)
		if rem < 0 {
			break
		}
		i += size
	}
	return i
}

// bytesToUTF16Units returns the UTF-16 code unit count of the line
// prefix ending at byteCol, clamped to the whole line.
func bytesToUTF16Units(line string, byteCol int) uint32 {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	units := 0
	for i := 0; i < byteCol; {
		r, size := utf8.DecodeRuneInString(line[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return uint32(units)
}

func indexByteFrom(content []byte, from int, b byte) int {
	for i := from; i < len(content); i++ {
		if content[i] == b {
			return i
		}
	}
	return -1
}

// toRange converts a span to an LSP range using the file set's line
// index. LineCol columns are 1-based byte counts; protocol characters
// are 0-based UTF-16 code units.
func toRange(fs *source.FileSet, span source.Span) protocol.Range {
	start, end := fs.Resolve(span)
	f := fs.Get(span.File)
	return protocol.Range{
		Start: protocol.Position{
			Line:      start.Line - 1,
			Character: bytesToUTF16Units(f.Line(start.Line), int(start.Col-1)),
		},
		End: protocol.Position{
			Line:      end.Line - 1,
			Character: bytesToUTF16Units(f.Line(end.Line), int(end.Col-1)),
		},
	}
}
