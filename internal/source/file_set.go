package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns a collection of documents and resolves spans to
// line/column positions. A path can be added more than once; the index
// always points at the latest revision while older FileIDs stay valid.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// SetBaseDir sets the directory used when rendering relative paths.
func (fs *FileSet) SetBaseDir(dir string) {
	fs.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// Add stores normalized content under path and returns a fresh FileID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// Load reads a document from disk, normalizes BOM/CRLF, and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory document (editor buffer, stdin, test).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for id. The id must come from this FileSet.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// Latest returns the most recent FileID registered for path.
func (fs *FileSet) Latest(path string) (FileID, bool) {
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// Len returns the number of file revisions held by the set.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into start and end line/column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Pos converts a single byte offset in file id to a line/column position.
func (fs *FileSet) Pos(id FileID, off uint32) LineCol {
	return toLineCol(fs.files[id].LineIdx, off)
}

// Line returns the text of the 1-based line number, without the newline.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lines, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index overflow: %w", err))
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content size overflow: %w", err))
	}

	var start uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lines:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	end := size
	if lineNum-1 < lines {
		end = f.LineIdx[lineNum-1]
	}
	if start >= size {
		return ""
	}
	if end > size {
		end = size
	}
	return string(f.Content[start:end])
}

// RelPath renders the file path relative to baseDir when possible.
func (f *File) RelPath(baseDir string) string {
	if baseDir == "" {
		return f.Path
	}
	if rel, err := filepath.Rel(baseDir, f.Path); err == nil {
		return filepath.ToSlash(rel)
	}
	return f.Path
}
