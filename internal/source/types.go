package source

type (
	// FileID uniquely identifies a document within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about how a document was loaded.
	FileFlags uint8
)

const (
	// FileVirtual marks a document added from memory (editor buffer, stdin, test).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks a document whose UTF-8 BOM was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF marks a document whose CRLF line endings were normalized.
	FileNormalizedCRLF
)

// File holds the content and derived metadata for a single document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offsets of '\n', for line/col resolution
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a human-readable position, 1-based in both fields.
type LineCol struct {
	Line uint32
	Col  uint32
}
