package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prefers a path relative to the working tree and
	// falls back to the recorded one.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures machine-readable output.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // output truncation, diagnostics stay intact
	IncludeNotes     bool
	IncludeFixes     bool
}

// SarifRunMeta provides tool metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
