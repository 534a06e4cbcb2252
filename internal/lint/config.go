package lint

import (
	"path"
	"path/filepath"

	"frost/internal/diag"
	"frost/internal/schema"
)

// Config carries the per-run evaluation settings: severity overrides,
// excluded paths and the target schema version.
type Config struct {
	// Overrides maps rule id to "error", "warning", "info" or "off".
	// "off" disables the rule entirely; it produces nothing, not even
	// an informational diagnostic.
	Overrides map[string]string
	// Exclude holds path globs; documents matching any are skipped.
	Exclude []string
	// TargetVersion selects which schema version rules apply. Zero
	// means the plugin's own schema version.
	TargetVersion int
	// MaxDiagnostics bounds one run. Zero means the default of 100.
	MaxDiagnostics int
}

// severityFor resolves the effective severity of a rule id, honoring
// overrides. enabled is false for "off".
func (c Config) severityFor(id string, def diag.Severity) (sev diag.Severity, enabled bool) {
	o, ok := c.Overrides[id]
	if !ok {
		return def, true
	}
	if o == "off" {
		return def, false
	}
	if s, valid := diag.ParseSeverity(o); valid {
		return s, true
	}
	return def, true
}

// Excluded reports whether a document path matches any exclude glob.
// Globs match against the full slash-separated path and its basename.
func (c Config) Excluded(docPath string) bool {
	p := filepath.ToSlash(docPath)
	for _, glob := range c.Exclude {
		if ok, err := path.Match(glob, p); err == nil && ok {
			return true
		}
		if ok, err := path.Match(glob, path.Base(p)); err == nil && ok {
			return true
		}
	}
	return false
}

// targetVersion resolves the effective schema version for a snapshot.
func (c Config) targetVersion(snap *schema.Snapshot) int {
	if c.TargetVersion > 0 {
		return c.TargetVersion
	}
	return snap.SchemaVersion
}

func (c Config) maxDiagnostics() int {
	if c.MaxDiagnostics > 0 {
		return c.MaxDiagnostics
	}
	return 100
}
