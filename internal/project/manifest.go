package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"frost/internal/diag"
	"frost/internal/lint"
	"frost/internal/schema"
)

// Manifest is a decoded frost.toml. Every section is optional; zero
// values defer to the plugin's own defaults.
type Manifest struct {
	Plugin PluginSection     `toml:"plugin"`
	Lint   LintSection       `toml:"lint"`
	Rules  map[string]string `toml:"rules"`
	Format FormatSection     `toml:"format"`

	// Dir is the directory the manifest was loaded from. Relative
	// paths inside the manifest resolve against it.
	Dir string `toml:"-"`
}

// PluginSection names the schema plugin the project lints against.
type PluginSection struct {
	Path string `toml:"path"`
}

// LintSection configures the evaluator.
type LintSection struct {
	Exclude        []string `toml:"exclude"`
	MaxDiagnostics int      `toml:"max-diagnostics"`
	FailOn         string   `toml:"fail-on"`
	Jobs           int      `toml:"jobs"`
	TargetVersion  int      `toml:"target-version"`
}

// FormatSection overrides the plugin's formatting preferences.
// Pointers distinguish "not set" from an explicit zero.
type FormatSection struct {
	IndentWidth       *int   `toml:"indent-width"`
	UseTabs           *bool  `toml:"use-tabs"`
	AttrWrapThreshold *int   `toml:"attr-wrap-threshold"`
	PrimaryAttr       string `toml:"primary-attr"`
}

// LoadManifest reads and decodes one frost.toml.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- path comes from project discovery
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	m.Dir = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) validate(path string) error {
	if m.Lint.FailOn != "" {
		if _, ok := diag.ParseSeverity(m.Lint.FailOn); !ok {
			return fmt.Errorf("project: %s: unknown fail-on value %q", path, m.Lint.FailOn)
		}
	}
	for id, sev := range m.Rules {
		if sev == "off" {
			continue
		}
		if _, ok := diag.ParseSeverity(sev); !ok {
			return fmt.Errorf("project: %s: rule %s: unknown severity %q", path, id, sev)
		}
	}
	return nil
}

// PluginPath resolves the plugin file against the manifest directory.
func (m *Manifest) PluginPath() string {
	if m.Plugin.Path == "" || filepath.IsAbs(m.Plugin.Path) {
		return m.Plugin.Path
	}
	return filepath.Join(m.Dir, m.Plugin.Path)
}

// LintConfig translates the manifest into an evaluator config.
func (m *Manifest) LintConfig() lint.Config {
	return lint.Config{
		Overrides:      m.Rules,
		Exclude:        m.Lint.Exclude,
		TargetVersion:  m.Lint.TargetVersion,
		MaxDiagnostics: m.Lint.MaxDiagnostics,
	}
}

// FormatPrefs layers manifest overrides on top of base preferences.
func (m *Manifest) FormatPrefs(base schema.FormatPrefs) schema.FormatPrefs {
	prefs := base
	if m.Format.IndentWidth != nil {
		prefs.IndentWidth = *m.Format.IndentWidth
	}
	if m.Format.UseTabs != nil {
		prefs.UseTabs = *m.Format.UseTabs
	}
	if m.Format.AttrWrapThreshold != nil {
		prefs.AttrWrapThreshold = *m.Format.AttrWrapThreshold
	}
	if m.Format.PrimaryAttr != "" {
		prefs.PrimaryAttr = m.Format.PrimaryAttr
	}
	return prefs
}

// FailSeverity returns the severity at which lint runs exit non-zero.
// The default fails on errors only.
func (m *Manifest) FailSeverity() diag.Severity {
	if m.Lint.FailOn == "" {
		return diag.SevError
	}
	sev, _ := diag.ParseSeverity(m.Lint.FailOn)
	return sev
}
