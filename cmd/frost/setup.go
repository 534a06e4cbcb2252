package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"frost/internal/lint"
	"frost/internal/project"
	"frost/internal/schema"
)

// sourceExtensions are picked up when a directory is given.
var sourceExtensions = map[string]bool{
	".wxs": true,
	".wxi": true,
}

// invocation bundles everything a command needs from frost.toml and
// the plugin schema.
type invocation struct {
	manifest *project.Manifest
	snapshot *schema.Snapshot
	config   lint.Config
}

// loadInvocation discovers frost.toml, loads the plugin snapshot
// (through the disk cache unless disabled) and folds persistent flags
// into the lint config.
func loadInvocation(cmd *cobra.Command) (*invocation, error) {
	manifest := &project.Manifest{}
	if path, ok, err := project.FindManifest("."); err != nil {
		return nil, err
	} else if ok {
		manifest, err = project.LoadManifest(path)
		if err != nil {
			return nil, err
		}
	}

	pluginPath, err := cmd.Root().PersistentFlags().GetString("plugin")
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin flag: %w", err)
	}
	if pluginPath == "" {
		pluginPath = manifest.PluginPath()
	}
	if pluginPath == "" {
		return nil, fmt.Errorf("no plugin schema configured: set [plugin] path in %s or pass --plugin", project.ManifestName)
	}

	noCache, err := cmd.Root().PersistentFlags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	var snap *schema.Snapshot
	if noCache {
		snap, err = schema.Load(pluginPath)
	} else {
		var cache *schema.DiskCache
		cache, err = schema.OpenDiskCache("frost")
		if err != nil {
			// a missing cache dir never blocks the run
			cache = nil
		}
		snap, err = schema.LoadCached(pluginPath, cache)
	}
	if err != nil {
		return nil, err
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if !quiet {
		for _, issue := range snap.Issues {
			fmt.Fprintf(os.Stderr, "warning: rule %s skipped: %s\n", issue.ID, issue.Msg)
		}
	}

	cfg := manifest.LintConfig()
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		cfg.MaxDiagnostics = maxDiagnostics
	}

	return &invocation{manifest: manifest, snapshot: snap, config: cfg}, nil
}

// collectInputs expands the argument list into a sorted set of source
// files. Directories are walked for known extensions; explicitly named
// files are taken as-is.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if sourceExtensions[filepath.Ext(path)] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files found under %v", args)
	}
	sort.Strings(files)
	return files, nil
}

// useColor resolves the --color flag against the terminal.
func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout)), nil
}

// jobsFor resolves the worker count, honoring the manifest when the
// flag is unset.
func jobsFor(cmd *cobra.Command, manifest *project.Manifest) (int, error) {
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return 0, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = manifest.Lint.Jobs
	}
	if jobs <= 0 {
		jobs = 4
	}
	return jobs, nil
}
