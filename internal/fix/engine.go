package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"frost/internal/diag"
	"frost/internal/source"
)

// ErrNoFixes is returned when nothing was applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines which fixes are selected.
type ApplyMode uint8

const (
	// ApplyModeSafe applies every fix marked safe. The default.
	ApplyModeSafe ApplyMode = iota
	// ApplyModeAll applies unsafe fixes too.
	ApplyModeAll
	// ApplyModeID applies the single fix with the given id.
	ApplyModeID
)

// ApplyOptions configures fix selection.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
}

// AppliedFix records a fix that made it into the output.
type AppliedFix struct {
	ID        string
	Title     string
	Code      diag.Code
	Path      string
	EditCount int
}

// SkippedFix records a fix that was not applied and why.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// Result aggregates one Apply run. Buffers holds the rewritten content
// of every touched file; callers decide whether to write it back.
type Result struct {
	Applied []AppliedFix
	Skipped []SkippedFix
	Buffers map[source.FileID][]byte
}

type candidate struct {
	diag  *diag.Diagnostic
	fix   *diag.Fix
	id    string
	order int
}

// Apply runs the diagnose-then-fix second pass: candidates are sorted
// by file and span, fixes whose edits overlap an already-applied edit
// are skipped within the run, and every edit's OldText guard is checked
// against the current buffer before it lands. Diagnostics are expected
// from a completed evaluation pass; Apply never re-evaluates.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*Result, error) {
	result := &Result{Buffers: make(map[source.FileID][]byte)}

	candidates := gather(diagnostics)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected := make([]candidate, 0, len(candidates))
	for _, cand := range candidates {
		switch {
		case opts.Mode == ApplyModeID && cand.id != opts.TargetID:
			continue
		case opts.Mode == ApplyModeSafe && !cand.fix.Safe:
			result.Skipped = append(result.Skipped, SkippedFix{
				ID: cand.id, Title: cand.fix.Title, Reason: "not safe to auto-apply",
			})
			continue
		}
		selected = append(selected, cand)
	}
	if opts.Mode == ApplyModeID && len(selected) == 0 {
		result.Skipped = append(result.Skipped, SkippedFix{
			ID: opts.TargetID, Reason: "fix id not found",
		})
		return result, ErrNoFixes
	}

	applied := make(map[source.FileID][]diag.FixEdit)
	for _, cand := range selected {
		if reason := apply(fs, result, applied, cand); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{
				ID: cand.id, Title: cand.fix.Title, Reason: reason,
			})
		}
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// WriteBack persists the rewritten buffers, preserving each file's
// mode. Virtual files are silently kept in memory.
func WriteBack(fs *source.FileSet, result *Result) error {
	ids := make([]source.FileID, 0, len(result.Buffers))
	for id := range result.Buffers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		file := fs.Get(id)
		if file.Flags&source.FileVirtual != 0 {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(file.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(file.Path, result.Buffers[id], mode); err != nil {
			return fmt.Errorf("fix: write %s: %w", file.Path, err)
		}
	}
	return nil
}

func gather(diagnostics []diag.Diagnostic) []candidate {
	var cands []candidate
	order := 0
	for i := range diagnostics {
		d := &diagnostics[i]
		for j := range d.Fixes {
			f := &d.Fixes[j]
			if len(f.Edits) == 0 {
				continue
			}
			cands = append(cands, candidate{
				diag:  d,
				fix:   f,
				id:    fmt.Sprintf("%s-%d-%d-%d", d.Code, d.Primary.File, d.Primary.Start, j),
				order: order,
			})
			order++
		}
	}
	return cands
}

func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		di, dj := cands[i].diag, cands[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return cands[i].order < cands[j].order
	})
}

// apply lands one fix, or returns the reason it could not.
func apply(fs *source.FileSet, result *Result, applied map[source.FileID][]diag.FixEdit, cand candidate) string {
	// all-or-nothing per fix: verify every edit first
	for _, edit := range cand.fix.Edits {
		if conflicts(applied[edit.Span.File], edit) {
			return "overlaps a previously applied edit"
		}
	}

	byFile := make(map[source.FileID][]diag.FixEdit)
	for _, edit := range cand.fix.Edits {
		byFile[edit.Span.File] = append(byFile[edit.Span.File], edit)
	}

	staged := make(map[source.FileID][]byte, len(byFile))
	total := 0
	for fileID, edits := range byFile {
		working := result.Buffers[fileID]
		if working == nil {
			working = append([]byte(nil), fs.Get(fileID).Content...)
		} else {
			working = append([]byte(nil), working...)
		}

		// back to front, so earlier offsets stay valid
		sort.SliceStable(edits, func(i, j int) bool {
			return edits[i].Span.Start > edits[j].Span.Start
		})
		for _, edit := range edits {
			start := int(edit.Span.Start) + delta(applied[fileID], int(edit.Span.Start))
			end := int(edit.Span.End) + delta(applied[fileID], int(edit.Span.End))
			if start < 0 || end < start || end > len(working) {
				return "edit span out of range"
			}
			if edit.OldText != "" && string(working[start:end]) != edit.OldText {
				return "text changed since the diagnostic was produced"
			}
			suffix := append([]byte(nil), working[end:]...)
			working = append(append(working[:start], edit.NewText...), suffix...)
		}
		staged[fileID] = working
		total += len(edits)
	}

	for fileID, buf := range staged {
		result.Buffers[fileID] = buf
		applied[fileID] = append(applied[fileID], byFile[fileID]...)
	}
	result.Applied = append(result.Applied, AppliedFix{
		ID:        cand.id,
		Title:     cand.fix.Title,
		Code:      cand.diag.Code,
		Path:      fs.Get(cand.diag.Primary.File).Path,
		EditCount: total,
	})
	return ""
}

func conflicts(existing []diag.FixEdit, edit diag.FixEdit) bool {
	for _, prev := range existing {
		if spansOverlap(prev.Span, edit.Span) {
			return true
		}
	}
	return false
}

// spansOverlap treats spans as half-open intervals. Two insertions at
// the same point do not conflict; an insertion inside a replaced range
// does.
func spansOverlap(a, b source.Span) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// delta shifts an original offset by the net growth of edits already
// applied before it in the same file.
func delta(edits []diag.FixEdit, pos int) int {
	d := 0
	for _, e := range edits {
		if int(e.Span.End) <= pos {
			d += len(e.NewText) - int(e.Span.End-e.Span.Start)
		}
	}
	return d
}
