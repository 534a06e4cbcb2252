package diag

import (
	"fmt"
	"sort"
)

// Bag accumulates diagnostics for one evaluation run, bounded by max.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics.
func NewBag(max int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add appends a diagnostic. Returns false once the limit is reached.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the internal slice. Callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// HasErrors reports whether any diagnostic is at error level.
func (b *Bag) HasErrors() bool {
	return b.HasAtLeast(SevError)
}

// HasAtLeast reports whether any diagnostic meets the severity threshold.
func (b *Bag) HasAtLeast(sev Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

// Merge appends all diagnostics from other, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if total := len(b.items) + len(other.items); total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, span start, code, then span end.
// Evaluation order is irrelevant after this: output is deterministic for
// the same (document, rule set) pair.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Primary.End < dj.Primary.End
	})
}

// Dedup removes diagnostics sharing a code and primary span.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	kept := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s", d.Code, d.Primary)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}
	b.items = kept
}
