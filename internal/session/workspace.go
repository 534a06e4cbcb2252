package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"frost/internal/complete"
	"frost/internal/diag"
	"frost/internal/lint"
	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/source"
	"frost/internal/symbols"
)

// Revision is one accepted state of a document. Seq increases per
// document; a query started against a revision keeps it for the whole
// query even if the document changes underneath.
type Revision struct {
	Seq        uint64
	FileID     source.FileID
	Doc        *markup.Document // last revision that parsed; lags Text on broken input
	Text       []byte           // the live buffer
	ParseDiags []diag.Diagnostic
	ParseErr   error // non-nil when Text is beyond recovery
}

// Workspace owns the open documents of one editing or batch session:
// their revisions, the shared file set and the symbol index. All
// methods are safe for concurrent use.
type Workspace struct {
	mu       sync.RWMutex
	fs       *source.FileSet
	registry *schema.Registry
	index    *symbols.Index
	docs     map[string]*Revision
	config   lint.Config
}

// New creates a workspace around a plugin registry.
func New(registry *schema.Registry, cfg lint.Config) *Workspace {
	return &Workspace{
		fs:       source.NewFileSet(),
		registry: registry,
		index:    symbols.NewIndex("workspace"),
		docs:     make(map[string]*Revision),
		config:   cfg,
	}
}

// FileSet exposes the shared file set for diagnostics rendering.
func (w *Workspace) FileSet() *source.FileSet {
	return w.fs
}

// Snapshot returns the schema snapshot queries should use. Hot reload
// swaps the registry; in-flight work keeps what it started with.
func (w *Workspace) Snapshot() *schema.Snapshot {
	return w.registry.Snapshot()
}

// OpenFile loads a document from disk into the workspace.
func (w *Workspace) OpenFile(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, err := w.fs.Load(path)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	file := w.fs.Get(id)
	w.accept(file.Path, id, file.Content)
	return nil
}

// UpdateText replaces a document's content with a new revision. Only
// this document is reparsed; the symbol index is updated with just its
// contribution. On an unrecoverable parse the previous parsed revision
// stays queryable and the error is recorded.
func (w *Workspace) UpdateText(path string, content []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.fs.AddVirtual(path, content)
	w.accept(w.fs.Get(id).Path, id, content)
}

func (w *Workspace) accept(path string, id source.FileID, content []byte) {
	prev := w.docs[path]
	rev := &Revision{FileID: id, Text: content}
	if prev != nil {
		rev.Seq = prev.Seq + 1
	}

	bag := diag.NewBag(w.limit())
	doc, err := markup.Parse(w.fs, id, &diag.BagReporter{Bag: bag})
	rev.ParseDiags = bag.Items()
	if err != nil {
		rev.ParseErr = err
		if prev != nil {
			rev.Doc = prev.Doc // keep the last good parse for queries
		}
		w.docs[path] = rev
		return
	}
	rev.Doc = doc
	w.docs[path] = rev
	w.index.Update(symbols.Collect(doc, w.registry.Snapshot(), path))
}

// Close drops a document and its index contribution.
func (w *Workspace) Close(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
	w.index.Remove(path)
}

// Revision returns the current revision of a document.
func (w *Workspace) Revision(path string) (*Revision, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rev, ok := w.docs[path]
	return rev, ok
}

// Paths lists the open documents in sorted order.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Lint evaluates one document: parse diagnostics plus rule results,
// sorted. A document stuck behind an unrecoverable parse reports its
// parse state only.
func (w *Workspace) Lint(ctx context.Context, path string) ([]diag.Diagnostic, error) {
	rev, ok := w.Revision(path)
	if !ok {
		return nil, fmt.Errorf("session: %s is not open", path)
	}
	return w.lintRevision(ctx, path, rev)
}

func (w *Workspace) limit() int {
	if w.config.MaxDiagnostics > 0 {
		return w.config.MaxDiagnostics
	}
	return 100
}

func (w *Workspace) lintRevision(ctx context.Context, path string, rev *Revision) ([]diag.Diagnostic, error) {
	bag := diag.NewBag(w.limit())
	for _, d := range rev.ParseDiags {
		bag.Add(d)
	}
	if rev.ParseErr == nil && rev.Doc != nil {
		results, err := lint.Evaluate(ctx, lint.Request{
			Doc:    rev.Doc,
			Snap:   w.registry.Snapshot(),
			Index:  w.index,
			Config: w.config,
			DocKey: path,
		})
		if err != nil {
			return nil, err
		}
		for _, d := range results {
			bag.Add(d)
		}
	}
	bag.Sort()
	return bag.Items(), nil
}

// LintAll evaluates every open document, at most jobs in parallel, and
// merges the results in path order. Cancellation abandons the batch.
func (w *Workspace) LintAll(ctx context.Context, jobs int) (*diag.Bag, error) {
	if jobs < 1 {
		jobs = 1
	}
	paths := w.Paths()
	results := make([][]diag.Diagnostic, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			rev, ok := w.Revision(path)
			if !ok {
				return nil
			}
			ds, err := w.lintRevision(ctx, path, rev)
			if err != nil {
				return err
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := diag.NewBag(w.limit() * max(len(paths), 1))
	for _, ds := range results {
		for _, d := range ds {
			merged.Add(d)
		}
	}
	merged.Sort()
	return merged, nil
}

// Completions answers a completion query against the live buffer and
// the last parsed revision.
func (w *Workspace) Completions(path string, off uint32) []complete.Item {
	rev, ok := w.Revision(path)
	if !ok {
		return nil
	}
	return complete.Completions(complete.Request{
		Text:  rev.Text,
		Doc:   rev.Doc,
		Snap:  w.registry.Snapshot(),
		Index: w.index,
		Off:   off,
	})
}

// Hover answers a hover query.
func (w *Workspace) Hover(path string, off uint32) (string, bool) {
	rev, ok := w.Revision(path)
	if !ok || rev.Doc == nil {
		return "", false
	}
	return complete.HoverMarkdown(rev.Doc, w.registry.Snapshot(), off)
}

// Definition resolves the identifier reference at the offset.
func (w *Workspace) Definition(path string, off uint32) ([]symbols.Occurrence, symbols.DefOutcome) {
	rev, ok := w.Revision(path)
	if !ok || rev.Doc == nil {
		return nil, symbols.DefNoTarget
	}
	return symbols.GoToDefinition(w.index, rev.Doc, w.registry.Snapshot(), off)
}

// References lists the uses of the identifier at the offset.
func (w *Workspace) References(path string, off uint32) ([]symbols.Occurrence, bool) {
	rev, ok := w.Revision(path)
	if !ok || rev.Doc == nil {
		return nil, false
	}
	return symbols.FindReferences(w.index, rev.Doc, w.registry.Snapshot(), off)
}

// Reload swaps in a freshly loaded plugin snapshot and reindexes every
// parsed document against it.
func (w *Workspace) Reload(snap *schema.Snapshot) {
	w.registry.Swap(snap)
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, rev := range w.docs {
		if rev.Doc != nil {
			w.index.Update(symbols.Collect(rev.Doc, snap, path))
		}
	}
}
