package symbols

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"

	"frost/internal/markup"
	"frost/internal/source"
)

// Occurrence is one place an identifier appears: a defining attribute
// value or a referencing one.
type Occurrence struct {
	Doc  string // document key (path or URI)
	Node markup.NodeID
	Span source.Span // the attribute value, inside the quotes
}

// Contribution is everything one document revision adds to an index.
// Replacing a document means removing its old contribution and
// inserting the new one.
type Contribution struct {
	Doc  string
	Defs []Symbol
	Refs []Symbol
}

// Symbol is one identifier occurrence tagged with its kind (the
// defining element's tag).
type Symbol struct {
	Kind  string
	Ident string
	Node  markup.NodeID
	Span  source.Span
}

type symbolKey struct {
	Kind  string
	Ident string
}

// Index is the definition/reference table for one identifier
// namespace. All methods are safe for concurrent use; the remove/insert
// pair of an Update runs under the index lock, so readers in other
// namespaces are never blocked.
type Index struct {
	mu        sync.RWMutex
	namespace string
	defs      map[symbolKey][]Occurrence
	refs      map[symbolKey][]Occurrence
	byDoc     map[string]Contribution
}

// NewIndex creates an empty index for a namespace.
func NewIndex(namespace string) *Index {
	return &Index{
		namespace: namespace,
		defs:      make(map[symbolKey][]Occurrence),
		refs:      make(map[symbolKey][]Occurrence),
		byDoc:     make(map[string]Contribution),
	}
}

// Namespace returns the identifier scope this index covers.
func (ix *Index) Namespace() string {
	return ix.namespace
}

func keyOf(kind, ident string) symbolKey {
	return symbolKey{Kind: kind, Ident: norm.NFC.String(ident)}
}

// Update replaces a document's contribution atomically.
func (ix *Index) Update(c Contribution) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(c.Doc)
	for _, s := range c.Defs {
		k := keyOf(s.Kind, s.Ident)
		ix.defs[k] = append(ix.defs[k], Occurrence{Doc: c.Doc, Node: s.Node, Span: s.Span})
	}
	for _, s := range c.Refs {
		k := keyOf(s.Kind, s.Ident)
		ix.refs[k] = append(ix.refs[k], Occurrence{Doc: c.Doc, Node: s.Node, Span: s.Span})
	}
	ix.byDoc[c.Doc] = c
}

// Remove deletes a document's contribution, e.g. when it is closed.
func (ix *Index) Remove(doc string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(doc)
	delete(ix.byDoc, doc)
}

func (ix *Index) removeLocked(doc string) {
	old, ok := ix.byDoc[doc]
	if !ok {
		return
	}
	for _, s := range old.Defs {
		k := keyOf(s.Kind, s.Ident)
		ix.defs[k] = dropDoc(ix.defs[k], doc)
		if len(ix.defs[k]) == 0 {
			delete(ix.defs, k)
		}
	}
	for _, s := range old.Refs {
		k := keyOf(s.Kind, s.Ident)
		ix.refs[k] = dropDoc(ix.refs[k], doc)
		if len(ix.refs[k]) == 0 {
			delete(ix.refs, k)
		}
	}
}

func dropDoc(occs []Occurrence, doc string) []Occurrence {
	kept := occs[:0]
	for _, o := range occs {
		if o.Doc != doc {
			kept = append(kept, o)
		}
	}
	return kept
}

// Definitions returns every recorded definition of an identifier,
// sorted by document then span. Duplicates are all kept; reporting them
// is the rule evaluator's job, not the indexer's.
func (ix *Index) Definitions(kind, ident string) []Occurrence {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedCopy(ix.defs[keyOf(kind, ident)])
}

// References returns every recorded reference. A known identifier with
// no referrers yields an empty slice, not an error.
func (ix *Index) References(kind, ident string) []Occurrence {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedCopy(ix.refs[keyOf(kind, ident)])
}

// HasDefinition reports whether any definition exists for the
// identifier of the given kind.
func (ix *Index) HasDefinition(kind, ident string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.defs[keyOf(kind, ident)]) > 0
}

// Idents lists the defined identifiers of a kind in sorted order,
// for completion of reference attributes.
func (ix *Index) Idents(kind string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []string
	for k := range ix.defs {
		if k.Kind == kind {
			out = append(out, k.Ident)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(occs []Occurrence) []Occurrence {
	out := make([]Occurrence, len(occs))
	copy(out, occs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Doc != out[j].Doc {
			return out[i].Doc < out[j].Doc
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

// Table holds one Index per namespace. Namespaces are independent:
// updating documents in one never blocks queries in another.
type Table struct {
	mu      sync.Mutex
	indexes map[string]*Index
}

// NewTable creates an empty namespace table.
func NewTable() *Table {
	return &Table{indexes: make(map[string]*Index)}
}

// Namespace returns the index for a namespace, creating it on first use.
func (t *Table) Namespace(name string) *Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	ix, ok := t.indexes[name]
	if !ok {
		ix = NewIndex(name)
		t.indexes[name] = ix
	}
	return ix
}
