package schema

import (
	"sort"

	"frost/internal/diag"
)

// AttrDef describes one attribute allowed on an element.
type AttrDef struct {
	Name        string
	Required    bool
	Description string
	Enum        []string // allowed values; empty means free-form
	Defining    bool     // the value declares an identifier for this element
	RefTo       string   // element tag whose identifier this value references
}

// ChildSpec is one allowed child tag with optional cardinality bounds.
// Max == 0 means unbounded.
type ChildSpec struct {
	Tag string
	Min int
	Max int
}

// ElementDef is the schema entry for one tag: where it may appear, what
// it may contain, and which attributes it carries.
type ElementDef struct {
	Tag         string
	Description string
	Parents     []string
	Children    []ChildSpec
	Attrs       []AttrDef
}

// Child returns the child spec for tag, or nil.
func (e *ElementDef) Child(tag string) *ChildSpec {
	for i := range e.Children {
		if e.Children[i].Tag == tag {
			return &e.Children[i]
		}
	}
	return nil
}

// Attr returns the attribute definition for name, or nil.
func (e *ElementDef) Attr(name string) *AttrDef {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			return &e.Attrs[i]
		}
	}
	return nil
}

// DefiningAttr returns the attribute that declares this element's
// identifier, or nil when the element defines none.
func (e *ElementDef) DefiningAttr() *AttrDef {
	for i := range e.Attrs {
		if e.Attrs[i].Defining {
			return &e.Attrs[i]
		}
	}
	return nil
}

// FixSpec describes an auto-fix attached to a rule.
type FixSpec struct {
	Action string // add-attribute | set-attribute | remove-attribute
	Attr   string
	Value  string
	Title  string
}

// RuleDef is one declarative lint rule.
type RuleDef struct {
	ID         string
	Severity   diag.Severity
	AppliesTo  string // tag, or "*" for any element
	Cond       Condition
	Message    string
	MinVersion int // lowest target schema version the rule applies to; 0 = all
	Fix        *FixSpec
}

// RuleIssue records a rule that failed to compile. Reported once per
// load; the rule is skipped for the whole run.
type RuleIssue struct {
	ID  string
	Msg string
}

// Snippet is a completion template offered at element-start positions.
type Snippet struct {
	Name        string
	Prefix      string
	Body        string
	Description string
}

// FormatPrefs are the formatting preferences shipped with a plugin.
type FormatPrefs struct {
	IndentWidth       int
	UseTabs           bool
	AttrWrapThreshold int    // wrap attributes onto separate lines past this count
	PrimaryAttr       string // sorted first; remaining attributes go alphabetically
}

// DefaultFormatPrefs is used when a plugin ships no [format] table.
func DefaultFormatPrefs() FormatPrefs {
	return FormatPrefs{IndentWidth: 2, AttrWrapThreshold: 4, PrimaryAttr: "Id"}
}

// Snapshot is one immutable, versioned plugin data set. All engine
// operations take the snapshot they should run against; a reload swaps
// the registry pointer and never mutates a snapshot in place.
type Snapshot struct {
	Version       string
	SchemaVersion int
	Elements      map[string]*ElementDef
	Rules         map[string]*RuleDef
	Snippets      []Snippet
	Format        FormatPrefs
	Issues        []RuleIssue

	ruleOrder []string
}

// RuleOrder returns rule ids in ascending order for deterministic
// evaluation.
func (s *Snapshot) RuleOrder() []string {
	return s.ruleOrder
}

// Element returns the definition for a tag, or nil.
func (s *Snapshot) Element(tag string) *ElementDef {
	return s.Elements[tag]
}

func (s *Snapshot) buildOrder() {
	s.ruleOrder = make([]string, 0, len(s.Rules))
	for id := range s.Rules {
		s.ruleOrder = append(s.ruleOrder, id)
	}
	sort.Strings(s.ruleOrder)
}
