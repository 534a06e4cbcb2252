package schema

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"frost/internal/diag"
)

// Load reads a plugin data file from disk and compiles it into a
// Snapshot. The load is atomic: any structural error fails the whole
// load and no partial snapshot is ever produced. Per-rule condition
// errors do not fail the load; the offending rules are skipped and
// recorded in Snapshot.Issues exactly once.
func Load(path string) (*Snapshot, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	snap, err := LoadBytes(path, data)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadBytes compiles plugin data from memory. name is used in errors.
func LoadBytes(name string, data []byte) (*Snapshot, error) {
	var raw rawPlugin
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", name, err)
	}
	if strings.TrimSpace(raw.Version) == "" {
		return nil, fmt.Errorf("schema: %s: missing version", name)
	}

	snap := &Snapshot{
		Version:       raw.Version,
		SchemaVersion: raw.SchemaVersion,
		Elements:      make(map[string]*ElementDef, len(raw.Elements)),
		Rules:         make(map[string]*RuleDef, len(raw.Rules)),
		Format:        DefaultFormatPrefs(),
	}

	if raw.Format != nil {
		applyFormat(&snap.Format, raw.Format)
	}

	for i := range raw.Elements {
		el, err := compileElement(&raw.Elements[i])
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", name, err)
		}
		if _, dup := snap.Elements[el.Tag]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate element definition for <%s>", name, el.Tag)
		}
		snap.Elements[el.Tag] = el
	}

	if err := checkReferences(snap); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", name, err)
	}

	for i := range raw.Rules {
		rr := &raw.Rules[i]
		if rr.ID == "" {
			return nil, fmt.Errorf("schema: %s: rule without an id", name)
		}
		if _, dup := snap.Rules[rr.ID]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate rule id %q", name, rr.ID)
		}
		rule, err := compileRule(rr)
		if err != nil {
			// A broken rule is a configuration error scoped to that
			// rule alone: record it, skip it, keep loading.
			snap.Issues = append(snap.Issues, RuleIssue{ID: rr.ID, Msg: err.Error()})
			continue
		}
		snap.Rules[rule.ID] = rule
	}

	for i := range raw.Snippets {
		rs := &raw.Snippets[i]
		snap.Snippets = append(snap.Snippets, Snippet{
			Name:        rs.Name,
			Prefix:      rs.Prefix,
			Body:        rs.Body,
			Description: rs.Description,
		})
	}

	snap.buildOrder()
	return snap, nil
}

type rawPlugin struct {
	Version       string       `toml:"version"`
	SchemaVersion int          `toml:"schema-version"`
	Format        *rawFormat   `toml:"format"`
	Elements      []rawElement `toml:"element"`
	Rules         []rawRule    `toml:"rule"`
	Snippets      []rawSnippet `toml:"snippet"`
}

type rawFormat struct {
	IndentWidth       int    `toml:"indent-width"`
	UseTabs           bool   `toml:"use-tabs"`
	AttrWrapThreshold int    `toml:"attr-wrap-threshold"`
	PrimaryAttr       string `toml:"primary-attribute"`
}

type rawElement struct {
	Tag         string     `toml:"tag"`
	Description string     `toml:"description"`
	Parents     []string   `toml:"parents"`
	Children    []rawChild `toml:"child"`
	Attrs       []rawAttr  `toml:"attr"`
}

type rawChild struct {
	Tag string `toml:"tag"`
	Min int    `toml:"min"`
	Max int    `toml:"max"`
}

type rawAttr struct {
	Name        string   `toml:"name"`
	Required    bool     `toml:"required"`
	Description string   `toml:"description"`
	Enum        []string `toml:"enum"`
	Defining    bool     `toml:"defining"`
	RefTo       string   `toml:"ref-to"`
}

type rawRule struct {
	ID         string       `toml:"id"`
	Severity   string       `toml:"severity"`
	AppliesTo  string       `toml:"applies-to"`
	Condition  rawCondition `toml:"condition"`
	Message    string       `toml:"message"`
	MinVersion int          `toml:"min-version"`
	Fix        *rawFix      `toml:"fix"`
}

type rawCondition struct {
	Kind    string `toml:"kind"`
	Attr    string `toml:"attr"`
	Tag     string `toml:"tag"`
	Op      string `toml:"op"`
	Value   int    `toml:"value"`
	Expr    string `toml:"expr"`
	RefKind string `toml:"ref-kind"`
}

type rawFix struct {
	Action string `toml:"action"`
	Attr   string `toml:"attr"`
	Value  string `toml:"value"`
	Title  string `toml:"title"`
}

type rawSnippet struct {
	Name        string `toml:"name"`
	Prefix      string `toml:"prefix"`
	Body        string `toml:"body"`
	Description string `toml:"description"`
}

func applyFormat(prefs *FormatPrefs, raw *rawFormat) {
	if raw.IndentWidth > 0 {
		prefs.IndentWidth = raw.IndentWidth
	}
	prefs.UseTabs = raw.UseTabs
	if raw.AttrWrapThreshold > 0 {
		prefs.AttrWrapThreshold = raw.AttrWrapThreshold
	}
	if raw.PrimaryAttr != "" {
		prefs.PrimaryAttr = raw.PrimaryAttr
	}
}

func compileElement(raw *rawElement) (*ElementDef, error) {
	if raw.Tag == "" {
		return nil, fmt.Errorf("element definition without a tag")
	}
	el := &ElementDef{
		Tag:         raw.Tag,
		Description: raw.Description,
		Parents:     raw.Parents,
	}
	for _, c := range raw.Children {
		if c.Tag == "" {
			return nil, fmt.Errorf("<%s>: child spec without a tag", raw.Tag)
		}
		if c.Max != 0 && c.Max < c.Min {
			return nil, fmt.Errorf("<%s>: child <%s> has max %d below min %d", raw.Tag, c.Tag, c.Max, c.Min)
		}
		el.Children = append(el.Children, ChildSpec{Tag: c.Tag, Min: c.Min, Max: c.Max})
	}
	defining := 0
	for _, a := range raw.Attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("<%s>: attribute definition without a name", raw.Tag)
		}
		if a.Defining {
			defining++
		}
		el.Attrs = append(el.Attrs, AttrDef{
			Name:        a.Name,
			Required:    a.Required,
			Description: a.Description,
			Enum:        a.Enum,
			Defining:    a.Defining,
			RefTo:       a.RefTo,
		})
	}
	if defining > 1 {
		return nil, fmt.Errorf("<%s>: more than one defining attribute", raw.Tag)
	}
	return el, nil
}

// checkReferences verifies that every ref-to target names a defined
// element that actually declares an identifier.
func checkReferences(snap *Snapshot) error {
	for _, el := range snap.Elements {
		for i := range el.Attrs {
			ref := el.Attrs[i].RefTo
			if ref == "" {
				continue
			}
			target, ok := snap.Elements[ref]
			if !ok {
				return fmt.Errorf("<%s> %s references unknown element <%s>", el.Tag, el.Attrs[i].Name, ref)
			}
			if target.DefiningAttr() == nil {
				return fmt.Errorf("<%s> %s references <%s> which defines no identifier", el.Tag, el.Attrs[i].Name, ref)
			}
		}
	}
	return nil
}

func compileRule(raw *rawRule) (*RuleDef, error) {
	sevName := raw.Severity
	if sevName == "" {
		sevName = "warning"
	}
	sev, ok := diag.ParseSeverity(sevName)
	if !ok {
		return nil, fmt.Errorf("unknown severity %q", raw.Severity)
	}
	if raw.Message == "" {
		return nil, fmt.Errorf("rule has no message")
	}
	cond, err := compileCondition(&raw.Condition)
	if err != nil {
		return nil, err
	}
	appliesTo := raw.AppliesTo
	if appliesTo == "" {
		appliesTo = "*"
	}
	rule := &RuleDef{
		ID:         raw.ID,
		Severity:   sev,
		AppliesTo:  appliesTo,
		Cond:       cond,
		Message:    raw.Message,
		MinVersion: raw.MinVersion,
	}
	if raw.Fix != nil {
		switch raw.Fix.Action {
		case "add-attribute", "set-attribute", "remove-attribute":
		default:
			return nil, fmt.Errorf("unknown fix action %q", raw.Fix.Action)
		}
		rule.Fix = &FixSpec{
			Action: raw.Fix.Action,
			Attr:   raw.Fix.Attr,
			Value:  raw.Fix.Value,
			Title:  raw.Fix.Title,
		}
	}
	return rule, nil
}

func compileCondition(raw *rawCondition) (Condition, error) {
	switch raw.Kind {
	case "missing_attribute":
		if raw.Attr == "" {
			return Condition{}, fmt.Errorf("missing_attribute needs attr")
		}
		return Condition{Kind: CondMissingAttribute, Attr: raw.Attr}, nil

	case "no_children":
		return Condition{Kind: CondNoChildren}, nil

	case "count_children":
		if raw.Tag == "" {
			return Condition{}, fmt.Errorf("count_children needs tag")
		}
		op, err := parseCmpOp(raw.Op)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondCountChildren, Tag: raw.Tag, Op: op, Value: raw.Value}, nil

	case "expression":
		expr, err := ParseExpr(raw.Expr)
		if err != nil {
			return Condition{}, fmt.Errorf("expression: %w", err)
		}
		return Condition{Kind: CondExpression, Expr: expr}, nil

	case "missing_reference":
		if raw.Attr == "" || raw.RefKind == "" {
			return Condition{}, fmt.Errorf("missing_reference needs attr and ref-kind")
		}
		return Condition{Kind: CondMissingReference, Attr: raw.Attr, RefKind: raw.RefKind}, nil
	}
	return Condition{}, fmt.Errorf("unknown condition kind %q", raw.Kind)
}
