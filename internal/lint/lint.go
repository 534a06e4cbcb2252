package lint

import (
	"context"
	"fmt"
	"strings"

	"frost/internal/diag"
	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/symbols"
)

// Rule ids for the engine's built-in checks. They are configured and
// suppressed exactly like plugin rules.
const (
	RuleMissingRequiredAttr = "missing-required-attribute"
	RuleDuplicateIdentifier = "duplicate-identifier"
	RuleInvalidAttrValue    = "invalid-attribute-value"
	RuleChildCardinality    = "child-cardinality"
	RuleUnknownChild        = "unknown-child"
)

// Request bundles everything one evaluation run needs.
type Request struct {
	Doc    *markup.Document
	Snap   *schema.Snapshot
	Index  *symbols.Index // may be nil; reference rules are skipped then
	Config Config
	DocKey string // document path, used for exclude globs and index lookups
}

// Evaluate runs the active rules over one document and returns
// diagnostics in document order. The context is checked between node
// visits; on cancellation the partial result is discarded and an error
// returned. Evaluation is deterministic: the same (document, rules)
// pair always yields the same sequence.
func Evaluate(ctx context.Context, req Request) ([]diag.Diagnostic, error) {
	if req.Config.Excluded(req.DocKey) {
		return nil, nil
	}
	bag := diag.NewBag(req.Config.maxDiagnostics())
	e := &evaluator{req: req, bag: bag}

	nodes := req.Doc.Nodes()
	for i := range nodes {
		// cooperative cancellation checkpoint at node boundaries
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.visit(&nodes[i])
	}

	kept := make([]diag.Diagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		if req.Doc.Suppressed(string(d.Code), d.Primary) {
			continue
		}
		kept = append(kept, d)
	}
	out := diag.NewBag(len(kept) + 1)
	for _, d := range kept {
		out.Add(d)
	}
	out.Sort()
	return out.Items(), nil
}

type evaluator struct {
	req Request
	bag *diag.Bag
}

func (e *evaluator) visit(n *markup.Node) {
	e.builtinChecks(n)

	target := e.req.Config.targetVersion(e.req.Snap)
	for _, id := range e.req.Snap.RuleOrder() {
		rule := e.req.Snap.Rules[id]
		if rule.AppliesTo != "*" && rule.AppliesTo != n.Tag {
			continue
		}
		if rule.MinVersion > 0 && rule.MinVersion > target {
			continue
		}
		sev, enabled := e.req.Config.severityFor(id, rule.Severity)
		if !enabled {
			continue
		}
		if !e.condition(rule.Cond, n) {
			continue
		}
		d := diag.New(sev, diag.Code(id), n.OpenSpan, e.expand(rule.Message, n))
		if fix := e.buildFix(rule, n); fix != nil {
			d = d.WithFix(*fix)
		}
		e.bag.Add(d)
	}
}

// condition evaluates one compiled rule predicate against a node.
func (e *evaluator) condition(c schema.Condition, n *markup.Node) bool {
	switch c.Kind {
	case schema.CondMissingAttribute:
		return !n.HasAttr(c.Attr)

	case schema.CondNoChildren:
		// A synthetically closed element never saw its real content;
		// the parse error already covers it.
		if n.Synthetic() {
			return false
		}
		return len(n.Children) == 0

	case schema.CondCountChildren:
		if n.Synthetic() {
			return false
		}
		return c.Op.Compare(e.countChildren(n, c.Tag), c.Value)

	case schema.CondExpression:
		return e.expr(c.Expr, n)

	case schema.CondMissingReference:
		if e.req.Index == nil {
			return false
		}
		value, ok := n.Attr(c.Attr)
		if !ok || value == "" {
			return false
		}
		return !e.req.Index.HasDefinition(c.RefKind, value)
	}
	return false
}

func (e *evaluator) expr(x *schema.Expr, n *markup.Node) bool {
	if x == nil {
		return false
	}
	switch x.Op {
	case schema.ExprAnd:
		return e.expr(x.Left, n) && e.expr(x.Right, n)
	case schema.ExprOr:
		return e.expr(x.Left, n) || e.expr(x.Right, n)
	case schema.ExprNot:
		return !e.expr(x.Left, n)
	case schema.ExprAttrExists:
		return n.HasAttr(x.Attr)
	case schema.ExprAttrEquals:
		v, ok := n.Attr(x.Attr)
		return ok && v == x.Value
	case schema.ExprChildExists:
		return e.countChildren(n, x.Tag) > 0
	case schema.ExprChildAttrMatch:
		for _, childID := range n.Children {
			c := e.req.Doc.Node(childID)
			if c.Tag != x.Tag {
				continue
			}
			if v, ok := c.Attr(x.Attr); ok && v == x.Value {
				return true
			}
		}
		return false
	}
	return false
}

func (e *evaluator) countChildren(n *markup.Node, tag string) int {
	count := 0
	for _, id := range n.Children {
		if tag == "*" || e.req.Doc.Node(id).Tag == tag {
			count++
		}
	}
	return count
}

// expand substitutes {tag} and {attr.Name} placeholders in a rule
// message.
func (e *evaluator) expand(template string, n *markup.Node) string {
	if !strings.Contains(template, "{") {
		return template
	}
	out := strings.ReplaceAll(template, "{tag}", n.Tag)
	for {
		start := strings.Index(out, "{attr.")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], "}")
		if end < 0 {
			break
		}
		name := out[start+len("{attr.") : start+end]
		value, ok := n.Attr(name)
		if !ok {
			value = "(unset)"
		}
		out = out[:start] + value + out[start+end+1:]
	}
	return out
}

func (e *evaluator) report(id string, def diag.Severity, n *markup.Node, msg string) *diag.Diagnostic {
	sev, enabled := e.req.Config.severityFor(id, def)
	if !enabled {
		return nil
	}
	d := diag.New(sev, diag.Code(id), n.OpenSpan, msg)
	return &d
}

func (e *evaluator) builtinChecks(n *markup.Node) {
	el := e.req.Snap.Element(n.Tag)
	if el == nil {
		return
	}
	e.checkRequiredAttrs(n, el)
	e.checkEnumValues(n, el)
	e.checkChildren(n, el)
	e.checkDuplicateIdent(n, el)
}

func (e *evaluator) checkRequiredAttrs(n *markup.Node, el *schema.ElementDef) {
	for i := range el.Attrs {
		def := &el.Attrs[i]
		if !def.Required || n.HasAttr(def.Name) {
			continue
		}
		if d := e.report(RuleMissingRequiredAttr, diag.SevError, n,
			fmt.Sprintf("<%s> is missing required attribute %q", n.Tag, def.Name)); d != nil {
			withAdd := d.WithFix(e.addAttributeFix(n, def.Name, ""))
			e.bag.Add(withAdd)
		}
	}
}

func (e *evaluator) checkEnumValues(n *markup.Node, el *schema.ElementDef) {
	for i := range n.Attrs {
		attr := &n.Attrs[i]
		def := el.Attr(attr.Name)
		if def == nil || len(def.Enum) == 0 {
			continue
		}
		valid := false
		for _, allowed := range def.Enum {
			if attr.Value == allowed {
				valid = true
				break
			}
		}
		if valid {
			continue
		}
		sev, enabled := e.req.Config.severityFor(RuleInvalidAttrValue, diag.SevError)
		if !enabled {
			continue
		}
		e.bag.Add(diag.New(sev, RuleInvalidAttrValue, attr.ValueSpan,
			fmt.Sprintf("%q is not a valid value for %s (allowed: %s)",
				attr.Value, attr.Name, strings.Join(def.Enum, ", "))))
	}
}

func (e *evaluator) checkChildren(n *markup.Node, el *schema.ElementDef) {
	if n.Synthetic() || len(el.Children) == 0 {
		return
	}
	for i := range el.Children {
		spec := &el.Children[i]
		count := e.countChildren(n, spec.Tag)
		switch {
		case spec.Max > 0 && count > spec.Max:
			if d := e.report(RuleChildCardinality, diag.SevError, n,
				fmt.Sprintf("<%s> allows at most %d <%s> children, found %d", n.Tag, spec.Max, spec.Tag, count)); d != nil {
				e.bag.Add(*d)
			}
		case count < spec.Min:
			if d := e.report(RuleChildCardinality, diag.SevError, n,
				fmt.Sprintf("<%s> requires at least %d <%s> children, found %d", n.Tag, spec.Min, spec.Tag, count)); d != nil {
				e.bag.Add(*d)
			}
		}
	}
	for _, childID := range n.Children {
		child := e.req.Doc.Node(childID)
		if el.Child(child.Tag) != nil {
			continue
		}
		if d := e.report(RuleUnknownChild, diag.SevWarning, child,
			fmt.Sprintf("<%s> is not an allowed child of <%s>", child.Tag, n.Tag)); d != nil {
			e.bag.Add(*d)
		}
	}
}

// checkDuplicateIdent reports the second and later definitions of an
// identifier. The indexer records them all; deciding which one is
// redundant is this layer's job.
func (e *evaluator) checkDuplicateIdent(n *markup.Node, el *schema.ElementDef) {
	if e.req.Index == nil {
		return
	}
	def := el.DefiningAttr()
	if def == nil {
		return
	}
	attr := n.AttrRef(def.Name)
	if attr == nil || attr.Value == "" {
		return
	}
	defs := e.req.Index.Definitions(n.Tag, attr.Value)
	if len(defs) < 2 {
		return
	}
	first := defs[0]
	if first.Doc == e.req.DocKey && first.Span == attr.ValueSpan {
		return // the first occurrence is not the duplicate
	}
	sev, enabled := e.req.Config.severityFor(RuleDuplicateIdentifier, diag.SevError)
	if !enabled {
		return
	}
	d := diag.New(sev, RuleDuplicateIdentifier, attr.ValueSpan,
		fmt.Sprintf("identifier %q is already defined", attr.Value)).
		WithNote(first.Span, "first defined here")
	e.bag.Add(d)
}
