package lint

import (
	"fmt"

	"frost/internal/diag"
	"frost/internal/markup"
	"frost/internal/schema"
)

// buildFix materializes a rule's fix descriptor into concrete edits
// against this node. Returns nil when the descriptor does not apply
// (e.g. removing an attribute that is not there).
func (e *evaluator) buildFix(rule *schema.RuleDef, n *markup.Node) *diag.Fix {
	spec := rule.Fix
	if spec == nil {
		return nil
	}
	switch spec.Action {
	case "add-attribute":
		if n.HasAttr(spec.Attr) {
			return nil
		}
		fix := e.addAttributeFix(n, spec.Attr, spec.Value)
		if spec.Title != "" {
			fix.Title = spec.Title
		}
		return &fix

	case "set-attribute":
		if attr := n.AttrRef(spec.Attr); attr != nil {
			return &diag.Fix{
				Title: fixTitle(spec, fmt.Sprintf("Set %s=%q", spec.Attr, spec.Value)),
				Safe:  true,
				Edits: []diag.FixEdit{{
					Span:    attr.ValueSpan,
					NewText: spec.Value,
					OldText: attr.Value,
				}},
			}
		}
		fix := e.addAttributeFix(n, spec.Attr, spec.Value)
		fix.Title = fixTitle(spec, fix.Title)
		return &fix

	case "remove-attribute":
		attr := n.AttrRef(spec.Attr)
		if attr == nil {
			return nil
		}
		// delete from the space before the name through the closing quote
		span := attr.NameSpan
		span.Start--
		span.End = attr.ValueSpan.End + 1
		return &diag.Fix{
			Title: fixTitle(spec, fmt.Sprintf("Remove %s", spec.Attr)),
			Safe:  true,
			Edits: []diag.FixEdit{{Span: span, NewText: ""}},
		}
	}
	return nil
}

// addAttributeFix inserts ` Name="value"` just before the opening
// tag's '>' or '/>'.
func (e *evaluator) addAttributeFix(n *markup.Node, name, value string) diag.Fix {
	text := e.req.Doc.Text()
	at := n.OpenSpan.End - 1 // before '>'
	if at >= 2 && text[at-1] == '/' {
		at-- // before '/>'
	}
	insert := n.OpenSpan
	insert.Start = at
	insert.End = at
	return diag.Fix{
		Title: fmt.Sprintf("Add %s=%q", name, value),
		Safe:  value != "",
		Edits: []diag.FixEdit{{
			Span:    insert,
			NewText: fmt.Sprintf(" %s=%q", name, value),
		}},
	}
}

func fixTitle(spec *schema.FixSpec, fallback string) string {
	if spec.Title != "" {
		return spec.Title
	}
	return fallback
}
