package complete

import (
	"sort"
	"strings"

	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/symbols"
)

// ItemKind tags what a completion candidate inserts.
type ItemKind uint8

const (
	ItemElement ItemKind = iota
	ItemAttribute
	ItemValue
	ItemSnippet
)

// Item is one completion candidate.
type Item struct {
	Label      string
	Kind       ItemKind
	Detail     string
	InsertText string
	Required   bool
}

// Request carries the inputs for one completion query. Text is the
// live buffer; Doc is the last revision that parsed, which may lag the
// buffer or be nil while the user types through a broken state. Index
// may be nil; identifier suggestions for reference attributes are
// skipped then.
type Request struct {
	Text  []byte
	Doc   *markup.Document
	Snap  *schema.Snapshot
	Index *symbols.Index
	Off   uint32
}

// Completions returns candidates for the cursor position, already
// ranked: required entries first, then alphabetical. The result is nil
// when the position offers nothing to complete.
func Completions(req Request) []Item {
	if req.Text == nil && req.Doc != nil {
		req.Text = req.Doc.Text()
	}
	ctx := DetectContext(req.Text, int(req.Off))
	switch ctx.Kind {
	case CtxElementStart:
		return elementItems(req, ctx)
	case CtxAttrName:
		return attrNameItems(req.Snap, ctx)
	case CtxAttrValue:
		return attrValueItems(req, ctx)
	}
	return nil
}

// elementItems lists the child tags still admissible under the parent,
// honoring each child spec's remaining cardinality budget, plus any
// snippets matching the typed prefix.
func elementItems(req Request, ctx Context) []Item {
	var items []Item
	if ctx.Parent == "" {
		for tag, el := range req.Snap.Elements {
			if len(el.Parents) == 0 && hasPrefix(tag, ctx.Prefix) {
				items = append(items, elementItem(el))
			}
		}
	} else if parent := req.Snap.Element(ctx.Parent); parent != nil {
		used := childCounts(req.Doc, req.Off)
		for i := range parent.Children {
			spec := &parent.Children[i]
			if spec.Max > 0 && used[spec.Tag] >= spec.Max {
				continue
			}
			if !hasPrefix(spec.Tag, ctx.Prefix) {
				continue
			}
			if el := req.Snap.Element(spec.Tag); el != nil {
				items = append(items, elementItem(el))
			} else {
				items = append(items, Item{Label: spec.Tag, Kind: ItemElement, InsertText: spec.Tag})
			}
		}
	}
	for i := range req.Snap.Snippets {
		sn := &req.Snap.Snippets[i]
		if hasPrefix(sn.Prefix, ctx.Prefix) || hasPrefix(sn.Name, ctx.Prefix) {
			items = append(items, Item{
				Label:      sn.Name,
				Kind:       ItemSnippet,
				Detail:     sn.Description,
				InsertText: sn.Body,
			})
		}
	}
	rank(items)
	return items
}

func elementItem(el *schema.ElementDef) Item {
	return Item{
		Label:      el.Tag,
		Kind:       ItemElement,
		Detail:     el.Description,
		InsertText: el.Tag,
	}
}

// childCounts tallies the existing children of the element enclosing
// the offset. Without a parsed revision there is no budget to spend
// and the tally is empty.
func childCounts(doc *markup.Document, off uint32) map[string]int {
	counts := map[string]int{}
	if doc == nil {
		return counts
	}
	id := doc.NodeAt(off)
	if !id.IsValid() {
		return counts
	}
	n := doc.Node(id)
	for _, childID := range n.Children {
		counts[doc.Node(childID).Tag]++
	}
	return counts
}

func attrNameItems(snap *schema.Snapshot, ctx Context) []Item {
	el := snap.Element(ctx.Element)
	if el == nil {
		return nil
	}
	present := map[string]bool{}
	for _, name := range ctx.Existing {
		present[name] = true
	}
	var items []Item
	for i := range el.Attrs {
		def := &el.Attrs[i]
		if present[def.Name] || !hasPrefix(def.Name, ctx.Prefix) {
			continue
		}
		items = append(items, Item{
			Label:      def.Name,
			Kind:       ItemAttribute,
			Detail:     def.Description,
			InsertText: def.Name + `=""`,
			Required:   def.Required,
		})
	}
	rank(items)
	return items
}

func attrValueItems(req Request, ctx Context) []Item {
	el := req.Snap.Element(ctx.Element)
	if el == nil {
		return nil
	}
	def := el.Attr(ctx.Attr)
	if def == nil {
		return nil
	}
	var items []Item
	for _, v := range def.Enum {
		if hasPrefix(v, ctx.Prefix) {
			items = append(items, Item{Label: v, Kind: ItemValue, InsertText: v})
		}
	}
	// reference attributes complete to the identifiers defined so far
	if def.RefTo != "" && req.Index != nil {
		for _, ident := range req.Index.Idents(def.RefTo) {
			if hasPrefix(ident, ctx.Prefix) {
				items = append(items, Item{Label: ident, Kind: ItemValue, InsertText: ident})
			}
		}
	}
	rank(items)
	return items
}

func hasPrefix(name, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix))
}

func rank(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Required != items[j].Required {
			return items[i].Required
		}
		return items[i].Label < items[j].Label
	})
}
