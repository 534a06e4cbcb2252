package complete

import (
	"strings"
	"testing"

	"frost/internal/diag"
	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/source"
	"frost/internal/symbols"
)

const completePlugin = `
version = "4.0"

[[element]]
tag = "Wix"
description = "Root element."
  [[element.child]]
  tag = "Product"
  max = 1
  [[element.child]]
  tag = "Fragment"

[[element]]
tag = "Product"
description = "One installable product."
parents = ["Wix"]
  [[element.attr]]
  name = "Id"
  required = true
  defining = true
  description = "Product identifier."
  [[element.attr]]
  name = "Scope"
  enum = ["perMachine", "perUser"]
  description = "Install scope."
  [[element.attr]]
  name = "Name"

[[element]]
tag = "Fragment"
parents = ["Wix"]

[[element]]
tag = "Component"
  [[element.attr]]
  name = "Id"
  defining = true

[[element]]
tag = "ComponentRef"
  [[element.attr]]
  name = "Id"
  required = true
  ref-to = "Component"

[[snippet]]
name = "component"
prefix = "comp"
body = "<Component Id=\"$1\"/>"
description = "Component skeleton."
`

func testSnap(t *testing.T) *schema.Snapshot {
	t.Helper()
	snap, err := schema.LoadBytes("complete.toml", []byte(completePlugin))
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func parseText(t *testing.T, text string) *markup.Document {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("c.wxs", []byte(text))
	doc, err := markup.Parse(fs, id, diag.NopReporter{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func has(items []Item, label string) bool {
	for _, it := range items {
		if it.Label == label {
			return true
		}
	}
	return false
}

func TestDetectContextKinds(t *testing.T) {
	cases := []struct {
		text string
		want CtxKind
	}{
		{`<Wix>`, CtxElementStart},
		{`<Wix><`, CtxElementStart},
		{`<Wix><Prod`, CtxElementStart},
		{`<Wix><Product `, CtxAttrName},
		{`<Wix><Product Id="P" `, CtxAttrName},
		{`<Wix><Product Id="`, CtxAttrValue},
		{`<Wix><Product Id="Pa`, CtxAttrValue},
		{`<Wix><Product Id=`, CtxAttrValue},
		{`<Wix></`, CtxClosingTag},
		{`<?xml `, CtxUnknown},
	}
	for _, tc := range cases {
		got := DetectContext([]byte(tc.text), len(tc.text))
		if got.Kind != tc.want {
			t.Errorf("%q: kind = %d, want %d", tc.text, got.Kind, tc.want)
		}
	}
}

func TestDetectContextDetails(t *testing.T) {
	ctx := DetectContext([]byte(`<Wix><Product Id="P" Sc`), 23)
	if ctx.Kind != CtxAttrName || ctx.Element != "Product" || ctx.Prefix != "Sc" {
		t.Fatalf("ctx = %+v", ctx)
	}
	if len(ctx.Existing) != 1 || ctx.Existing[0] != "Id" {
		t.Fatalf("existing = %v", ctx.Existing)
	}

	// right after the tag name the prefix must be empty, not the tag
	ctx = DetectContext([]byte(`<Wix><Product `), 14)
	if ctx.Kind != CtxAttrName || ctx.Element != "Product" || ctx.Prefix != "" {
		t.Fatalf("ctx = %+v", ctx)
	}

	ctx = DetectContext([]byte(`<Wix><Product Scope="per`), 24)
	if ctx.Kind != CtxAttrValue || ctx.Attr != "Scope" || ctx.Prefix != "per" {
		t.Fatalf("ctx = %+v", ctx)
	}

	text := "<Wix>\n  <Product Id=\"P\">\n    \n  </Product>\n</Wix>"
	ctx = DetectContext([]byte(text), uint32len(text, "    "))
	if ctx.Kind != CtxElementStart || ctx.Parent != "Product" {
		t.Fatalf("ctx = %+v", ctx)
	}
}

func uint32len(text, marker string) int {
	return strings.Index(text, marker) + len(marker)
}

func TestChildCompletionHonorsCardinality(t *testing.T) {
	snap := testSnap(t)
	// Product already at its max of one under Wix; the buffer has a
	// fresh '<' typed where the last good parse has whitespace.
	doc := parseText(t, `<Wix><Product Id="P"/>  </Wix>`)
	buffer := `<Wix><Product Id="P"/><`

	items := Completions(Request{Text: []byte(buffer), Doc: doc, Snap: snap, Off: uint32(len(buffer))})
	if has(items, "Product") {
		t.Fatalf("exhausted child offered: %v", labels(items))
	}
	if !has(items, "Fragment") {
		t.Fatalf("Fragment missing: %v", labels(items))
	}
}

func TestChildCompletionWithBudgetLeft(t *testing.T) {
	snap := testSnap(t)
	doc := parseText(t, `<Wix>  </Wix>`)
	buffer := `<Wix><`
	items := Completions(Request{Text: []byte(buffer), Doc: doc, Snap: snap, Off: uint32(len(buffer))})
	if !has(items, "Product") || !has(items, "Fragment") {
		t.Fatalf("items = %v", labels(items))
	}
}

func TestSnippetsAtElementStart(t *testing.T) {
	snap := testSnap(t)
	text := `<Wix>comp`
	doc := parseText(t, text)
	items := Completions(Request{Doc: doc, Snap: snap, Off: uint32(len(text))})
	found := false
	for _, it := range items {
		if it.Kind == ItemSnippet && it.Label == "component" {
			found = true
			if !strings.Contains(it.InsertText, "<Component") {
				t.Fatalf("snippet body = %q", it.InsertText)
			}
		}
	}
	if !found {
		t.Fatalf("snippet not offered: %v", labels(items))
	}
}

func TestAttributeCompletion(t *testing.T) {
	snap := testSnap(t)
	buffer := `<Wix><Product Name="N" `
	items := Completions(Request{Text: []byte(buffer), Snap: snap, Off: uint32(len(buffer))})
	if has(items, "Name") {
		t.Fatalf("present attribute re-offered: %v", labels(items))
	}
	// required first, then alphabetical
	want := []string{"Id", "Scope"}
	got := labels(items)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if !items[0].Required {
		t.Fatal("required flag lost")
	}
}

func TestAttributeCompletionAfterTagName(t *testing.T) {
	snap := testSnap(t)
	// the very first trigger position: a space right after the tag name
	buffer := `<Wix><Product `
	items := Completions(Request{Text: []byte(buffer), Snap: snap, Off: uint32(len(buffer))})
	want := []string{"Id", "Name", "Scope"}
	got := labels(items)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
}

func TestEnumValueCompletion(t *testing.T) {
	snap := testSnap(t)
	buffer := `<Wix><Product Scope="per`
	items := Completions(Request{Text: []byte(buffer), Snap: snap, Off: uint32(len(buffer))})
	got := labels(items)
	if len(got) != 2 || got[0] != "perMachine" || got[1] != "perUser" {
		t.Fatalf("items = %v", got)
	}
}

func TestReferenceValueCompletion(t *testing.T) {
	snap := testSnap(t)
	defs := parseText(t, `<Wix><Component Id="MainExe"/><Component Id="Docs"/></Wix>`)
	ix := symbols.NewIndex("product")
	ix.Update(symbols.Collect(defs, snap, "defs.wxs"))

	buffer := `<Wix><ComponentRef Id="`
	items := Completions(Request{Text: []byte(buffer), Snap: snap, Index: ix, Off: uint32(len(buffer))})
	got := labels(items)
	if len(got) != 2 || got[0] != "Docs" || got[1] != "MainExe" {
		t.Fatalf("items = %v", got)
	}
}

func TestNoCompletionInClosingTag(t *testing.T) {
	snap := testSnap(t)
	buffer := `<Wix></`
	if items := Completions(Request{Text: []byte(buffer), Snap: snap, Off: uint32(len(buffer))}); len(items) != 0 {
		t.Fatalf("closing tag completed: %v", labels(items))
	}
}

func TestHover(t *testing.T) {
	snap := testSnap(t)
	text := `<Wix><Product Id="P" Scope="perUser">text</Product></Wix>`
	doc := parseText(t, text)

	// on the tag name
	off := uint32(strings.Index(text, "<Product") + 3)
	if got, ok := Hover(doc, snap, off); !ok || got != "One installable product." {
		t.Fatalf("element hover = %q, %v", got, ok)
	}

	// on an attribute name
	off = uint32(strings.Index(text, "Scope=") + 2)
	if got, ok := Hover(doc, snap, off); !ok || got != "Install scope." {
		t.Fatalf("attr hover = %q, %v", got, ok)
	}

	// free text yields nothing
	off = uint32(strings.Index(text, "text</") + 1)
	if _, ok := Hover(doc, snap, off); ok {
		t.Fatal("hover over free text")
	}
}

func TestHoverOnSyntheticNode(t *testing.T) {
	snap := testSnap(t)
	text := `<Wix><Product Id="P">`
	doc := parseText(t, text)
	off := uint32(strings.Index(text, "<Product") + 3)
	if got, ok := Hover(doc, snap, off); !ok || got == "" {
		t.Fatalf("synthetic hover = %q, %v", got, ok)
	}
}

func TestHoverMarkdownCard(t *testing.T) {
	snap := testSnap(t)
	text := `<Wix><Product Id="P"/></Wix>`
	doc := parseText(t, text)
	off := uint32(strings.Index(text, "<Product") + 3)
	card, ok := HoverMarkdown(doc, snap, off)
	if !ok {
		t.Fatal("no card")
	}
	for _, want := range []string{"## Product", "One installable product.", "Required attributes:** Id"} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
}
