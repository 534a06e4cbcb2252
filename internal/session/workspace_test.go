package session

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"frost/internal/lint"
	"frost/internal/schema"
	"frost/internal/symbols"
)

const sessionPlugin = `
version = "4.0"

[[element]]
tag = "Wix"

[[element]]
tag = "Product"
  [[element.attr]]
  name = "Id"
  required = true
  defining = true

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

[[rule]]
id = "dangling-component-ref"
severity = "error"
applies-to = "ComponentRef"
condition = { kind = "missing_reference", attr = "Id", ref-kind = "Component" }
message = "ComponentRef points at an unknown component."
`

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	snap, err := schema.LoadBytes("session.toml", []byte(sessionPlugin))
	if err != nil {
		t.Fatal(err)
	}
	return New(schema.NewRegistry(snap), lint.Config{})
}

func TestUpdateAndLint(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("a.wxs", []byte(`<Wix><Product/></Wix>`))

	ds, err := w.Lint(context.Background(), "a.wxs")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range ds {
		if d.Code == lint.RuleMissingRequiredAttr {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %+v", ds)
	}

	// the fix lands; a query after the change sees the change
	w.UpdateText("a.wxs", []byte(`<Wix><Product Id="P"/></Wix>`))
	ds, err = w.Lint(context.Background(), "a.wxs")
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range ds {
		if d.Code == lint.RuleMissingRequiredAttr {
			t.Fatalf("stale diagnostic after update: %+v", d)
		}
	}
}

func TestRevisionSequence(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("a.wxs", []byte(`<Wix/>`))
	w.UpdateText("a.wxs", []byte(`<Wix></Wix>`))

	rev, ok := w.Revision("a.wxs")
	if !ok || rev.Seq != 1 {
		t.Fatalf("rev = %+v", rev)
	}
}

func TestCrossFileReferences(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("defs.wxs", []byte(`<Wix><Component Id="MainExe"/></Wix>`))
	w.UpdateText("refs.wxs", []byte(`<Wix><ComponentRef Id="MainExe"/></Wix>`))

	ds, err := w.Lint(context.Background(), "refs.wxs")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 0 {
		t.Fatalf("resolved reference flagged: %+v", ds)
	}

	// deleting the definition breaks the reference
	w.UpdateText("defs.wxs", []byte(`<Wix/>`))
	ds, err = w.Lint(context.Background(), "refs.wxs")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 1 || string(ds[0].Code) != "dangling-component-ref" {
		t.Fatalf("diagnostics = %+v", ds)
	}
}

func TestCloseRemovesContribution(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("defs.wxs", []byte(`<Wix><Component Id="X"/></Wix>`))
	w.UpdateText("refs.wxs", []byte(`<Wix><ComponentRef Id="X"/></Wix>`))
	w.Close("defs.wxs")

	ds, err := w.Lint(context.Background(), "refs.wxs")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 1 {
		t.Fatalf("closed document still contributes: %+v", ds)
	}
}

func TestBrokenParseKeepsLastGoodRevision(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("a.wxs", []byte(`<Wix><Product Id="P"/></Wix>`))
	w.UpdateText("a.wxs", []byte(`<Wix><Product Id="P`)) // mid-keystroke

	rev, _ := w.Revision("a.wxs")
	if rev.ParseErr == nil {
		t.Fatal("expected a parse error")
	}
	if rev.Doc == nil {
		t.Fatal("last good parse dropped")
	}
	// hover still works against the last good revision
	if _, ok := w.Hover("a.wxs", 7); !ok {
		t.Skip("no description in this schema")
	}
}

func TestLintAllDeterministicMerge(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("b.wxs", []byte(`<Wix><Product/></Wix>`))
	w.UpdateText("a.wxs", []byte(`<Wix><Product/></Wix>`))
	w.UpdateText("c.wxs", []byte(`<Wix><Product/></Wix>`))

	first, err := w.LintAll(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if first.Len() != 3 {
		t.Fatalf("len = %d", first.Len())
	}
	for i := 0; i < 3; i++ {
		again, err := w.LintAll(context.Background(), 4)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Items(), again.Items()) {
			t.Fatalf("merge order unstable:\n%+v\nvs\n%+v", first.Items(), again.Items())
		}
	}
}

func TestLintAllCancellation(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("a.wxs", []byte(`<Wix><Product/></Wix>`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.LintAll(ctx, 2); err == nil {
		t.Fatal("cancelled batch must fail")
	}
}

func TestDefinitionAndReferencesThroughWorkspace(t *testing.T) {
	w := newWorkspace(t)
	text := `<Wix><Component Id="App"/><ComponentRef Id="App"/></Wix>`
	w.UpdateText("one.wxs", []byte(text))

	refOff := uint32(strings.LastIndex(text, `"App"`) + 2)
	defs, outcome := w.Definition("one.wxs", refOff)
	if outcome != symbols.DefFound || len(defs) != 1 {
		t.Fatalf("outcome = %v defs = %+v", outcome, defs)
	}

	defOff := uint32(strings.Index(text, `"App"`) + 2)
	refs, ok := w.References("one.wxs", defOff)
	if !ok || len(refs) != 1 {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestCompletionsThroughWorkspace(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("defs.wxs", []byte(`<Wix><Component Id="MainExe"/></Wix>`))
	buffer := `<Wix><ComponentRef Id="`
	w.UpdateText("live.wxs", []byte(buffer))

	items := w.Completions("live.wxs", uint32(len(buffer)))
	found := false
	for _, it := range items {
		if it.Label == "MainExe" {
			found = true
		}
	}
	if !found {
		t.Fatalf("items = %+v", items)
	}
}

func TestHotReloadKeepsInFlightSnapshot(t *testing.T) {
	w := newWorkspace(t)
	w.UpdateText("a.wxs", []byte(`<Wix><Product Id="P"/></Wix>`))

	held := w.Snapshot()
	next, err := schema.LoadBytes("v2.toml", []byte(strings.Replace(sessionPlugin, `version = "4.0"`, `version = "5.0"`, 1)))
	if err != nil {
		t.Fatal(err)
	}
	w.Reload(next)

	if held.Version != "4.0" {
		t.Fatalf("held snapshot mutated: %s", held.Version)
	}
	if w.Snapshot().Version != "5.0" {
		t.Fatalf("active = %s", w.Snapshot().Version)
	}
}
