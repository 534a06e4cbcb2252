package schema

import (
	"strings"
	"testing"

	"frost/internal/diag"
)

const testPlugin = `
version = "4.0"
schema-version = 4

[format]
indent-width = 2
primary-attribute = "Id"
attr-wrap-threshold = 4

[[element]]
tag = "Wix"
description = "Root element."
  [[element.child]]
  tag = "Product"
  min = 1
  max = 1

[[element]]
tag = "Product"
description = "One installable product."
parents = ["Wix"]
  [[element.child]]
  tag = "Component"
  [[element.attr]]
  name = "Id"
  required = true
  defining = true
  description = "Product identifier."
  [[element.attr]]
  name = "UpgradeCode"
  required = true

[[element]]
tag = "Component"
parents = ["Product"]
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
id = "product-requires-upgradecode"
severity = "error"
applies-to = "Product"
condition = { kind = "missing_attribute", attr = "UpgradeCode" }
message = "Product must declare an UpgradeCode."

[[rule]]
id = "component-not-empty"
severity = "warning"
applies-to = "Component"
condition = { kind = "no_children" }
message = "Component has no content."

[[snippet]]
name = "component"
prefix = "comp"
body = "<Component Id=\"$1\"/>"
`

func TestLoadPlugin(t *testing.T) {
	snap, err := LoadBytes("test.toml", []byte(testPlugin))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if snap.Version != "4.0" || snap.SchemaVersion != 4 {
		t.Fatalf("version = %s/%d", snap.Version, snap.SchemaVersion)
	}
	product := snap.Element("Product")
	if product == nil {
		t.Fatal("missing Product element")
	}
	if def := product.DefiningAttr(); def == nil || def.Name != "Id" {
		t.Fatalf("defining attr = %+v", def)
	}
	if spec := snap.Element("Wix").Child("Product"); spec == nil || spec.Max != 1 {
		t.Fatalf("child spec = %+v", spec)
	}
	rule := snap.Rules["product-requires-upgradecode"]
	if rule == nil || rule.Severity != diag.SevError || rule.Cond.Kind != CondMissingAttribute {
		t.Fatalf("rule = %+v", rule)
	}
	if got := snap.RuleOrder(); len(got) != 2 || got[0] != "component-not-empty" {
		t.Fatalf("rule order = %v", got)
	}
	if len(snap.Snippets) != 1 || snap.Snippets[0].Prefix != "comp" {
		t.Fatalf("snippets = %+v", snap.Snippets)
	}
	if snap.Format.PrimaryAttr != "Id" || snap.Format.IndentWidth != 2 {
		t.Fatalf("format = %+v", snap.Format)
	}
}

func TestLoadBrokenRuleIsSkippedNotFatal(t *testing.T) {
	src := testPlugin + `
[[rule]]
id = "bad-rule"
condition = { kind = "count_children", tag = "X", op = "~", value = 1 }
message = "never evaluated"
`
	snap, err := LoadBytes("test.toml", []byte(src))
	if err != nil {
		t.Fatalf("load should survive a broken rule: %v", err)
	}
	if _, ok := snap.Rules["bad-rule"]; ok {
		t.Fatal("broken rule must not be active")
	}
	if len(snap.Issues) != 1 || snap.Issues[0].ID != "bad-rule" {
		t.Fatalf("issues = %+v", snap.Issues)
	}
	if !strings.Contains(snap.Issues[0].Msg, "operator") {
		t.Fatalf("issue message = %q", snap.Issues[0].Msg)
	}
	// the healthy rules still loaded
	if len(snap.Rules) != 2 {
		t.Fatalf("rules = %d", len(snap.Rules))
	}
}

func TestLoadUnknownConditionKind(t *testing.T) {
	src := testPlugin + `
[[rule]]
id = "mystery"
condition = { kind = "phase_of_moon" }
message = "nope"
`
	snap, err := LoadBytes("test.toml", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(snap.Issues) != 1 {
		t.Fatalf("issues = %+v", snap.Issues)
	}
}

func TestLoadFailsAtomically(t *testing.T) {
	cases := map[string]string{
		"missing version":  strings.Replace(testPlugin, `version = "4.0"`, "", 1),
		"duplicate rule":   testPlugin + "\n[[rule]]\nid = \"component-not-empty\"\ncondition = { kind = \"no_children\" }\nmessage = \"dup\"\n",
		"unknown ref":      strings.Replace(testPlugin, `ref-to = "Component"`, `ref-to = "Nowhere"`, 1),
		"duplicate tag":    testPlugin + "\n[[element]]\ntag = \"Wix\"\n",
		"nameless element": testPlugin + "\n[[element]]\ndescription = \"no tag\"\n",
	}
	for name, src := range cases {
		if _, err := LoadBytes("test.toml", []byte(src)); err == nil {
			t.Errorf("%s: expected load failure", name)
		}
	}
}

func TestRegistrySwap(t *testing.T) {
	first, err := LoadBytes("a.toml", []byte(testPlugin))
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(first)

	held := reg.Snapshot()
	second, err := LoadBytes("b.toml", []byte(strings.Replace(testPlugin, `version = "4.0"`, `version = "5.0"`, 1)))
	if err != nil {
		t.Fatal(err)
	}
	old := reg.Swap(second)
	if old != first {
		t.Fatal("Swap should return the previous snapshot")
	}
	// an in-flight consumer keeps its snapshot
	if held.Version != "4.0" {
		t.Fatalf("held snapshot changed: %s", held.Version)
	}
	if reg.Snapshot().Version != "5.0" {
		t.Fatalf("active = %s", reg.Snapshot().Version)
	}
}
