package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"frost/internal/diag"
	"frost/internal/source"
)

func fixture(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("product.wxs", []byte("<Wix>\n  <Product Scope=\"maybe\"/>\n</Wix>\n"))
	f := fs.Get(id)

	open := uint32(bytes.Index(f.Content, []byte("<Product")))
	valStart := uint32(bytes.Index(f.Content, []byte("maybe")))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError("missing-required-attribute",
		source.Span{File: id, Start: open, End: open + 24},
		`<Product> is missing required attribute "Id"`).
		WithFix(diag.Fix{Title: `Add Id=""`, Edits: []diag.FixEdit{{
			Span:    source.Span{File: id, Start: open + 23, End: open + 23},
			NewText: ` Id=""`,
		}}}))
	bag.Add(diag.NewWarning("invalid-attribute-value",
		source.Span{File: id, Start: valStart, End: valStart + 5},
		`"maybe" is not a valid value for Scope`).
		WithNote(source.Span{File: id, Start: open, End: open + 8}, "on this element"))
	bag.Sort()
	return fs, bag
}

func TestPrettyOutput(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true, PathMode: PathModeBasename})
	out := buf.String()

	for _, want := range []string{
		"product.wxs:2:3: error[missing-required-attribute]:",
		"product.wxs:2:19: warning[invalid-attribute-value]:",
		"note: on this element",
		`fix: Add Id=""`,
		"^",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("color codes without Color option")
	}
}

func TestPrettyCaretAlignment(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	lines := strings.Split(buf.String(), "\n")

	// the caret line under the enum value points at the value column
	for i, line := range lines {
		if strings.Contains(line, "warning[") {
			caret := lines[i+2]
			if idx := strings.IndexByte(caret, '^'); idx != 2+18 {
				t.Fatalf("caret at %d:\n%s\n%s", idx, lines[i+1], caret)
			}
			if !strings.Contains(caret, "^~~~~") {
				t.Fatalf("caret run = %q", caret)
			}
		}
	}
}

func TestJSONOutput(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true, PathMode: PathModeBasename}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "missing-required-attribute" || first.Severity != "error" {
		t.Fatalf("first = %+v", first)
	}
	if first.Location.File != "product.wxs" || first.Location.StartLine != 2 {
		t.Fatalf("location = %+v", first.Location)
	}
	if len(first.Fixes) != 1 || first.Fixes[0].Edits[0].NewText != ` Id=""` {
		t.Fatalf("fixes = %+v", first.Fixes)
	}
	if len(out.Diagnostics[1].Notes) != 1 {
		t.Fatalf("notes = %+v", out.Diagnostics[1].Notes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
}

func TestSarifOutput(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	meta := SarifRunMeta{
		ToolName:       "frost",
		ToolVersion:    "1.0.0",
		InvocationArgs: []string{"frost", "lint", "--format", "sarif", "product.wxs"},
	}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatal(err)
	}

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Invocations []struct {
				Arguments           []string `json:"arguments"`
				ExecutionSuccessful bool     `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "frost" || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("driver = %+v", run.Tool.Driver)
	}
	if run.Results[0].Level != "error" || run.Results[1].Level != "warning" {
		t.Fatalf("levels = %+v", run.Results)
	}
	if len(run.Invocations) != 1 {
		t.Fatalf("invocations = %+v", run.Invocations)
	}
	inv := run.Invocations[0]
	if !inv.ExecutionSuccessful || len(inv.Arguments) != 5 || inv.Arguments[1] != "lint" {
		t.Fatalf("invocation = %+v", inv)
	}
}

func TestSarifOmitsEmptyInvocation(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	if err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "frost"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"invocations"`) {
		t.Fatal("invocations emitted without arguments")
	}
}
