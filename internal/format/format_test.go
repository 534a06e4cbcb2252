package format

import (
	"bytes"
	"strings"
	"testing"

	"frost/internal/diag"
	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/source"
)

func parse(t *testing.T, text string) *markup.Document {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("fmt.wxs", []byte(text))
	doc, err := markup.Parse(fs, id, diag.NopReporter{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func format(t *testing.T, text string, prefs schema.FormatPrefs) string {
	t.Helper()
	return string(Format(parse(t, text), prefs))
}

func TestIndentAndNesting(t *testing.T) {
	in := `<Wix><Product Id="P"><Component Id="C"/></Product></Wix>`
	want := "<Wix>\n" +
		"  <Product Id=\"P\">\n" +
		"    <Component Id=\"C\"/>\n" +
		"  </Product>\n" +
		"</Wix>\n"
	if got := format(t, in, schema.FormatPrefs{}); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestAttributeOrdering(t *testing.T) {
	in := `<Product Name="N" Id="P" Codepage="1252"/>`
	got := format(t, in, schema.FormatPrefs{PrimaryAttr: "Id"})
	want := "<Product Id=\"P\" Codepage=\"1252\" Name=\"N\"/>\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAttributeWrapThreshold(t *testing.T) {
	in := `<Product Id="P" Name="N" Version="1.0" Manufacturer="Acme"><Component Id="C"/></Product>`
	got := format(t, in, schema.FormatPrefs{AttrWrapThreshold: 4, PrimaryAttr: "Id"})
	want := "<Product\n" +
		"  Id=\"P\"\n" +
		"  Manufacturer=\"Acme\"\n" +
		"  Name=\"N\"\n" +
		"  Version=\"1.0\">\n" +
		"  <Component Id=\"C\"/>\n" +
		"</Product>\n"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestChildOrderPreserved(t *testing.T) {
	in := `<Wix><B/><A/><C/></Wix>`
	got := format(t, in, schema.FormatPrefs{})
	if b, a := strings.Index(got, "<B/>"), strings.Index(got, "<A/>"); b > a {
		t.Fatalf("children reordered:\n%s", got)
	}
}

func TestCommentsAndTextSurvive(t *testing.T) {
	in := "<?xml version=\"1.0\"?>\n" +
		"<!-- header -->\n" +
		"<Wix><!-- inner --><Description>  Hello world  </Description></Wix>"
	got := format(t, in, schema.FormatPrefs{})
	for _, want := range []string{"<?xml version=\"1.0\"?>", "<!-- header -->", "<!-- inner -->", "<Description>Hello world</Description>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestEmptyElementCollapses(t *testing.T) {
	got := format(t, `<Wix><Component Id="C"></Component></Wix>`, schema.FormatPrefs{})
	if !strings.Contains(got, `<Component Id="C"/>`) {
		t.Fatalf("empty element not collapsed:\n%s", got)
	}
}

func TestTabsIndent(t *testing.T) {
	got := format(t, `<Wix><Component Id="C"/></Wix>`, schema.FormatPrefs{UseTabs: true, IndentWidth: 1})
	if !strings.Contains(got, "\t<Component") {
		t.Fatalf("expected tab indent:\n%s", got)
	}
}

func TestSingleQuoteFallback(t *testing.T) {
	got := format(t, `<Component Id='say "hi"'/>`, schema.FormatPrefs{})
	if !strings.Contains(got, `Id='say "hi"'`) {
		t.Fatalf("quote handling:\n%s", got)
	}
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		`<Wix><Product Id="P" Name="N" Version="1" Lang="en"><Component Id="C"><File Source="a.txt"/></Component></Product></Wix>`,
		"<!-- top -->\n<Wix>\n\n  <Product   Id=\"P\"  >text here</Product>\n</Wix>\n",
		`<Wix><A/><!-- between --><B>multi
line text</B></Wix>`,
	}
	prefs := schema.FormatPrefs{PrimaryAttr: "Id", AttrWrapThreshold: 4, IndentWidth: 2}
	for _, in := range inputs {
		once := Format(parse(t, string(in)), prefs)
		twice := Format(parse(t, string(once)), prefs)
		if !bytes.Equal(once, twice) {
			t.Fatalf("not a fixed point:\nfirst:\n%s\nsecond:\n%s", once, twice)
		}
	}
}

func TestSyntheticClosureRepaired(t *testing.T) {
	// unclosed element: canonical output supplies the closing tag
	got := format(t, `<Wix><Component Id="C">`, schema.FormatPrefs{})
	if !strings.Contains(got, "</Wix>") {
		t.Fatalf("missing repaired close:\n%s", got)
	}
}
