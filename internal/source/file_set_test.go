package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.wxs", []byte("<Wix>\n  <Product/>\n</Wix>\n"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}},
		{5, LineCol{Line: 1, Col: 6}}, // the newline closes line 1
		{6, LineCol{Line: 2, Col: 1}},
		{8, LineCol{Line: 2, Col: 3}},
		{19, LineCol{Line: 3, Col: 1}},
	}
	for _, tc := range cases {
		got := fs.Pos(id, tc.off)
		if got != tc.want {
			t.Errorf("Pos(%d) = %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestResolveSingleLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("one.wxs", []byte("<Fragment/>"))
	if got := fs.Pos(id, 3); got != (LineCol{Line: 1, Col: 4}) {
		t.Fatalf("Pos(3) = %+v", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc\r\n"))
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "a\nb\rc\n" {
		t.Fatalf("got %q", out)
	}

	out, changed = normalizeCRLF([]byte("plain\n"))
	if changed {
		t.Fatal("unexpected change")
	}
	if string(out) != "plain\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRemoveBOM(t *testing.T) {
	out, had := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if !had || string(out) != "x" {
		t.Fatalf("got %q had=%v", out, had)
	}
}

func TestLatestWinsAfterReAdd(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("doc.wxs", []byte("<A/>"))
	second := fs.AddVirtual("doc.wxs", []byte("<B/>"))
	if first == second {
		t.Fatal("expected distinct ids per revision")
	}
	id, ok := fs.Latest("doc.wxs")
	if !ok || id != second {
		t.Fatalf("Latest = %d ok=%v, want %d", id, ok, second)
	}
	// old revision content stays reachable
	if string(fs.Get(first).Content) != "<A/>" {
		t.Fatal("old revision clobbered")
	}
}

func TestFileLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.wxs", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	if got := f.Line(2); got != "two" {
		t.Fatalf("Line(2) = %q", got)
	}
	if got := f.Line(3); got != "three" {
		t.Fatalf("Line(3) = %q", got)
	}
	if got := f.Line(4); got != "" {
		t.Fatalf("Line(4) = %q", got)
	}
}
