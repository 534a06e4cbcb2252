package fuzztests

import (
	"bytes"
	"testing"

	"frost/internal/diag"
	"frost/internal/format"
	"frost/internal/markup"
	"frost/internal/schema"
	"frost/internal/source"
	"frost/internal/testkit"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func FuzzParseDocument(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz.wxs", input)

		bag := diag.NewBag(64)
		doc, err := markup.Parse(fs, fileID, &diag.BagReporter{Bag: bag})
		if err != nil {
			return // unrecoverable input; no tree to check
		}
		if inverr := testkit.CheckDocumentInvariants(doc, fs.Get(fileID)); inverr != nil {
			t.Fatalf("invariant violated: %v\ninput: %q", inverr, input)
		}
		if !bytes.Equal(doc.Text(), fs.Get(fileID).Content) {
			t.Fatalf("document text diverged from input")
		}
	})
}

func FuzzFormatIdempotent(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz.wxs", input)
		doc, err := markup.Parse(fs, fileID, diag.NopReporter{})
		if err != nil {
			return
		}

		prefs := schema.DefaultFormatPrefs()
		once := format.Format(doc, prefs)

		id2 := fs.AddVirtual("fuzz2.wxs", once)
		doc2, err := markup.Parse(fs, id2, diag.NopReporter{})
		if err != nil {
			t.Fatalf("formatted output does not parse: %v\noutput: %q", err, once)
		}
		twice := format.Format(doc2, prefs)
		if !bytes.Equal(once, twice) {
			t.Fatalf("formatting is not a fixed point:\nonce:  %q\ntwice: %q", once, twice)
		}
	})
}
