package diag

import (
	"testing"

	"frost/internal/source"
)

func TestBagSortStableOrder(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, "zzz-rule", source.Span{Start: 10, End: 12}, "late"))
	b.Add(New(SevError, "aaa-rule", source.Span{Start: 10, End: 12}, "same span, earlier code"))
	b.Add(New(SevError, "mid-rule", source.Span{Start: 2, End: 4}, "early span"))
	b.Sort()

	got := b.Items()
	if got[0].Code != "mid-rule" || got[1].Code != "aaa-rule" || got[2].Code != "zzz-rule" {
		t.Fatalf("unexpected order: %s %s %s", got[0].Code, got[1].Code, got[2].Code)
	}
}

func TestBagSortCodeBreaksSameStartTies(t *testing.T) {
	// Same file and start, different ends: rule id decides, not span end.
	b := NewBag(10)
	b.Add(New(SevWarning, "zzz-rule", source.Span{Start: 5, End: 6}, "short span, late code"))
	b.Add(New(SevWarning, "aaa-rule", source.Span{Start: 5, End: 20}, "long span, early code"))
	b.Sort()

	got := b.Items()
	if got[0].Code != "aaa-rule" || got[1].Code != "zzz-rule" {
		t.Fatalf("unexpected order: %s %s", got[0].Code, got[1].Code)
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(New(SevInfo, "a", source.Span{}, "")) {
		t.Fatal("first add rejected")
	}
	if !b.Add(New(SevInfo, "b", source.Span{}, "")) {
		t.Fatal("second add rejected")
	}
	if b.Add(New(SevInfo, "c", source.Span{}, "")) {
		t.Fatal("limit not enforced")
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d", b.Len())
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{Start: 1, End: 2}
	b.Add(New(SevError, "dup", sp, "one"))
	b.Add(New(SevError, "dup", sp, "two"))
	b.Add(New(SevError, "other", sp, "three"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("len after dedup = %d", b.Len())
	}
}

func TestHasAtLeast(t *testing.T) {
	b := NewBag(4)
	b.Add(New(SevWarning, "w", source.Span{}, ""))
	if b.HasErrors() {
		t.Fatal("no errors expected")
	}
	if !b.HasAtLeast(SevWarning) {
		t.Fatal("warning threshold should match")
	}
}
