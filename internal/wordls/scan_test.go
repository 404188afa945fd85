package wordls

import (
	"testing"
)

func TestScan(t *testing.T) {
	text := "let foo = bar\nfunc  baz(x)\n42abc def\nlet\nq"
	want := []struct {
		name string
		def  bool
	}{
		{"foo", true},
		{"bar", false},
		{"baz", true},
		{"x", false},
		{"q", false},
	}
	got := scan(text)
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Def != w.def {
			t.Fatalf("token %d: got %+v, want %s def=%v", i, got[i], w.name, w.def)
		}
		if text[got[i].Start:got[i].End] != w.name {
			t.Fatalf("token %d: span %d-%d covers %q", i, got[i].Start, got[i].End, text[got[i].Start:got[i].End])
		}
	}
}

func TestScanNormalizesNames(t *testing.T) {
	composed := scan("let caf\u00e9")
	decomposed := scan("cafe\u0301")
	if len(composed) != 1 || len(decomposed) != 1 {
		t.Fatalf("unexpected tokens %+v %+v", composed, decomposed)
	}
	if composed[0].Name != decomposed[0].Name {
		t.Fatalf("names differ after normalization: %q vs %q", composed[0].Name, decomposed[0].Name)
	}
	if decomposed[0].End != len("cafe\u0301") {
		t.Fatalf("combining mark must stay inside the token, end=%d", decomposed[0].End)
	}
}

func TestIndexTokenAt(t *testing.T) {
	idx := NewIndex()
	idx.Update("file:///a", "ab cd")
	tests := []struct {
		offset int
		want   string
		ok     bool
	}{
		{0, "ab", true},
		{2, "ab", true},
		{3, "cd", true},
		{5, "cd", true},
		{6, "", false},
	}
	for _, tt := range tests {
		tok, ok := idx.TokenAt("file:///a", tt.offset)
		if ok != tt.ok || tok.Name != tt.want {
			t.Fatalf("TokenAt(%d) = %q, %v; want %q, %v", tt.offset, tok.Name, ok, tt.want, tt.ok)
		}
	}
	if _, ok := idx.TokenAt("file:///missing", 0); ok {
		t.Fatal("unexpected token in unknown document")
	}
}

func TestIndexDefinitionsAcrossDocuments(t *testing.T) {
	idx := NewIndex()
	idx.Update("file:///b", "let x\nx")
	idx.Update("file:///a", "x def x")
	defs := idx.Definitions("x")
	if len(defs) != 2 || defs[0].URI != "file:///a" || defs[1].URI != "file:///b" {
		t.Fatalf("unexpected definitions %+v", defs)
	}
	if n := len(idx.Occurrences("x")); n != 4 {
		t.Fatalf("expected 4 occurrences, got %d", n)
	}
	idx.Remove("file:///a")
	if idx.Has("file:///a") || len(idx.URIs()) != 1 {
		t.Fatalf("remove failed: %v", idx.URIs())
	}
}
