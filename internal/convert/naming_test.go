package convert

import (
	"testing"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

func TestSectionNameAndSliceID(t *testing.T) {
	doc, err := dom.Parse(`<header></header><footer id=" end "></footer><nav></nav><section id="hero"></section>
		<article></article><aside id="side"></aside><form></form>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer doc.Close()

	want := []struct{ name, id string }{
		{"Cabeçalho", "section-1"},
		{"Rodapé (end)", "end"},
		{"Menu de Navegação", "section-3"},
		{"Sessão (hero)", "hero"},
		{"Artigo", "section-5"},
		{"Lateral (Aside) (side)", "side"},
		{"Container", "section-7"},
	}
	roots := doc.Roots()
	if len(roots) != len(want) {
		t.Fatalf("expected %d roots, got %d", len(want), len(roots))
	}
	for i, n := range roots {
		if got := sectionName(n); got != want[i].name {
			t.Fatalf("%s: name %q, want %q", n.Tag, got, want[i].name)
		}
		if got := sliceID(n, i+1); got != want[i].id {
			t.Fatalf("%s: id %q, want %q", n.Tag, got, want[i].id)
		}
	}
}

func TestIDGenerators(t *testing.T) {
	var r RandomIDs
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := r.NewID()
		if len(id) != IDLength {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	var s SequentialIDs
	if a, b := s.NewID(), s.NewID(); a != "0000001" || b != "0000002" {
		t.Fatalf("sequential ids %q %q", a, b)
	}
}

func TestNormalizeRoots(t *testing.T) {
	cases := []struct {
		markup string
		want   int
	}{
		{`<div><section></section><section></section><section></section></div>`, 3},
		{`<main><script></script><header></header><footer></footer></main>`, 2},
		{`<div><div><section></section><section></section></div></div>`, 1},
		{`<section><div></div></section>`, 1},
		{`<div></div><div></div>`, 2},
		{`<meta charset="utf-8"><link rel="icon"><div><p>a</p><p>b</p></div>`, 2},
		{`<article><section></section><section></section></article>`, 1},
	}
	for _, c := range cases {
		doc, err := dom.Parse(c.markup)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := len(normalizeRoots(doc.Roots())); got != c.want {
			t.Fatalf("%s: got %d roots, want %d", c.markup, got, c.want)
		}
		_ = doc.Close()
	}
}
