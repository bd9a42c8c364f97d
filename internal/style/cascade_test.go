package style

import (
	"testing"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

func prepare(t *testing.T, markup string, opts ...dom.Option) (*dom.Document, Sheet) {
	t.Helper()
	doc, err := dom.Parse(markup, opts...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(func() { _ = doc.Close() })
	sheet, err := Cascade{}.Prepare(doc)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	t.Cleanup(func() { _ = sheet.Close() })
	return doc, sheet
}

func find(t *testing.T, doc *dom.Document, tag string) *dom.Node {
	t.Helper()
	for _, n := range doc.Nodes() {
		if n.Tag == tag {
			return n
		}
	}
	t.Fatalf("no <%s> in document", tag)
	return nil
}

func TestCascade_InitialValues(t *testing.T) {
	doc, sheet := prepare(t, `<section><span>x</span></section>`)
	sec := sheet.Computed(find(t, doc, "section"))
	want := map[string]string{
		Display:         "block",
		FlexDirection:   "row",
		FlexWrap:        "nowrap",
		BackgroundColor: "rgba(0, 0, 0, 0)",
		BackgroundImage: "none",
		BoxShadow:       "none",
		BackdropFilter:  "none",
		BorderRadius:    "0px",
		Color:           "rgb(0, 0, 0)",
	}
	for k, v := range want {
		if sec.Get(k) != v {
			t.Fatalf("%s = %q, want %q", k, sec.Get(k), v)
		}
	}
	if got := sheet.Computed(find(t, doc, "span")).Get(Display); got != "inline" {
		t.Fatalf("span display = %q", got)
	}
}

func TestCascade_SpecificityImportantAndInline(t *testing.T) {
	doc, sheet := prepare(t, `<style>
		div { background-color: red; }
		.card { background-color: #00ff00; display: flex; flex-direction: column; }
		#hero { color: #123456 !important; }
		div.card { border-radius: 8px; }
	</style>
	<div id="hero" class="card" style="color: white; flex-direction: row">x</div>`)
	c := sheet.Computed(find(t, doc, "div"))
	if c.Get(BackgroundColor) != "rgb(0, 255, 0)" {
		t.Fatalf("background = %q", c.Get(BackgroundColor))
	}
	if c.Get(Color) != "rgb(18, 52, 86)" {
		t.Fatalf("important color lost to inline: %q", c.Get(Color))
	}
	if c.Get(FlexDirection) != "row" || c.Get(Display) != "flex" {
		t.Fatalf("inline declaration did not win: %q %q", c.Get(Display), c.Get(FlexDirection))
	}
	if c.Get(BorderRadius) != "8px" {
		t.Fatalf("radius = %q", c.Get(BorderRadius))
	}
}

func TestCascade_ColorInheritsAndVarsResolve(t *testing.T) {
	doc, sheet := prepare(t, `<style>
		:root, body { --brand: #ff0000; --glass: blur(10px); }
		header { color: var(--brand); background: var(--missing, linear-gradient(90deg, #000, transparent)); }
		nav { backdrop-filter: var(--glass); }
	</style>
	<header><nav><a href="#">x</a></nav></header>`)
	h := sheet.Computed(find(t, doc, "header"))
	if h.Get(Color) != "rgb(255, 0, 0)" {
		t.Fatalf("header color = %q", h.Get(Color))
	}
	if h.Get(BackgroundImage) != "linear-gradient(90deg, rgb(0, 0, 0), rgba(0, 0, 0, 0))" {
		t.Fatalf("background image = %q", h.Get(BackgroundImage))
	}
	if h.Get(BackgroundColor) != Transparent {
		t.Fatalf("background color = %q", h.Get(BackgroundColor))
	}
	if got := sheet.Computed(find(t, doc, "a")).Get(Color); got != "rgb(255, 0, 0)" {
		t.Fatalf("inherited color = %q", got)
	}
	if got := sheet.Computed(find(t, doc, "nav")).Get(BackdropFilter); got != "blur(10px)" {
		t.Fatalf("backdrop = %q", got)
	}
}

func TestCascade_MediaQueriesUseViewport(t *testing.T) {
	markup := `<style>
		.row { display: flex; flex-flow: column wrap; }
		@media (min-width: 768px) { .row { flex-direction: row; } }
		@media print { .row { display: none; } }
	</style><div class="row">x</div>`

	doc, sheet := prepare(t, markup)
	c := sheet.Computed(find(t, doc, "div"))
	if c.Get(FlexDirection) != "row" || c.Get(FlexWrap) != "wrap" || c.Get(Display) != "flex" {
		t.Fatalf("desktop: %v", c)
	}

	doc, sheet = prepare(t, markup, dom.WithViewportWidth(375))
	c = sheet.Computed(find(t, doc, "div"))
	if c.Get(FlexDirection) != "column" {
		t.Fatalf("mobile flex-direction = %q", c.Get(FlexDirection))
	}
}

func TestCascade_ShadowAndWebkitAlias(t *testing.T) {
	doc, sheet := prepare(t, `<style>
		.glass { -webkit-backdrop-filter: blur(4px); box-shadow: 0 4px 6px rgba(0,0,0,.1); border-radius: 0; }
	</style><div class="glass"></div>`)
	c := sheet.Computed(find(t, doc, "div"))
	if c.Get(BoxShadow) != "rgba(0, 0, 0, 0.1) 0px 4px 6px 0px" {
		t.Fatalf("shadow = %q", c.Get(BoxShadow))
	}
	if c.Get(BackdropFilter) != "blur(4px)" {
		t.Fatalf("backdrop = %q", c.Get(BackdropFilter))
	}
	if c.Get(BorderRadius) != "0px" {
		t.Fatalf("radius = %q", c.Get(BorderRadius))
	}
}

func TestCascade_ClosedDocument(t *testing.T) {
	doc, err := dom.Parse("<div></div>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_ = doc.Close()
	if _, err := (Cascade{}).Prepare(doc); err == nil {
		t.Fatalf("expected error for closed document")
	}
}

func TestBorderRadiusSerialisation(t *testing.T) {
	cases := map[string]string{
		"8px":              "8px",
		"1rem 1rem":        "16px",
		"4px 8px":          "4px 8px",
		"4px 8px 4px 8px":  "4px 8px",
		"50%":              "50%",
		"10px / 20px":      "10px / 20px",
		"0 0 12px 12px":    "0px 0px 12px 12px",
	}
	for in, want := range cases {
		if got := serializeRadius(expandRadius(in)); got != want {
			t.Fatalf("radius %q -> %q, want %q", in, got, want)
		}
	}
}

func TestCascade_InlineLastDeclarationWithoutSemicolon(t *testing.T) {
	doc, sheet := prepare(t, `<section style="display:flex;flex-direction:column">a</section>
	<div style="background-image: linear-gradient(90deg, #000, #fff)">b</div>`)
	s := sheet.Computed(find(t, doc, "section"))
	if s.Get(Display) != "flex" || s.Get(FlexDirection) != "column" {
		t.Fatalf("section = %q %q", s.Get(Display), s.Get(FlexDirection))
	}
	d := sheet.Computed(find(t, doc, "div"))
	if d.Get(BackgroundImage) != "linear-gradient(90deg, rgb(0, 0, 0), rgb(255, 255, 255))" {
		t.Fatalf("background image = %q", d.Get(BackgroundImage))
	}
}

func TestCascade_BadBlockKeepsRestOfSheet(t *testing.T) {
	doc, sheet := prepare(t, `<style>
		@-webkit-keyframes glow { from { opacity: 0 } to { opacity: 1 } }
		.card { border-radius: 12px }
	</style>
	<div class="card">x</div>`)
	if got := sheet.Computed(find(t, doc, "div")).Get(BorderRadius); got != "12px" {
		t.Fatalf("radius = %q", got)
	}
}

func TestSplitTopLevelBlocks(t *testing.T) {
	got := splitTopLevelBlocks(`@import "a;b.css"; /* x { } */ .a { color: red } @media (x) { .b { c: d } }`)
	want := []string{`@import "a;b.css";`, `/* x { } */ .a { color: red }`, `@media (x) { .b { c: d } }`}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d = %q, want %q", i, got[i], want[i])
		}
	}
}
