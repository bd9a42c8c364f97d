package convert

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/microcosm-cc/bluemonday"

	"github.com/deulaag/converhtmlelementor/internal/dom"
	"github.com/deulaag/converhtmlelementor/internal/style"
)

const scenario = `<header id="top">Logo</header><section><h1>Title</h1><p>Short text</p></section>`

func convertPlain(t *testing.T, markup string, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithResolver(style.None), WithIDGenerator(&SequentialIDs{})}, opts...)
	res, err := New(opts...).Convert(markup)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return res
}

func TestConvert_HeaderAndSectionScenario(t *testing.T) {
	res := convertPlain(t, scenario)

	content := res.FullSite.Content
	if len(content) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(content))
	}
	if content[0].ElType != KindContainer || content[1].ElType != KindContainer {
		t.Fatalf("expected two containers, got %s and %s", content[0].ElType, content[1].ElType)
	}
	kids := content[1].Elements
	if len(kids) != 2 || kids[0].WidgetType != WidgetHeading || kids[1].WidgetType != WidgetTextEditor {
		t.Fatalf("unexpected section children: %+v", kids)
	}
	if kids[0].Settings["title"] != "Title" || kids[0].Settings["header_size"] != "h1" {
		t.Fatalf("unexpected heading settings: %v", kids[0].Settings)
	}
	if kids[1].Settings["editor"] != "Short text" {
		t.Fatalf("unexpected editor: %v", kids[1].Settings["editor"])
	}

	if len(res.Sections) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(res.Sections))
	}
	if res.Sections[0].Name != "Cabeçalho (top)" || res.Sections[1].Name != "Sessão" {
		t.Fatalf("unexpected slice names: %q, %q", res.Sections[0].Name, res.Sections[1].Name)
	}
	if res.Sections[0].ID != "top" || res.Sections[1].ID != "section-2" {
		t.Fatalf("unexpected slice ids: %q, %q", res.Sections[0].ID, res.Sections[1].ID)
	}
	if res.Stats.Sections != 2 || res.Stats.Widgets != 2 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.Stats.CustomCSSInjected {
		t.Fatalf("no style resolved, custom css must not be reported")
	}
}

func TestConvert_GoldenFullSite(t *testing.T) {
	res := convertPlain(t, scenario)
	got, err := json.Marshal(res.FullSite)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	container := `"settings":{"_custom_css":"","content_width":"full","flex_direction":"column","flex_wrap":"nowrap"}`
	want := `{"version":"0.4","title":"Site Completo AI","type":"page","content":[` +
		`{"id":"0000001","elType":"container","isInner":false,` + container + `,"elements":[]},` +
		`{"id":"0000002","elType":"container","isInner":false,` + container + `,"elements":[` +
		`{"id":"0000003","elType":"widget","widgetType":"heading","settings":{"_custom_css":"","header_size":"h1","title":"Title"},"elements":[]},` +
		`{"id":"0000004","elType":"widget","widgetType":"text-editor","settings":{"_custom_css":"","editor":"Short text"},"elements":[]}` +
		`]}]}`
	if string(got) != want {
		t.Fatalf("full site mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestConvert_CascadeStylesBindToElement(t *testing.T) {
	markup := `<style>
		body { color: #e0e0e0; }
		.hero { display: flex; background: linear-gradient(90deg, #000, #fff); border-radius: 12px; }
		.hero h1 { color: #ff0000; }
	</style>
	<section class="hero"><h1>Title</h1><p>Body</p></section>`
	res, err := New(WithIDGenerator(&SequentialIDs{})).Convert(markup)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	sec := res.FullSite.Content[0]
	if sec.Settings["flex_direction"] != "row" {
		t.Fatalf("display:flex resolves flex-direction row, got %v", sec.Settings["flex_direction"])
	}
	if _, ok := sec.Settings["background_background"]; ok {
		t.Fatalf("gradient must not map to a native background: %v", sec.Settings)
	}
	wantCSS := ".elementor-element-0000001 { background-image: linear-gradient(90deg, rgb(0, 0, 0), rgb(255, 255, 255)) !important; } " +
		".elementor-element-0000001 { border-radius: 12px; } "
	if sec.Settings["_custom_css"] != wantCSS {
		t.Fatalf("section css = %q", sec.Settings["_custom_css"])
	}
	h1 := sec.Elements[0]
	if h1.Settings["_custom_css"] != ".elementor-element-0000002 { color: rgb(255, 0, 0); } " {
		t.Fatalf("heading css = %q", h1.Settings["_custom_css"])
	}
	if p := sec.Elements[1]; p.Settings["_custom_css"] != "" {
		t.Fatalf("default text color must not be emitted, got %q", p.Settings["_custom_css"])
	}
	if !res.Stats.CustomCSSInjected {
		t.Fatalf("expected customCssInjected")
	}
}

func TestConvert_InlineStyleWithoutTrailingSemicolon(t *testing.T) {
	markup := `<style>body { color: #e0e0e0; }</style>
	<section style="display:flex;flex-direction:column"><p>a</p></section>
	<section style="background-image: linear-gradient(90deg, #000, #fff)"><p>b</p></section>`
	res, err := New(WithIDGenerator(&SequentialIDs{})).Convert(markup)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.FullSite.Content) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(res.FullSite.Content))
	}
	if got := res.FullSite.Content[0].Settings["flex_direction"]; got != "column" {
		t.Fatalf("flex_direction = %v", got)
	}
	css, _ := res.FullSite.Content[1].Settings["_custom_css"].(string)
	if !strings.Contains(css, "background-image: linear-gradient(90deg, rgb(0, 0, 0), rgb(255, 255, 255)) !important;") {
		t.Fatalf("gradient missing from custom css: %q", css)
	}
}

func TestConvert_SelectorPlaceholderKept(t *testing.T) {
	fx := style.Func(func(n *dom.Node) style.Computed {
		return style.Computed{style.BorderRadius: "4px"}
	})
	res := convertPlain(t, `<section><h2>x</h2></section>`, WithResolver(fx), WithSelectorBinding(false))
	h2 := res.FullSite.Content[0].Elements[0]
	if h2.Settings["_custom_css"] != "selector { border-radius: 4px; } " {
		t.Fatalf("unexpected css %q", h2.Settings["_custom_css"])
	}
}

func TestConvert_LongTextWithChildIsContainer(t *testing.T) {
	long := strings.Repeat("a", 70) + " <span>bold</span> tail"
	res := convertPlain(t, `<section><p>`+long+`</p><p>short <em>x</em></p><p>`+strings.Repeat("b", 80)+`</p></section>`)
	kids := res.FullSite.Content[0].Elements
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}
	if kids[0].ElType != KindContainer {
		t.Fatalf("long paragraph with a child must be a container, got %s", kids[0].WidgetType)
	}
	if len(kids[0].Elements) != 1 || kids[0].Elements[0].WidgetType != WidgetTextEditor {
		t.Fatalf("expected the span to become a text widget: %+v", kids[0].Elements)
	}
	if kids[1].WidgetType != WidgetTextEditor || kids[1].Settings["editor"] != "short <em>x</em>" {
		t.Fatalf("short paragraph with a child stays text: %+v", kids[1])
	}
	if kids[2].WidgetType != WidgetTextEditor {
		t.Fatalf("long paragraph without children stays text")
	}
}

func TestConvert_UnwrapsOneLevel(t *testing.T) {
	res := convertPlain(t, `<style>section{}</style><main><section>A</section><section>B</section><section>C</section></main>`)
	if len(res.FullSite.Content) != 3 || len(res.Sections) != 3 {
		t.Fatalf("expected 3 roots after unwrap, got %d/%d", len(res.FullSite.Content), len(res.Sections))
	}
	for i, s := range res.Sections {
		if s.Name != "Sessão" {
			t.Fatalf("slice %d name %q", i, s.Name)
		}
	}
	if res.Sections[2].ID != "section-3" {
		t.Fatalf("positional id = %q", res.Sections[2].ID)
	}
}

func TestConvert_WrapperOfWrapperKeepsInner(t *testing.T) {
	res := convertPlain(t, `<div><div><section>A</section><section>B</section></div></div>`)
	if len(res.FullSite.Content) != 1 {
		t.Fatalf("expected the inner wrapper as the only root, got %d", len(res.FullSite.Content))
	}
	inner := res.FullSite.Content[0]
	if inner.ElType != KindContainer || len(inner.Elements) != 2 {
		t.Fatalf("inner wrapper must stay a container with 2 sections: %+v", inner)
	}
	if res.Sections[0].Name != "Container" {
		t.Fatalf("unexpected name %q", res.Sections[0].Name)
	}
	if res.Stats.Sections != 3 {
		t.Fatalf("expected 3 containers, got %d", res.Stats.Sections)
	}
}

func TestConvert_NonVisualExcludedAtAnyDepth(t *testing.T) {
	res := convertPlain(t, `<script>var a</script><section>
		<script>var b</script><style>p{}</style><link rel="stylesheet" href="x.css"><meta name="x">
		<div><noscript>n</noscript><h2>kept</h2></div>
	</section>`)
	if res.Stats.Sections != 2 || res.Stats.Widgets != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	res.FullSite.Content[0].Walk(func(e *Element) {
		if e.ElType == KindWidget && e.WidgetType != WidgetHeading {
			t.Fatalf("unexpected widget %s", e.WidgetType)
		}
	})
	if len(res.Sections) != 1 {
		t.Fatalf("expected 1 slice, got %d", len(res.Sections))
	}
}

func TestConvert_RuleOrderAndWidgetSettings(t *testing.T) {
	res := convertPlain(t, `<section>
		<img src="img/hero.png" alt="">
		<button>Buy</button>
		<a class="btn primary" href="https://example.com/go">Go</a>
		<a href="/plain">Plain</a>
		<input type="email" name="e">
		<textarea rows="2">hi</textarea>
		<label>Name</label>
	</section>`)
	kids := res.FullSite.Content[0].Elements
	types := make([]string, 0, len(kids))
	for _, k := range kids {
		if k.ElType == KindContainer {
			types = append(types, "container")
			continue
		}
		types = append(types, k.WidgetType)
	}
	want := "image,button,button,container,html,html,text-editor"
	if got := strings.Join(types, ","); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if img := kids[0].Settings["image"].(URLSetting); img.URL != "img/hero.png" {
		t.Fatalf("image url = %q", img.URL)
	}
	if l := kids[1].Settings["link"].(URLSetting); l.URL != "#" || kids[1].Settings["text"] != "Buy" {
		t.Fatalf("button settings = %v", kids[1].Settings)
	}
	if l := kids[2].Settings["link"].(URLSetting); l.URL != "https://example.com/go" {
		t.Fatalf("anchor button url = %q", l.URL)
	}
	if kids[4].Settings["html"] != `<input type="email" name="e"/>` {
		t.Fatalf("html widget = %v", kids[4].Settings["html"])
	}
	if _, ok := kids[4].Settings["_custom_css"]; ok {
		t.Fatalf("form fields carry no custom css")
	}
}

func TestConvert_ContainerLayoutFromComputedStyle(t *testing.T) {
	styles := map[string]style.Computed{
		"row":    {style.Display: "flex", style.FlexDirection: "row", style.FlexWrap: "wrap"},
		"col":    {style.Display: "flex", style.FlexDirection: "column", style.FlexWrap: "wrap-reverse"},
		"grid":   {style.Display: "grid", style.FlexDirection: "row"},
		"solid":  {style.BackgroundColor: "rgb(10, 20, 30)"},
		"clear":  {style.BackgroundColor: "rgba(0, 0, 0, 0)"},
		"clearw": {style.BackgroundColor: "rgba(255, 255, 255, 0)"},
		"rowrev": {style.Display: "flex", style.FlexDirection: "row-reverse"},
	}
	fx := style.Func(func(n *dom.Node) style.Computed { return styles[n.ID()] })
	res := convertPlain(t, `<div id="row"></div><div id="col"></div><div id="grid"></div>
		<div id="solid"></div><div id="clear"></div><div id="rowrev"></div><div id="clearw"></div>`, WithResolver(fx))

	byID := map[string]*Element{}
	for i, s := range res.Sections {
		byID[s.ID] = res.FullSite.Content[i]
	}
	check := func(id, key string, want any) {
		t.Helper()
		if got := byID[id].Settings[key]; got != want {
			t.Fatalf("%s: %s = %v, want %v", id, key, got, want)
		}
	}
	check("row", "flex_direction", "row")
	check("row", "flex_wrap", "wrap")
	check("col", "flex_direction", "column")
	check("col", "flex_wrap", "nowrap")
	check("grid", "flex_direction", "column")
	check("rowrev", "flex_direction", "column")
	check("solid", "background_background", "classic")
	check("solid", "background_color", "rgb(10, 20, 30)")
	for _, id := range []string{"clear", "clearw"} {
		if _, ok := byID[id].Settings["background_color"]; ok {
			t.Fatalf("%s: transparent background must not be mapped", id)
		}
	}
}

func TestConvert_Invariants(t *testing.T) {
	markup := `<nav id="menu"><ul><li><a href="#a">A</a></li><li><a class="btn" href="#b">B</a></li></ul></nav>
	<section><div class="grid"><article><h3>One</h3><p>x</p><img src="a.png"></article>
	<article><h3>Two</h3><span>y</span><input name="q"></article></div></section>
	<aside><label>note</label></aside><footer id="f">Fim</footer>`
	res := convertPlain(t, markup)

	var containers, widgets int
	for _, root := range res.FullSite.Content {
		root.Walk(func(e *Element) {
			switch e.ElType {
			case KindContainer:
				containers++
				if e.IsInner == nil || *e.IsInner {
					t.Fatalf("container %s must carry isInner=false", e.ID)
				}
			case KindWidget:
				widgets++
				if e.Elements == nil || len(e.Elements) != 0 {
					t.Fatalf("widget %s has children", e.ID)
				}
			default:
				t.Fatalf("unexpected elType %q", e.ElType)
			}
		})
	}
	if containers != res.Stats.Sections || widgets != res.Stats.Widgets {
		t.Fatalf("counters %+v disagree with tree (%d containers, %d widgets)", res.Stats, containers, widgets)
	}
	if len(res.Sections) != len(res.FullSite.Content) {
		t.Fatalf("one slice per top-level node expected")
	}
	for i, s := range res.Sections {
		if len(s.JSONContent.Content) != 1 || s.JSONContent.Content[0] != res.FullSite.Content[i] {
			t.Fatalf("slice %d must wrap exactly its own root", i)
		}
		if s.JSONContent.Version != EnvelopeVersion || s.JSONContent.Type != PageType || s.JSONContent.Title != s.Name {
			t.Fatalf("slice %d envelope = %+v", i, s.JSONContent)
		}
	}
	names := []string{"Menu de Navegação (menu)", "Sessão", "Lateral (Aside)", "Rodapé (f)"}
	for i, want := range names {
		if res.Sections[i].Name != want {
			t.Fatalf("slice %d name %q, want %q", i, res.Sections[i].Name, want)
		}
	}

	seen := map[string]bool{}
	for _, root := range res.FullSite.Content {
		root.Walk(func(e *Element) {
			if seen[e.ID] {
				t.Fatalf("duplicate id %s", e.ID)
			}
			seen[e.ID] = true
		})
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), `"elements":null`) {
		t.Fatalf("elements must serialise as []")
	}
	for _, key := range []string{`"full_site"`, `"json_content"`, `"customCssInjected"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("missing %s in %s", key, raw)
		}
	}
}

func TestConvert_EmptyMarkup(t *testing.T) {
	res := convertPlain(t, "   ")
	if res.FullSite.Content == nil || len(res.FullSite.Content) != 0 || len(res.Sections) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

type closeCounter struct {
	style.Func
	closed int
	err    error
}

func (c *closeCounter) Prepare(*dom.Document) (style.Sheet, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c, nil
}

func (c *closeCounter) Close() error { c.closed++; return nil }

func TestConvert_PanicBecomesConversionFailure(t *testing.T) {
	r := &closeCounter{Func: func(n *dom.Node) style.Computed {
		if n.Tag == "h1" {
			panic("boom")
		}
		return nil
	}}
	res, err := New(WithResolver(r)).Convert(scenario)
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed, got %v", err)
	}
	if res != nil {
		t.Fatalf("no partial result expected")
	}
	if r.closed != 1 {
		t.Fatalf("sheet must be closed exactly once, got %d", r.closed)
	}
}

func TestConvert_ResolverErrorIsWrapped(t *testing.T) {
	cause := errors.New("no chrome")
	_, err := New(WithResolver(&closeCounter{err: cause})).Convert(scenario)
	if !errors.Is(err, ErrConversionFailed) || !errors.Is(err, cause) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestConvert_SanitizesEditorMarkup(t *testing.T) {
	res := convertPlain(t, `<section><p>Hi <b onclick="x()">there</b></p></section>`,
		WithSanitizer(bluemonday.UGCPolicy()))
	p := res.FullSite.Content[0].Elements[0]
	if p.Settings["editor"] != "Hi <b>there</b>" {
		t.Fatalf("editor = %q", p.Settings["editor"])
	}
}
