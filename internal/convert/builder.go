package convert

import (
	"github.com/rs/zerolog"

	"github.com/deulaag/converhtmlelementor/internal/dom"
	"github.com/deulaag/converhtmlelementor/internal/style"
)

// builder holds the state of one conversion pass. It is never shared
// between calls.
type builder struct {
	sheet     style.Sheet
	ids       IDGenerator
	stats     *Stats
	bind      bool
	sanitizer Sanitizer
	log       zerolog.Logger
}

// build classifies n and its subtree. Non-visual nodes yield nil.
func (b *builder) build(n *dom.Node) *Element {
	if nonVisual[n.Tag] {
		return nil
	}
	c := b.sheet.Computed(n)
	if c == nil {
		c = style.Computed{}
	}
	for _, r := range rules {
		if r.match(n) {
			b.log.Trace().Str("tag", n.Tag).Int("index", n.Index).Str("rule", r.name).Msg("classified")
			return r.build(b, n, c)
		}
	}
	return b.container(n, c)
}

func (b *builder) widget(kind string, settings Settings, c style.Computed) *Element {
	b.stats.Widgets++
	el := &Element{
		ID:         b.ids.NewID(),
		ElType:     KindWidget,
		WidgetType: kind,
		Settings:   settings,
		Elements:   []*Element{},
	}
	if c != nil {
		b.attachCSS(el, extractCustomCSS(c))
	}
	return el
}

// container maps any remaining tag onto a flex container. Only an explicit
// flex row keeps the row direction; block, grid and column layouts stack.
func (b *builder) container(n *dom.Node, c style.Computed) *Element {
	b.stats.Sections++
	direction := "column"
	if c.Get(style.Display) == "flex" && c.Get(style.FlexDirection) == "row" {
		direction = "row"
	}
	wrap := "nowrap"
	if c.Get(style.FlexWrap) == "wrap" {
		wrap = "wrap"
	}
	inner := false
	el := &Element{
		ID:      b.ids.NewID(),
		ElType:  KindContainer,
		IsInner: &inner,
		Settings: Settings{
			"content_width":  "full",
			"flex_direction": direction,
			"flex_wrap":      wrap,
		},
		Elements: []*Element{},
	}
	b.attachCSS(el, extractCustomCSS(c))

	// Gradients stay in custom CSS; only a solid color maps natively.
	if bg := c.Get(style.BackgroundColor); bg != "" && !style.IsTransparent(bg) {
		el.Settings["background_background"] = "classic"
		el.Settings["background_color"] = bg
	}

	for _, child := range n.Children() {
		if out := b.build(child); out != nil {
			el.Elements = append(el.Elements, out)
		}
	}
	return el
}

func (b *builder) attachCSS(el *Element, t CSSTemplate) {
	css := t.Raw()
	if b.bind {
		css = t.Bind(ElementSelector(el.ID))
	}
	el.Settings["_custom_css"] = css
	if !t.Empty() {
		b.stats.CustomCSSInjected = true
	}
}

func (b *builder) sanitize(markup string) string {
	if b.sanitizer == nil {
		return markup
	}
	return b.sanitizer.Sanitize(markup)
}
