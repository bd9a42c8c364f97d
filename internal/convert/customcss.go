package convert

import (
	"strings"

	"github.com/deulaag/converhtmlelementor/internal/style"
)

// SelectorPlaceholder is the token the page builder replaces with the
// element's own wrapper selector inside custom CSS.
const SelectorPlaceholder = "selector"

// defaultTextColor is the body text color generated pages are styled with;
// matching text needs no color override.
const defaultTextColor = "rgb(224, 224, 224)"

// CSSTemplate is a custom CSS fragment whose rules still target the
// SelectorPlaceholder. Nothing is emitted for an empty template.
type CSSTemplate struct {
	blocks []string // declaration blocks, braces included
}

// Empty reports whether no rule was extracted.
func (t CSSTemplate) Empty() bool { return len(t.blocks) == 0 }

// Raw renders the fragment with the placeholder selector left in place.
func (t CSSTemplate) Raw() string { return t.Bind(SelectorPlaceholder) }

// Bind renders the fragment with every rule scoped to sel. Each rule is
// followed by a single space.
func (t CSSTemplate) Bind(sel string) string {
	var b strings.Builder
	for _, block := range t.blocks {
		b.WriteString(sel)
		b.WriteByte(' ')
		b.WriteString(block)
		b.WriteByte(' ')
	}
	return b.String()
}

// ElementSelector is the CSS selector of the wrapper the page builder
// renders for the element with the given id.
func ElementSelector(id string) string {
	return ".elementor-element-" + id
}

type cssExtractor struct {
	name    string
	extract func(c style.Computed) (string, bool)
}

// cssExtractors run in order; each one is independent of the others.
var cssExtractors = []cssExtractor{
	{"box-shadow", func(c style.Computed) (string, bool) {
		v := c.Get(style.BoxShadow)
		if v == "" || v == "none" || !strings.Contains(v, "rgba") {
			return "", false
		}
		return "{ box-shadow: " + v + "; }", true
	}},
	{"backdrop-filter", func(c style.Computed) (string, bool) {
		v := c.Get(style.BackdropFilter)
		if v == "" || v == "none" {
			return "", false
		}
		return "{ backdrop-filter: " + v + "; -webkit-backdrop-filter: " + v + "; }", true
	}},
	{"gradient", func(c style.Computed) (string, bool) {
		v := c.Get(style.BackgroundImage)
		if !strings.Contains(v, "gradient") {
			return "", false
		}
		return "{ background-image: " + v + " !important; }", true
	}},
	{"border-radius", func(c style.Computed) (string, bool) {
		v := c.Get(style.BorderRadius)
		if v == "" || v == "0px" || v == "0" {
			return "", false
		}
		return "{ border-radius: " + v + "; }", true
	}},
	{"color", func(c style.Computed) (string, bool) {
		v := c.Get(style.Color)
		if v == "" || v == defaultTextColor {
			return "", false
		}
		return "{ color: " + v + "; }", true
	}},
}

// extractCustomCSS captures the effects the page builder's native settings
// cannot express. Unknown or missing style values count as absent.
func extractCustomCSS(c style.Computed) CSSTemplate {
	var t CSSTemplate
	for _, x := range cssExtractors {
		if block, ok := x.extract(c); ok {
			t.blocks = append(t.blocks, block)
		}
	}
	return t
}
