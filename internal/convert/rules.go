package convert

import (
	"strings"
	"unicode/utf8"

	"github.com/deulaag/converhtmlelementor/internal/dom"
	"github.com/deulaag/converhtmlelementor/internal/style"
)

// TextContainerThreshold is the plain-text length, in characters, above
// which a text tag with element children is treated as a layout wrapper.
const TextContainerThreshold = 50

// ButtonClass marks anchors that render as buttons.
const ButtonClass = "btn"

// DefaultLinkURL is used when a button has no target.
const DefaultLinkURL = "#"

// rule is one entry of the classification table. The first rule whose match
// returns true builds the node; a node no widget rule claims becomes a
// container.
type rule struct {
	name  string
	match func(n *dom.Node) bool
	build func(b *builder, n *dom.Node, c style.Computed) *Element
}

var rules = []rule{
	{name: "heading", match: isHeading, build: buildHeading},
	{name: "text", match: isText, build: buildText},
	{name: "image", match: tagIs("img"), build: buildImage},
	{name: "button", match: isButton, build: buildButton},
	{name: "form-field", match: tagIs("input", "textarea"), build: buildFormField},
}

func tagIs(tags ...string) func(*dom.Node) bool {
	return func(n *dom.Node) bool {
		for _, t := range tags {
			if n.Tag == t {
				return true
			}
		}
		return false
	}
}

func isHeading(n *dom.Node) bool {
	return len(n.Tag) == 2 && n.Tag[0] == 'h' && n.Tag[1] >= '1' && n.Tag[1] <= '6'
}

// isText matches p, span and label unless the node has element children and
// more than TextContainerThreshold characters of text.
func isText(n *dom.Node) bool {
	switch n.Tag {
	case "p", "span", "label":
	default:
		return false
	}
	if n.HasChildren() && utf8.RuneCountInString(n.Text()) > TextContainerThreshold {
		return false
	}
	return true
}

func isButton(n *dom.Node) bool {
	return n.Tag == "button" || (n.Tag == "a" && n.HasClass(ButtonClass))
}

func buildHeading(b *builder, n *dom.Node, c style.Computed) *Element {
	return b.widget(WidgetHeading, Settings{
		"title":       n.Text(),
		"header_size": n.Tag,
	}, c)
}

func buildText(b *builder, n *dom.Node, c style.Computed) *Element {
	return b.widget(WidgetTextEditor, Settings{
		"editor": b.sanitize(n.InnerHTML()),
	}, c)
}

func buildImage(b *builder, n *dom.Node, c style.Computed) *Element {
	return b.widget(WidgetImage, Settings{
		"image": URLSetting{URL: n.Attr("src")},
	}, c)
}

func buildButton(b *builder, n *dom.Node, c style.Computed) *Element {
	href := strings.TrimSpace(n.Attr("href"))
	if href == "" {
		href = DefaultLinkURL
	}
	return b.widget(WidgetButton, Settings{
		"text": n.Text(),
		"link": URLSetting{URL: href},
	}, c)
}

// buildFormField embeds the field's own markup; form widgets of the page
// builder are not available in its free tier, so no styles are extracted.
func buildFormField(b *builder, n *dom.Node, _ style.Computed) *Element {
	return b.widget(WidgetHTML, Settings{
		"html": n.OuterHTML(),
	}, nil)
}
