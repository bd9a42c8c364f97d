package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// AnnotatedHTML serialises the parsed markup with every element carrying an
// extra attribute whose value is the element's Index. It works on a copy, so
// the document itself is never mutated. Resolvers that evaluate styles in an
// external engine use the attribute to map results back to nodes.
func (d *Document) AnnotatedHTML(attrName string) string {
	if d == nil || d.closed {
		return ""
	}
	var b strings.Builder
	for c := d.container.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, d.cloneAnnotated(c, attrName))
	}
	return b.String()
}

func (d *Document) cloneAnnotated(n *html.Node, attrName string) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if node, ok := d.byRaw[n]; ok {
		cp.Attr = append(cp.Attr, html.Attribute{Key: attrName, Val: strconv.Itoa(node.Index)})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(d.cloneAnnotated(c, attrName))
	}
	return cp
}
