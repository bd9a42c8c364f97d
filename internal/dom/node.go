package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is a read-only view of one element.
type Node struct {
	Tag   string
	Index int

	raw      *html.Node
	parent   *Node
	children []*Node
	doc      *Document
}

func (n *Node) released() bool {
	return n == nil || n.doc == nil || n.doc.closed
}

// HTML exposes the underlying parser node for selector matching.
func (n *Node) HTML() *html.Node {
	if n.released() {
		return nil
	}
	return n.raw
}

// Parent is nil for top-level nodes.
func (n *Node) Parent() *Node {
	if n.released() {
		return nil
	}
	return n.parent
}

// Children returns the element children in document order.
func (n *Node) Children() []*Node {
	if n.released() {
		return nil
	}
	return append([]*Node(nil), n.children...)
}

// HasChildren reports whether the node has at least one element child.
func (n *Node) HasChildren() bool {
	return !n.released() && len(n.children) > 0
}

// Attr returns the attribute value, or "" when absent.
func (n *Node) Attr(key string) string {
	v, _ := n.LookupAttr(key)
	return v
}

// LookupAttr returns the attribute value and whether it was present.
func (n *Node) LookupAttr(key string) (string, bool) {
	if n.released() {
		return "", false
	}
	for _, a := range n.raw.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the attribute map.
func (n *Node) Attrs() map[string]string {
	if n.released() {
		return nil
	}
	out := make(map[string]string, len(n.raw.Attr))
	for _, a := range n.raw.Attr {
		out[a.Key] = a.Val
	}
	return out
}

// ID returns the trimmed id attribute.
func (n *Node) ID() string {
	return strings.TrimSpace(n.Attr("id"))
}

// HasClass reports whether the class attribute contains the given token.
func (n *Node) HasClass(name string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// InnerHTML serialises the node's children.
func (n *Node) InnerHTML() string {
	if n.released() {
		return ""
	}
	var b strings.Builder
	for c := n.raw.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// OuterHTML serialises the node itself.
func (n *Node) OuterHTML() string {
	if n.released() {
		return ""
	}
	var b strings.Builder
	_ = html.Render(&b, n.raw)
	return b.String()
}
