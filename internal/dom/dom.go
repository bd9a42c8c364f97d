// Package dom loads generated markup into a detached element forest that the
// converter walks and the style resolvers inspect. Nothing here renders; the
// forest only exists for structural and computed-style inspection and is
// released by Close.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultViewportWidth is the desktop width, in CSS pixels, that layout
// dependent styles are resolved against.
const DefaultViewportWidth = 1200

// ErrClosed is returned by operations attempted on a released document.
var ErrClosed = errors.New("dom: document closed")

// Option configures Parse.
type Option func(*Document)

// WithViewportWidth overrides the fixed viewport width. Non-positive values
// keep the default.
func WithViewportWidth(px int) Option {
	return func(d *Document) {
		if px > 0 {
			d.viewport = px
		}
	}
}

// Document owns the parsed tree for the duration of one conversion.
type Document struct {
	root      *html.Node // synthetic document: html > head, body > div
	container *html.Node
	roots     []*Node
	nodes     []*Node
	byRaw     map[*html.Node]*Node
	viewport  int
	closed    bool
}

// Parse builds a Document from a markup string. The markup is parsed as the
// inner content of a <div> attached to a synthetic <body>, so stray
// <html>/<head>/<body> tags are absorbed and <style>/<meta>/<link> elements
// end up as ordinary top-level nodes, the same way a browser treats
// innerHTML assignment. Malformed markup is repaired by the HTML5 parser.
func Parse(markup string, opts ...Option) (*Document, error) {
	d := &Document{viewport: DefaultViewportWidth}
	for _, o := range opts {
		o(d)
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	frag, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	d.root, d.container = newShell()
	for _, n := range frag {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		d.container.AppendChild(n)
	}
	d.byRaw = make(map[*html.Node]*Node)
	d.roots = d.wrapChildren(d.container, nil)
	return d, nil
}

func newShell() (*html.Node, *html.Node) {
	doc := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	doc.AppendChild(htmlEl)
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	body.AppendChild(container)
	return doc, container
}

// wrapChildren wraps the element children of n in pre-order so that Index
// follows document order.
func (d *Document) wrapChildren(n *html.Node, parent *Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		node := &Node{
			Tag:    strings.ToLower(c.Data),
			Index:  len(d.nodes),
			raw:    c,
			parent: parent,
			doc:    d,
		}
		d.nodes = append(d.nodes, node)
		d.byRaw[c] = node
		node.children = d.wrapChildren(c, node)
		out = append(out, node)
	}
	return out
}

// ViewportWidth is the fixed layout width styles must be resolved against.
func (d *Document) ViewportWidth() int { return d.viewport }

// Roots returns the top-level elements of the body-equivalent container.
func (d *Document) Roots() []*Node {
	if d == nil || d.closed {
		return nil
	}
	return append([]*Node(nil), d.roots...)
}

// Nodes returns every element of the forest in document order.
func (d *Document) Nodes() []*Node {
	if d == nil || d.closed {
		return nil
	}
	return append([]*Node(nil), d.nodes...)
}

// Lookup maps a raw parser node back to its wrapper.
func (d *Document) Lookup(n *html.Node) (*Node, bool) {
	if d == nil || d.closed {
		return nil, false
	}
	node, ok := d.byRaw[n]
	return node, ok
}

// Container is the synthetic <div> holding the parsed markup. Its ancestors
// are the synthetic <body> and <html> elements.
func (d *Document) Container() *html.Node {
	if d == nil || d.closed {
		return nil
	}
	return d.container
}

// StyleSheets returns the text of every embedded <style> block in document
// order.
func (d *Document) StyleSheets() []string {
	if d == nil || d.closed {
		return nil
	}
	var out []string
	for _, n := range d.nodes {
		if n.Tag != "style" {
			continue
		}
		var b strings.Builder
		for c := n.raw.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Closed reports whether Close has been called.
func (d *Document) Closed() bool { return d == nil || d.closed }

// Close releases the tree. It is safe to call more than once.
func (d *Document) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	d.roots = nil
	d.nodes = nil
	d.byRaw = nil
	d.root = nil
	d.container = nil
	return nil
}
