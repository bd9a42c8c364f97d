// Package style resolves the computed styles the converter inspects. The
// capability is injected into the converter as a Resolver so classification
// can run against a real browser, a CSS cascade computed in Go, or plain
// fixture maps in tests.
package style

import (
	"context"
	"strings"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

// Property names read by the converter.
const (
	Display         = "display"
	FlexDirection   = "flex-direction"
	FlexWrap        = "flex-wrap"
	BackgroundColor = "background-color"
	BackgroundImage = "background-image"
	BoxShadow       = "box-shadow"
	BackdropFilter  = "backdrop-filter"
	BorderRadius    = "border-radius"
	Color           = "color"
)

// Properties lists every property a Sheet is expected to resolve.
var Properties = []string{
	Display, FlexDirection, FlexWrap,
	BackgroundColor, BackgroundImage,
	BoxShadow, BackdropFilter, BorderRadius, Color,
}

// Computed is a resolved style map keyed by lower-case property name. Values
// follow getComputedStyle serialisation where the resolver can produce it.
// Missing keys mean "unknown" and are treated as absent by consumers.
type Computed map[string]string

// Get returns the trimmed value of prop, or "".
func (c Computed) Get(prop string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[prop])
}

// Clone returns a shallow copy.
func (c Computed) Clone() Computed {
	out := make(Computed, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Resolver prepares style resolution for one parsed document.
type Resolver interface {
	Prepare(doc *dom.Document) (Sheet, error)
}

// ContextResolver is implemented by resolvers that perform I/O while
// preparing.
type ContextResolver interface {
	Resolver
	PrepareContext(ctx context.Context, doc *dom.Document) (Sheet, error)
}

// Sheet answers computed-style lookups for the nodes of one document. Close
// releases anything Prepare acquired.
type Sheet interface {
	Computed(n *dom.Node) Computed
	Close() error
}

// Func adapts a function to both Resolver and Sheet. It is mainly used for
// fixture styles in tests.
type Func func(n *dom.Node) Computed

func (f Func) Prepare(*dom.Document) (Sheet, error) { return f, nil }

func (f Func) Computed(n *dom.Node) Computed {
	if f == nil {
		return Computed{}
	}
	return f(n)
}

func (f Func) Close() error { return nil }

// None resolves nothing: every lookup is empty.
var None Resolver = Func(func(*dom.Node) Computed { return Computed{} })
