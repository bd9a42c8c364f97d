// Package convert turns generated HTML+CSS markup into the container and
// widget tree of the Elementor page builder, together with one importable
// envelope per top-level section and usage statistics.
//
// A conversion parses the markup, drops non-visual roots, unwraps a lone
// generic wrapper, classifies every node with an ordered rule table and
// attaches custom CSS for effects the builder has no native setting for.
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deulaag/converhtmlelementor/internal/dom"
	"github.com/deulaag/converhtmlelementor/internal/style"
)

// ErrConversionFailed wraps every failure that happens after the markup was
// accepted. No partial Result accompanies it.
var ErrConversionFailed = errors.New("conversion failed")

// Sanitizer cleans embedded markup before it is stored in a text widget.
// *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(string) string
}

// Option configures a Converter.
type Option func(*Converter)

// WithResolver sets the computed-style capability. The default is an
// in-process style.Cascade.
func WithResolver(r style.Resolver) Option {
	return func(c *Converter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithIDGenerator makes every conversion draw ids from g. By default each
// conversion gets its own RandomIDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Converter) { c.ids = g }
}

// WithViewportWidth sets the layout width styles resolve against.
func WithViewportWidth(px int) Option {
	return func(c *Converter) {
		if px > 0 {
			c.viewport = px
		}
	}
}

// WithSelectorBinding controls whether custom CSS is scoped to the
// element's own wrapper class (true, the default) or keeps the builder's
// "selector" placeholder.
func WithSelectorBinding(bind bool) Option {
	return func(c *Converter) { c.bind = bind }
}

// WithSanitizer filters text-editor markup through s.
func WithSanitizer(s Sanitizer) Option {
	return func(c *Converter) { c.sanitizer = s }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// Converter converts markup. It holds configuration only and is safe for
// concurrent use as long as its resolver and id generator are.
type Converter struct {
	resolver  style.Resolver
	ids       IDGenerator
	viewport  int
	bind      bool
	sanitizer Sanitizer
	log       zerolog.Logger
}

// New returns a Converter with the given options applied.
func New(opts ...Option) *Converter {
	c := &Converter{
		resolver: style.Cascade{},
		viewport: dom.DefaultViewportWidth,
		bind:     true,
		log:      log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert runs one conversion with default options.
func Convert(markup string) (*Result, error) {
	return New().Convert(markup)
}

// Convert transforms markup into a Result. The parsed document and any
// resources the resolver acquired are released before it returns.
func (c *Converter) Convert(markup string) (*Result, error) {
	return c.ConvertContext(context.Background(), markup)
}

// ConvertContext is Convert with a context handed to resolvers that do I/O
// while preparing styles. The classification pass itself is not
// cancellable.
func (c *Converter) ConvertContext(ctx context.Context, markup string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrConversionFailed, r)
		}
	}()

	doc, err := dom.Parse(markup, dom.WithViewportWidth(c.viewport))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	defer doc.Close()

	var sheet style.Sheet
	if cr, ok := c.resolver.(style.ContextResolver); ok {
		sheet, err = cr.PrepareContext(ctx, doc)
	} else {
		sheet, err = c.resolver.Prepare(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve styles: %w", ErrConversionFailed, err)
	}
	defer func() {
		if cerr := sheet.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Msg("closing style sheet")
		}
	}()

	ids := c.ids
	if ids == nil {
		ids = &RandomIDs{}
	}
	var stats Stats
	b := &builder{sheet: sheet, ids: ids, stats: &stats, bind: c.bind, sanitizer: c.sanitizer, log: c.log}

	var roots []classifiedRoot
	for _, n := range normalizeRoots(doc.Roots()) {
		el := b.build(n)
		if el == nil {
			continue
		}
		roots = append(roots, classifiedRoot{
			name:    sectionName(n),
			id:      sliceID(n, len(roots)+1),
			element: el,
		})
	}
	res = assemble(roots, stats)
	c.log.Debug().
		Int("sections", stats.Sections).
		Int("widgets", stats.Widgets).
		Int("slices", len(res.Sections)).
		Bool("custom_css", stats.CustomCSSInjected).
		Msg("converted markup")
	return res, nil
}
