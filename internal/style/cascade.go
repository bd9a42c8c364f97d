package style

import (
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	cssast "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

// Cascade resolves computed styles in process: embedded <style> sheets and
// inline style attributes are cascaded per element with selector
// specificity, !important, custom properties and @media queries evaluated
// against the document's viewport. No layout is performed, so only the
// properties in Properties are produced.
type Cascade struct {
	// ViewportHeight is used for height and orientation media features.
	// Zero means DefaultViewportHeight.
	ViewportHeight int
}

// Prepare parses every stylesheet of doc once.
func (c Cascade) Prepare(doc *dom.Document) (Sheet, error) {
	if doc == nil || doc.Closed() {
		return nil, dom.ErrClosed
	}
	vp := viewport{width: doc.ViewportWidth(), height: c.ViewportHeight}
	if vp.height <= 0 {
		vp.height = DefaultViewportHeight
	}
	s := &cascadeSheet{doc: doc, vp: vp, memo: make(map[*html.Node]*resolved)}
	order := 0
	for _, txt := range doc.StyleSheets() {
		s.rules, order = parseStyleSheet(txt, order, vp, s.rules)
	}
	log.Debug().Str("stage", "style").Int("rules", len(s.rules)).Int("viewport", vp.width).Msg("cascade prepared")
	return s, nil
}

type declaration struct {
	property  string
	value     string
	important bool
}

type styleRule struct {
	selector     cascadia.Sel
	specificity  cascadia.Specificity
	declarations []declaration
	order        int
}

// inlineSpecificity ranks style attributes above any selector.
var inlineSpecificity = cascadia.Specificity{1 << 12, 0, 0}

func parseStyleSheet(txt string, order int, vp viewport, into []styleRule) ([]styleRule, int) {
	trimmed := strings.TrimSpace(txt)
	if trimmed == "" {
		return into, order
	}
	var rules []*cssast.Rule
	if sheet, err := parser.Parse(trimmed); err == nil {
		rules = sheet.Rules
	} else {
		// One bad block rejects the whole sheet; keep the blocks that parse.
		log.Debug().Err(err).Str("stage", "style").Msg("stylesheet failed to parse; retrying per block")
		for _, block := range splitTopLevelBlocks(trimmed) {
			part, err := parser.Parse(block)
			if err != nil {
				log.Debug().Err(err).Str("stage", "style").Msg("skipping unparsable block")
				continue
			}
			rules = append(rules, part.Rules...)
		}
	}
	var walk func([]*cssast.Rule)
	walk = func(list []*cssast.Rule) {
		for _, rule := range list {
			if rule == nil {
				continue
			}
			switch rule.Kind {
			case cssast.AtRule:
				switch strings.ToLower(strings.TrimSpace(rule.Name)) {
				case "@media":
					if mediaRuleActive(rule.Prelude, vp) {
						walk(rule.Rules)
					}
				case "@keyframes", "@-webkit-keyframes", "@font-face", "@page":
				default:
					if rule.EmbedsRules() {
						walk(rule.Rules)
					}
				}
			case cssast.QualifiedRule:
				decls := convertDeclarations(rule.Declarations)
				if len(decls) == 0 || len(rule.Selectors) == 0 {
					continue
				}
				for _, text := range rule.Selectors {
					sel, err := cascadia.ParseWithPseudoElement(text)
					if err != nil {
						log.Debug().Err(err).Str("selector", text).Msg("skipping unsupported selector")
						continue
					}
					if sel.PseudoElement() != "" {
						continue
					}
					into = append(into, styleRule{selector: sel, specificity: sel.Specificity(), declarations: decls, order: order})
					order++
				}
			}
		}
	}
	walk(rules)
	return into, order
}

// splitTopLevelBlocks cuts a stylesheet into its top-level statements: rule
// blocks closed at brace depth zero and at-rule statements ended by ';'.
// Strings and comments are skipped over.
func splitTopLevelBlocks(txt string) []string {
	var out []string
	depth, start := 0, 0
	flush := func(end int) {
		if part := strings.TrimSpace(txt[start:end]); part != "" {
			out = append(out, part)
		}
		start = end
	}
	for i := 0; i < len(txt); i++ {
		switch c := txt[i]; c {
		case '"', '\'':
			for i++; i < len(txt) && txt[i] != c; i++ {
				if txt[i] == '\\' {
					i++
				}
			}
		case '/':
			if i+1 < len(txt) && txt[i+1] == '*' {
				end := strings.Index(txt[i+2:], "*/")
				if end < 0 {
					i = len(txt)
				} else {
					i += end + 3
				}
			}
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				flush(i + 1)
			}
		case ';':
			if depth == 0 {
				flush(i + 1)
			}
		}
	}
	if start < len(txt) {
		flush(len(txt))
	}
	return out
}

func convertDeclarations(list []*cssast.Declaration) []declaration {
	out := make([]declaration, 0, len(list))
	for _, d := range list {
		if d == nil {
			continue
		}
		prop := strings.TrimSpace(d.Property)
		if !strings.HasPrefix(prop, "--") {
			prop = strings.ToLower(prop)
		}
		val := strings.TrimSpace(d.Value)
		if prop == "" || val == "" {
			continue
		}
		out = append(out, declaration{property: prop, value: val, important: d.Important})
	}
	return out
}

type cascadeSheet struct {
	doc   *dom.Document
	vp    viewport
	rules []styleRule
	memo  map[*html.Node]*resolved
}

type resolved struct {
	props Computed
	vars  map[string]string
}

func (s *cascadeSheet) Computed(n *dom.Node) Computed {
	raw := n.HTML()
	if raw == nil || s.memo == nil {
		return Computed{}
	}
	return s.resolve(raw).props.Clone()
}

func (s *cascadeSheet) Close() error {
	s.memo = nil
	s.rules = nil
	return nil
}

// resolve computes the style of an element, resolving its ancestors first so
// inherited values are available. The synthetic wrapper elements of the
// document take part like any other element.
func (s *cascadeSheet) resolve(n *html.Node) *resolved {
	if r, ok := s.memo[n]; ok {
		return r
	}
	var parent *resolved
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		parent = s.resolve(p)
	}
	r := s.compute(n, parent)
	s.memo[n] = r
	return r
}

type cascaded struct {
	declaration
	spec  cascadia.Specificity
	order int
}

// matched collects every declaration that applies to n, sorted from lowest
// to highest precedence.
func (s *cascadeSheet) matched(n *html.Node) []cascaded {
	var out []cascaded
	for _, rule := range s.rules {
		if !rule.selector.Match(n) {
			continue
		}
		for _, d := range rule.declarations {
			out = append(out, cascaded{declaration: d, spec: rule.specificity, order: rule.order})
		}
	}
	if inline := strings.TrimSpace(attrValue(n, "style")); inline != "" {
		// ParseDeclarations drops the value of an unterminated last declaration.
		if !strings.HasSuffix(inline, ";") {
			inline += ";"
		}
		decls, err := parser.ParseDeclarations(inline)
		if err != nil {
			log.Debug().Err(err).Msg("skipping unparsable style attribute")
		}
		for i, d := range convertDeclarations(decls) {
			out = append(out, cascaded{declaration: d, spec: inlineSpecificity, order: (1 << 30) + i})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.important != b.important {
			return !a.important
		}
		if a.spec != b.spec {
			return a.spec.Less(b.spec)
		}
		return a.order < b.order
	})
	return out
}

func (s *cascadeSheet) compute(n *html.Node, parent *resolved) *resolved {
	decls := s.matched(n)

	vars := make(map[string]string)
	if parent != nil {
		for k, v := range parent.vars {
			vars[k] = v
		}
	}
	for _, d := range decls {
		if strings.HasPrefix(d.property, "--") {
			vars[d.property] = d.value
		}
	}

	specified := make(map[string]string)
	for _, d := range decls {
		if strings.HasPrefix(d.property, "--") {
			continue
		}
		value, ok := substituteVars(d.value, vars, 0)
		if !ok {
			value = "unset"
		}
		for prop, v := range expandShorthand(d.property, value) {
			specified[prop] = v
		}
	}
	if _, hidden := attrLookup(n, "hidden"); hidden {
		if _, set := specified[Display]; !set {
			specified[Display] = "none"
		}
	}

	var parentProps Computed
	if parent != nil {
		parentProps = parent.props
	}
	return &resolved{props: finalize(strings.ToLower(n.Data), specified, parentProps), vars: vars}
}

var cornerProps = []string{
	"border-top-left-radius", "border-top-right-radius",
	"border-bottom-right-radius", "border-bottom-left-radius",
}

// finalize applies CSS-wide keywords, initial values and inheritance and
// serialises every property the way getComputedStyle reports it.
func finalize(tag string, specified map[string]string, parent Computed) Computed {
	inherited := func(prop string) string {
		if parent != nil {
			return parent[prop]
		}
		return initialValue(tag, prop)
	}
	pick := func(prop string, isInherited bool) string {
		v, ok := specified[prop]
		kw := strings.ToLower(strings.TrimSpace(v))
		switch {
		case !ok && isInherited, kw == "inherit", kw == "unset" && isInherited, kw == "revert" && isInherited:
			return inherited(prop)
		case !ok, kw == "initial", kw == "unset", kw == "revert":
			return initialValue(tag, prop)
		}
		return strings.TrimSpace(v)
	}

	out := Computed{}

	parentColor := inherited(Color)
	if parentColor == "" {
		parentColor = initialValue(tag, Color)
	}
	color, ok := normalizeColor(pick(Color, true), parentColor)
	if !ok {
		color = parentColor
	}
	out[Color] = color

	out[Display] = strings.ToLower(pick(Display, false))
	out[FlexDirection] = keywordOr(pick(FlexDirection, false), "row", "row", "row-reverse", "column", "column-reverse")
	out[FlexWrap] = keywordOr(pick(FlexWrap, false), "nowrap", "nowrap", "wrap", "wrap-reverse")

	bg, ok := normalizeColor(pick(BackgroundColor, false), color)
	if !ok {
		bg = Transparent
	}
	out[BackgroundColor] = bg

	out[BackgroundImage] = noneOr(pick(BackgroundImage, false), func(v string) string {
		return normalizeColorsIn(v, color)
	})
	out[BoxShadow] = noneOr(pick(BoxShadow, false), func(v string) string {
		return canonicalShadow(v, color)
	})
	out[BackdropFilter] = noneOr(pick(BackdropFilter, false), func(v string) string {
		return strings.Join(strings.Fields(v), " ")
	})

	var corners [4]string
	for i, prop := range cornerProps {
		corners[i] = pick(prop, false)
	}
	out[BorderRadius] = serializeRadius(corners)
	return out
}

func keywordOr(v, fallback string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

func noneOr(v string, f func(string) string) string {
	if strings.EqualFold(strings.TrimSpace(v), "none") || strings.TrimSpace(v) == "" {
		return "none"
	}
	return f(strings.TrimSpace(v))
}

var blockDisplay = map[string]bool{
	"html": true, "body": true, "div": true, "section": true, "header": true,
	"footer": true, "nav": true, "article": true, "aside": true, "main": true,
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "ul": true, "ol": true, "form": true, "figure": true,
	"figcaption": true, "blockquote": true, "pre": true, "address": true,
	"fieldset": true, "dl": true, "dd": true, "dt": true, "hr": true,
	"details": true, "summary": true, "menu": true, "legend": true,
}

func initialValue(tag, prop string) string {
	switch prop {
	case Display:
		switch {
		case blockDisplay[tag]:
			return "block"
		case tag == "li":
			return "list-item"
		case tag == "table":
			return "table"
		case tag == "tr":
			return "table-row"
		case tag == "td", tag == "th":
			return "table-cell"
		case tag == "button", tag == "input", tag == "textarea", tag == "select":
			return "inline-block"
		case tag == "head", tag == "style", tag == "script", tag == "meta",
			tag == "link", tag == "title", tag == "template", tag == "noscript":
			return "none"
		}
		return "inline"
	case FlexDirection:
		return "row"
	case FlexWrap:
		return "nowrap"
	case BackgroundColor:
		return Transparent
	case BackgroundImage, BoxShadow, BackdropFilter:
		return "none"
	case Color:
		return "rgb(0, 0, 0)"
	}
	if strings.HasSuffix(prop, "-radius") {
		return "0px"
	}
	return ""
}

// expandShorthand maps one declaration onto the longhands the converter
// reads. Unrelated properties are dropped.
func expandShorthand(prop, value string) map[string]string {
	lower := strings.ToLower(strings.TrimSpace(value))
	keyword := lower == "inherit" || lower == "initial" || lower == "unset" || lower == "revert"
	switch prop {
	case Display, FlexDirection, FlexWrap, BackgroundColor, BackgroundImage,
		BoxShadow, BackdropFilter, Color:
		return map[string]string{prop: value}
	case "-webkit-backdrop-filter":
		return map[string]string{BackdropFilter: value}
	case "-webkit-box-shadow":
		return map[string]string{BoxShadow: value}
	case "background":
		if keyword {
			return map[string]string{BackgroundColor: value, BackgroundImage: value}
		}
		img, col := splitBackground(value)
		return map[string]string{BackgroundColor: col, BackgroundImage: img}
	case "flex-flow":
		if keyword {
			return map[string]string{FlexDirection: value, FlexWrap: value}
		}
		out := map[string]string{FlexDirection: "row", FlexWrap: "nowrap"}
		for _, tok := range strings.Fields(lower) {
			switch tok {
			case "row", "row-reverse", "column", "column-reverse":
				out[FlexDirection] = tok
			case "nowrap", "wrap", "wrap-reverse":
				out[FlexWrap] = tok
			}
		}
		return out
	case "border-radius":
		out := make(map[string]string, 4)
		if keyword {
			for _, c := range cornerProps {
				out[c] = value
			}
			return out
		}
		for i, v := range expandRadius(value) {
			out[cornerProps[i]] = v
		}
		return out
	}
	for _, c := range cornerProps {
		if prop == c {
			return map[string]string{prop: value}
		}
	}
	return nil
}

// splitBackground extracts the image layers and the final color from a
// background shorthand. Missing parts fall back to their initial values.
func splitBackground(value string) (image, color string) {
	var images []string
	color = Transparent
	for _, tok := range topLevelTokens(value) {
		lower := strings.ToLower(tok)
		open := strings.IndexByte(lower, '(')
		switch {
		case open > 0 && (strings.HasSuffix(lower[:open], "gradient") || lower[:open] == "url" || lower[:open] == "image-set"):
			images = append(images, tok)
		case open > 0 && isColorFunc(lower[:open]):
			color = tok
		case strings.HasPrefix(tok, "#"):
			color = tok
		default:
			if _, ok := namedColors[lower]; ok || lower == "transparent" || lower == "currentcolor" {
				color = tok
			}
		}
	}
	if len(images) == 0 {
		return "none", color
	}
	return strings.Join(images, ", "), color
}

// topLevelTokens splits a value on whitespace, commas and slashes that are
// not nested inside parentheses or quotes.
func topLevelTokens(v string) []string {
	var out []string
	depth := 0
	var quote byte
	start := -1
	flush := func(i int) {
		if start >= 0 {
			out = append(out, v[start:i])
			start = -1
		}
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == ',' || c == '/'):
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(v))
	return out
}

// splitTopLevel splits v on sep outside parentheses.
func splitTopLevel(v string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				out = append(out, v[start:i])
				start = i + 1
			}
		}
	}
	return append(out, v[start:])
}

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}
