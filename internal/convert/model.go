package convert

// Element kinds. Section and column kinds of the page-builder schema are
// never produced: every structural node is a container.
const (
	KindContainer = "container"
	KindWidget    = "widget"
)

// Widget types produced by the classification rules.
const (
	WidgetHeading    = "heading"
	WidgetTextEditor = "text-editor"
	WidgetImage      = "image"
	WidgetButton     = "button"
	WidgetHTML       = "html"
)

// Settings is the free-form settings map of an element. Keys follow the
// page-builder's own naming.
type Settings map[string]any

// URLSetting is the {"url": ...} object used by image and link settings.
type URLSetting struct {
	URL string `json:"url"`
}

// Element is one node of the output tree.
type Element struct {
	ID         string     `json:"id"`
	ElType     string     `json:"elType"`
	IsInner    *bool      `json:"isInner,omitempty"`
	WidgetType string     `json:"widgetType,omitempty"`
	Settings   Settings   `json:"settings"`
	Elements   []*Element `json:"elements"`
}

// IsWidget reports whether e is a terminal widget.
func (e *Element) IsWidget() bool { return e != nil && e.ElType == KindWidget }

// Walk visits e and all of its descendants depth-first in document order.
func (e *Element) Walk(fn func(*Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Elements {
		c.Walk(fn)
	}
}

// Envelope is the top-level document the page builder accepts on import.
type Envelope struct {
	Version string     `json:"version"`
	Title   string     `json:"title"`
	Type    string     `json:"type"`
	Content []*Element `json:"content"`
}

// SectionSlice is one top-level element exported as its own envelope.
type SectionSlice struct {
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	JSONContent Envelope `json:"json_content"`
}

// Stats counts what a conversion produced. Sections counts containers at
// every depth, not only top-level slices.
type Stats struct {
	Widgets           int  `json:"widgets"`
	Sections          int  `json:"sections"`
	CustomCSSInjected bool `json:"customCssInjected"`
}

// Result is the outcome of one conversion.
type Result struct {
	FullSite Envelope       `json:"full_site"`
	Sections []SectionSlice `json:"sections"`
	Stats    Stats          `json:"stats"`
}
