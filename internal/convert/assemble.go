package convert

// Envelope constants required by the page builder's importer.
const (
	EnvelopeVersion = "0.4"
	PageType        = "page"
	FullSiteTitle   = "Site Completo AI"
)

// wrapEnvelope builds an importable envelope around elements.
func wrapEnvelope(elements []*Element, title string) Envelope {
	if elements == nil {
		elements = []*Element{}
	}
	return Envelope{
		Version: EnvelopeVersion,
		Title:   title,
		Type:    PageType,
		Content: elements,
	}
}

type classifiedRoot struct {
	name    string
	id      string
	element *Element
}

// assemble builds the full-site envelope and one single-root slice per
// classified top-level element, in order.
func assemble(roots []classifiedRoot, stats Stats) *Result {
	full := make([]*Element, 0, len(roots))
	slices := make([]SectionSlice, 0, len(roots))
	for _, r := range roots {
		full = append(full, r.element)
		slices = append(slices, SectionSlice{
			Name:        r.name,
			ID:          r.id,
			JSONContent: wrapEnvelope([]*Element{r.element}, r.name),
		})
	}
	return &Result{
		FullSite: wrapEnvelope(full, FullSiteTitle),
		Sections: slices,
		Stats:    stats,
	}
}
