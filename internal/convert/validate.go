package convert

import (
	"fmt"
	"strings"
)

// Validate checks the structural guarantees of a Result: envelope constants,
// one root per slice matching the full site, unique ids, widget leaves and
// counters that agree with the tree. It returns nil or one error listing
// every issue found.
func Validate(res *Result) error {
	if res == nil {
		return fmt.Errorf("invalid result: nil")
	}
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	checkEnvelope := func(where string, env Envelope) {
		if env.Version != EnvelopeVersion || env.Type != PageType {
			add("%s: envelope version %q type %q", where, env.Version, env.Type)
		}
		if env.Content == nil {
			add("%s: nil content", where)
		}
	}
	checkEnvelope("full site", res.FullSite)
	if res.FullSite.Title != FullSiteTitle {
		add("full site: title %q", res.FullSite.Title)
	}

	if len(res.Sections) != len(res.FullSite.Content) {
		add("%d slices for %d roots", len(res.Sections), len(res.FullSite.Content))
	}
	for i, s := range res.Sections {
		where := fmt.Sprintf("slice %d (%s)", i+1, s.ID)
		checkEnvelope(where, s.JSONContent)
		if s.JSONContent.Title != s.Name {
			add("%s: title %q differs from name %q", where, s.JSONContent.Title, s.Name)
		}
		if len(s.JSONContent.Content) != 1 {
			add("%s: %d roots", where, len(s.JSONContent.Content))
			continue
		}
		if i < len(res.FullSite.Content) && s.JSONContent.Content[0].ID != res.FullSite.Content[i].ID {
			add("%s: root %s is not full site root %s", where, s.JSONContent.Content[0].ID, res.FullSite.Content[i].ID)
		}
	}

	seen := map[string]bool{}
	var widgets, containers int
	for _, root := range res.FullSite.Content {
		root.Walk(func(e *Element) {
			if seen[e.ID] {
				add("duplicate id %s", e.ID)
			}
			seen[e.ID] = true
			if e.Settings == nil || e.Elements == nil {
				add("element %s: nil settings or elements", e.ID)
			}
			switch e.ElType {
			case KindWidget:
				widgets++
				if e.WidgetType == "" {
					add("widget %s: no widget type", e.ID)
				}
				if e.IsInner != nil {
					add("widget %s: isInner set", e.ID)
				}
				if len(e.Elements) != 0 {
					add("widget %s: has %d children", e.ID, len(e.Elements))
				}
			case KindContainer:
				containers++
				if e.IsInner == nil || *e.IsInner {
					add("container %s: isInner must be false", e.ID)
				}
			default:
				add("element %s: unknown elType %q", e.ID, e.ElType)
			}
		})
	}
	if widgets != res.Stats.Widgets || containers != res.Stats.Sections {
		add("stats report %d widgets and %d containers, tree has %d and %d",
			res.Stats.Widgets, res.Stats.Sections, widgets, containers)
	}

	if len(issues) > 0 {
		return fmt.Errorf("invalid result: %s", strings.Join(issues, "; "))
	}
	return nil
}
