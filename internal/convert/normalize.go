package convert

import "github.com/deulaag/converhtmlelementor/internal/dom"

// nonVisual elements carry no visual semantics and are dropped wherever
// they appear.
var nonVisual = map[string]bool{
	"script": true, "style": true, "link": true, "meta": true,
	"noscript": true, "template": true, "title": true, "base": true,
}

// unwrapTags are generic wrappers a lone root is unwrapped from.
var unwrapTags = map[string]bool{"div": true, "main": true}

// normalizeRoots strips non-visual roots and, when a single generic wrapper
// remains, exposes its children instead. The unwrap happens at most once.
func normalizeRoots(roots []*dom.Node) []*dom.Node {
	visible := visibleRoots(roots)
	if len(visible) == 1 && unwrapTags[visible[0].Tag] {
		return visibleRoots(visible[0].Children())
	}
	return visible
}

func visibleRoots(nodes []*dom.Node) []*dom.Node {
	out := make([]*dom.Node, 0, len(nodes))
	for _, n := range nodes {
		if nonVisual[n.Tag] {
			continue
		}
		out = append(out, n)
	}
	return out
}
