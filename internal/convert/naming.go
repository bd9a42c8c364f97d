package convert

import (
	"strconv"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

var sectionNames = map[string]string{
	"header":  "Cabeçalho",
	"footer":  "Rodapé",
	"nav":     "Menu de Navegação",
	"section": "Sessão",
	"article": "Artigo",
	"aside":   "Lateral (Aside)",
}

const genericSectionName = "Container"

// sectionName is the display name of a slice: the tag's label plus the
// element id in parentheses when there is one.
func sectionName(n *dom.Node) string {
	name, ok := sectionNames[n.Tag]
	if !ok {
		name = genericSectionName
	}
	if id := n.ID(); id != "" {
		name += " (" + id + ")"
	}
	return name
}

// sliceID is the element id, or section-<pos> where pos is the 1-based
// position of the slice.
func sliceID(n *dom.Node, pos int) string {
	if id := n.ID(); id != "" {
		return id
	}
	return "section-" + strconv.Itoa(pos)
}
