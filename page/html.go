package page

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ListItemClass is the class attribute given to every rendered entry.
const ListItemClass = "list-group-item"

// RenderList renders entries as a sequence of <li> elements.
//
// Entries are inserted as text nodes, so markup inside an entry is escaped
// rather than interpreted.
func RenderList(entries []string) (string, error) {
	var sb strings.Builder
	for _, e := range entries {
		li := &html.Node{
			Type:     html.ElementNode,
			Data:     "li",
			DataAtom: atom.Li,
			Attr:     []html.Attribute{{Key: "class", Val: ListItemClass}},
		}
		li.AppendChild(&html.Node{Type: html.TextNode, Data: e})

		if err := html.Render(&sb, li); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
