package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NodeView is a read-only snapshot of one element: its tag, attributes,
// class list and raw text content.
type NodeView struct {
	Tag     string
	Attrs   map[string]string
	Classes []string
	Text    string
}

// ViewOf captures the first node of sel. An empty selection yields a zero view.
func ViewOf(sel *goquery.Selection) NodeView {
	if sel == nil || sel.Length() == 0 {
		return NodeView{}
	}
	n := sel.Get(0)
	v := NodeView{
		Tag:   n.Data,
		Attrs: make(map[string]string, len(n.Attr)),
		Text:  sel.First().Text(),
	}
	for _, a := range n.Attr {
		v.Attrs[a.Key] = a.Val
	}
	v.Classes = strings.Fields(v.Attrs["class"])
	return v
}

// Attr returns the attribute value and whether it is present.
func (v NodeView) Attr(name string) (string, bool) {
	val, ok := v.Attrs[name]
	return val, ok
}

// ClassContains reports whether any class contains fragment, ignoring case.
func (v NodeView) ClassContains(fragment string) bool {
	fragment = strings.ToLower(fragment)
	for _, c := range v.Classes {
		if strings.Contains(strings.ToLower(c), fragment) {
			return true
		}
	}
	return false
}
