// Package page wraps a parsed HTML snapshot of a chat page. It exposes
// ordered selector chains and read-only node views so the rest of the
// pipeline never mutates or depends on live DOM handles.
package page

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Load parses an HTML snapshot.
func Load(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// LoadString parses an HTML snapshot held in memory.
func LoadString(html string) (*goquery.Document, error) {
	return Load(strings.NewReader(html))
}

// Chain is an ordered list of CSS selectors evaluated until one matches.
// Invalid selectors match nothing.
type Chain []string

// First returns the first node matched by the earliest selector that matches
// anything inside scope, along with that selector.
func (c Chain) First(scope *goquery.Selection) (*goquery.Selection, string, bool) {
	for _, sel := range c {
		if found := scope.Find(sel).First(); found.Length() > 0 {
			return found, sel, true
		}
	}
	return nil, "", false
}

// FirstNonEmpty returns every node matched by the earliest selector yielding
// at least one node, in document order.
func (c Chain) FirstNonEmpty(scope *goquery.Selection) (*goquery.Selection, string, bool) {
	for _, sel := range c {
		if found := scope.Find(sel); found.Length() > 0 {
			return found, sel, true
		}
	}
	return nil, "", false
}

// Union evaluates all selectors at once. Nodes matched by several selectors
// appear once, in document order.
func (c Chain) Union(scope *goquery.Selection) *goquery.Selection {
	if len(c) == 0 {
		return scope.Find("")
	}
	return scope.Find(strings.Join(c, ", "))
}
