package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tr": true, "ul": true,
}

// VisibleText renders the rendered-text projection of sel, roughly what a
// browser's innerText would give: hidden and non-content elements are
// skipped, block elements and <br> break lines, whitespace collapses outside
// <pre> and <textarea>, whose text is kept verbatim. If nothing visible
// remains the raw text content is returned.
func VisibleText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	w := &textWriter{}
	w.walk(sel.Get(0), false)
	if text := w.String(); text != "" {
		return text
	}
	return sel.First().Text()
}

// segment is a run of output that either came from normal flow or from
// preformatted content.
type segment struct {
	b   strings.Builder
	pre bool
}

type textWriter struct {
	segs []*segment
	last byte
}

func (w *textWriter) write(s string, pre bool) {
	if s == "" {
		return
	}
	if n := len(w.segs); n == 0 || w.segs[n-1].pre != pre {
		w.segs = append(w.segs, &segment{pre: pre})
	}
	w.segs[len(w.segs)-1].b.WriteString(s)
	w.last = s[len(s)-1]
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			w.write(n.Data, true)
			return
		}
		w.writeCollapsed(n.Data)
		return
	case html.ElementNode:
		if skipTags[n.Data] || isHidden(n) {
			return
		}
		if n.Data == "br" {
			w.write("\n", pre)
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		w.newline()
	}
	inPre := pre || (n.Type == html.ElementNode && (n.Data == "pre" || n.Data == "textarea"))
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inPre)
	}
	if block {
		w.newline()
	}
}

func (w *textWriter) writeCollapsed(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			w.write(" ", false)
		}
		return
	}
	var b strings.Builder
	if isSpace(s[0]) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		b.WriteByte(' ')
	}
	w.write(b.String(), false)
}

// newline breaks the line in normal flow unless output already ends one.
func (w *textWriter) newline() {
	if len(w.segs) > 0 && w.last != '\n' {
		w.write("\n", false)
	}
}

// String tidies normal-flow text, trimming every line and keeping at most
// one blank line in a row. Preformatted segments pass through untouched
// apart from line breaks at the very start or end of the output.
func (w *textWriter) String() string {
	parts := make([]string, len(w.segs))
	for i, seg := range w.segs {
		if seg.pre {
			parts[i] = seg.b.String()
		} else {
			parts[i] = tidyFlow(seg.b.String())
		}
	}

	// Strip leading and trailing line breaks, and spaces too where they come
	// from normal flow, stopping at the first segment with content.
	for i := 0; i < len(parts); i++ {
		parts[i] = strings.TrimLeft(parts[i], edgeCutset(w.segs[i].pre))
		if parts[i] != "" {
			break
		}
	}
	for i := len(parts) - 1; i >= 0; i-- {
		parts[i] = strings.TrimRight(parts[i], edgeCutset(w.segs[i].pre))
		if parts[i] != "" {
			break
		}
	}
	return strings.Join(parts, "")
}

func edgeCutset(pre bool) string {
	if pre {
		return "\n"
	}
	return " \n"
}

func tidyFlow(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for i, l := range lines {
		l = strings.Trim(l, " ")
		// Interior empty lines are blank lines; the first and last pieces
		// only join up with neighbouring segments.
		if l == "" && i > 0 && i < len(lines)-1 {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
