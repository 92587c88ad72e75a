package page

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustLoad(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := LoadString(html)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestChainFirst_EarliestSelectorWins(t *testing.T) {
	doc := mustLoad(t, `<body><main id="m">main</main><div class="chat-container">chat</div></body>`)

	found, sel, ok := Chain{".conversation-container", ".chat-container", "main"}.First(doc.Selection)
	if !ok {
		t.Fatal("expected a match")
	}
	if sel != ".chat-container" {
		t.Errorf("expected .chat-container to win, got %q", sel)
	}
	if found.Text() != "chat" {
		t.Errorf("expected chat container text, got %q", found.Text())
	}
}

func TestChainFirst_NoMatch(t *testing.T) {
	doc := mustLoad(t, `<body><p>nothing here</p></body>`)

	if _, _, ok := (Chain{".missing", "#absent"}).First(doc.Selection); ok {
		t.Error("expected no match")
	}
}

func TestChainFirst_InvalidSelectorSkipped(t *testing.T) {
	doc := mustLoad(t, `<body><main>x</main></body>`)

	_, sel, ok := Chain{"[[broken", "main"}.First(doc.Selection)
	if !ok || sel != "main" {
		t.Errorf("expected main after invalid selector, got %q ok=%v", sel, ok)
	}
}

func TestChainFirstNonEmpty_ReturnsAllMatchesInOrder(t *testing.T) {
	doc := mustLoad(t, `<div>
		<div class="chat-message">one</div>
		<div class="message-container">skip</div>
		<div class="chat-message">two</div>
	</div>`)

	found, sel, ok := Chain{".missing", ".chat-message", ".message-container"}.FirstNonEmpty(doc.Selection)
	if !ok {
		t.Fatal("expected a match")
	}
	if sel != ".chat-message" {
		t.Errorf("expected .chat-message, got %q", sel)
	}
	if found.Length() != 2 {
		t.Fatalf("expected 2 nodes, got %d", found.Length())
	}
	if found.Eq(0).Text() != "one" || found.Eq(1).Text() != "two" {
		t.Errorf("unexpected order: %q %q", found.Eq(0).Text(), found.Eq(1).Text())
	}
}

func TestChainUnion_DeduplicatesInDocumentOrder(t *testing.T) {
	doc := mustLoad(t, `<div>
		<div class="model-response" data-message-author-role="1">a</div>
		<div class="response-container">b</div>
	</div>`)

	found := Chain{".response-container", ".model-response", `[data-message-author-role="1"]`}.Union(doc.Selection)
	if found.Length() != 2 {
		t.Fatalf("expected 2 unique nodes, got %d", found.Length())
	}
	if found.Eq(0).Text() != "a" {
		t.Errorf("expected document order, first was %q", found.Eq(0).Text())
	}
}

func TestViewOf(t *testing.T) {
	doc := mustLoad(t, `<div id="x" class="Model-Response turn" data-author="model">hi</div>`)

	v := ViewOf(doc.Find("#x"))
	if v.Tag != "div" {
		t.Errorf("expected tag div, got %q", v.Tag)
	}
	if got, ok := v.Attr("data-author"); !ok || got != "model" {
		t.Errorf("expected data-author model, got %q %v", got, ok)
	}
	if _, ok := v.Attr("data-message-author-role"); ok {
		t.Error("expected missing attribute")
	}
	if len(v.Classes) != 2 {
		t.Errorf("expected 2 classes, got %v", v.Classes)
	}
	if !v.ClassContains("response") {
		t.Error("expected case-insensitive class match")
	}
	if v.Text != "hi" {
		t.Errorf("expected text hi, got %q", v.Text)
	}
}

func TestViewOf_EmptySelection(t *testing.T) {
	doc := mustLoad(t, `<p>x</p>`)

	v := ViewOf(doc.Find(".nothing"))
	if v.Tag != "" || len(v.Attrs) != 0 {
		t.Errorf("expected zero view, got %+v", v)
	}
}
