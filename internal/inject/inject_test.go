package inject

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/scribe/internal/page"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	subject string
	data    any
	err     error
}

func (p *recordingPublisher) Publish(subject string, data any) error {
	p.subject = subject
	p.data = data
	return p.err
}

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func load(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := page.LoadString(html)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestLocate_PrefersRichTextarea(t *testing.T) {
	doc := load(t, `<body>
		<textarea id="other"></textarea>
		<rich-textarea><div contenteditable="true" class="ql-editor"></div></rich-textarea>
	</body>`)

	sel, ok := Locate(doc)
	if !ok {
		t.Fatal("expected input field")
	}
	if sel != "rich-textarea > [contenteditable]" {
		t.Errorf("expected rich-textarea selector, got %q", sel)
	}
}

func TestLocate_PlainTextarea(t *testing.T) {
	doc := load(t, `<body><form><textarea></textarea></form></body>`)

	sel, ok := Locate(doc)
	if !ok || sel != "textarea" {
		t.Errorf("expected textarea, got %q ok=%v", sel, ok)
	}
}

func TestLocate_Missing(t *testing.T) {
	if _, ok := Locate(load(t, `<body><p>read only</p></body>`)); ok {
		t.Error("expected no input field")
	}
}

func TestInject_PublishesCommand(t *testing.T) {
	pub := &recordingPublisher{}
	clip := &memClipboard{}
	inj := New(pub, clip, discardLogger())

	out := inj.Inject(load(t, `<div class="ql-editor" contenteditable="true"></div>`), "page-1", "summarize please")

	if !out.Injected || out.Selector != ".ql-editor" || out.Clipboard {
		t.Errorf("unexpected outcome %+v", out)
	}
	if pub.subject != SubjectInject {
		t.Errorf("expected subject %q, got %q", SubjectInject, pub.subject)
	}
	cmd, ok := pub.data.(InjectCommand)
	if !ok {
		t.Fatalf("expected InjectCommand, got %T", pub.data)
	}
	if cmd.PageID != "page-1" || cmd.Text != "summarize please" || cmd.Selector != ".ql-editor" {
		t.Errorf("unexpected command %+v", cmd)
	}
	if clip.text != "" {
		t.Error("clipboard should be untouched")
	}
}

func TestInject_MissingFieldFallsBackToClipboard(t *testing.T) {
	pub := &recordingPublisher{}
	clip := &memClipboard{}
	inj := New(pub, clip, discardLogger())

	out := inj.Inject(load(t, `<p>no input</p>`), "page-1", "prompt text")

	if out.Injected || !out.Clipboard {
		t.Errorf("expected clipboard fallback, got %+v", out)
	}
	if clip.text != "prompt text" {
		t.Errorf("expected clipboard text, got %q", clip.text)
	}
	if pub.subject != "" {
		t.Error("nothing should be published without a field")
	}
}

func TestInject_PublishErrorFallsBackToClipboard(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	clip := &memClipboard{}
	inj := New(pub, clip, discardLogger())

	out := inj.Inject(load(t, `<textarea></textarea>`), "p", "text")
	if out.Injected || !out.Clipboard {
		t.Errorf("expected clipboard fallback, got %+v", out)
	}
}

func TestInject_NoBridge(t *testing.T) {
	clip := &memClipboard{}
	inj := New(nil, clip, discardLogger())

	out := inj.Inject(load(t, `<textarea></textarea>`), "p", "text")
	if out.Injected || !out.Clipboard || clip.text != "text" {
		t.Errorf("expected clipboard without a bridge, got %+v", out)
	}
}

func TestInject_ClipboardFailureReported(t *testing.T) {
	inj := New(nil, &memClipboard{err: errors.New("no display")}, discardLogger())

	out := inj.Inject(load(t, `<p></p>`), "p", "text")
	if out.Injected || out.Clipboard {
		t.Errorf("expected total failure, got %+v", out)
	}
	if out.ClipboardError == "" {
		t.Error("expected clipboard error in outcome")
	}
}
