// Package inject places a built prompt into the chat page's input field, or
// onto the clipboard when the page has none.
package inject

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/atotto/clipboard"

	"github.com/MikeSquared-Agency/scribe/internal/page"
)

// SubjectInject carries InjectCommands to the browser bridge.
const SubjectInject = "swarm.scribe.prompt.inject"

// InputSelectors locate the editable prompt field, most specific first.
var InputSelectors = page.Chain{
	"rich-textarea > [contenteditable]",
	".ql-editor",
	`[contenteditable="true"]`,
	"textarea",
	"#prompt-textarea",
}

// InjectCommand asks the browser bridge to replace the field's content with
// Text and fire an input event.
type InjectCommand struct {
	PageID   string `json:"page_id"`
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// Outcome reports where the text ended up.
type Outcome struct {
	Injected       bool   `json:"injected"`
	Selector       string `json:"selector,omitempty"`
	Clipboard      bool   `json:"clipboard"`
	ClipboardError string `json:"clipboard_error,omitempty"`
}

// Publisher sends a JSON payload on a subject.
type Publisher interface {
	Publish(subject string, data any) error
}

// Clipboard receives text when no input field exists.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the host clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Locate returns the selector of the page's input field.
func Locate(doc *goquery.Document) (string, bool) {
	_, sel, ok := InputSelectors.First(doc.Selection)
	return sel, ok
}

type Injector struct {
	pub    Publisher
	clip   Clipboard
	logger *slog.Logger
}

// New returns an injector. pub may be nil when there is no browser bridge, in
// which case every prompt goes to the clipboard.
func New(pub Publisher, clip Clipboard, logger *slog.Logger) *Injector {
	return &Injector{pub: pub, clip: clip, logger: logger}
}

// Inject sends text to the input field of the page snapshot doc. A missing
// field or bridge is not an error: the outcome reports the clipboard fallback.
func (i *Injector) Inject(doc *goquery.Document, pageID, text string) Outcome {
	sel, ok := Locate(doc)
	if ok && i.pub != nil {
		err := i.pub.Publish(SubjectInject, InjectCommand{PageID: pageID, Selector: sel, Text: text})
		if err == nil {
			return Outcome{Injected: true, Selector: sel}
		}
		i.logger.Warn("inject publish failed, using clipboard", "page_id", pageID, "error", err)
	} else if !ok {
		i.logger.Info("input field not found, using clipboard", "page_id", pageID)
	}

	return i.toClipboard(text)
}

func (i *Injector) toClipboard(text string) Outcome {
	if i.clip == nil {
		return Outcome{ClipboardError: "no clipboard available"}
	}
	if err := i.clip.WriteAll(text); err != nil {
		i.logger.Warn("clipboard write failed", "error", err)
		return Outcome{ClipboardError: fmt.Sprintf("clipboard: %v", err)}
	}
	return Outcome{Clipboard: true}
}
