package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/inject"
	"github.com/MikeSquared-Agency/scribe/internal/notion"
	"github.com/MikeSquared-Agency/scribe/internal/page"
	"github.com/MikeSquared-Agency/scribe/internal/prompt"
	"github.com/MikeSquared-Agency/scribe/internal/response"
	"github.com/MikeSquared-Agency/scribe/internal/thread"
	"github.com/MikeSquared-Agency/scribe/internal/watch"
)

var (
	ErrThreadNotFound = errors.New("no conversation found on page")
	ErrNoCredentials  = errors.New("notion credentials are not configured")
	ErrNoResponse     = errors.New("response not found on page")
	ErrEmptyResponse  = errors.New("response has no text")
	ErrNoModel        = errors.New("no model configured for headless summaries")
)

// Exporter ships a finished record to the note service.
type Exporter interface {
	HasCredentials() bool
	Export(ctx context.Context, rec response.Record) notion.Result
}

// ArchiveWriter records successful exports.
type ArchiveWriter interface {
	WriteArchive(ctx context.Context, pageID string, rec response.Record, notionURL string) (uuid.UUID, error)
}

// Summarizer answers a prompt without a chat page.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Deps are the collaborators of a Processor. Everything but Exporter may be
// nil.
type Deps struct {
	Exporter   Exporter
	Injector   *inject.Injector
	Archive    ArchiveWriter
	Model      Summarizer
	Publisher  inject.Publisher
	Detector   *watch.Detector
	RescanWait time.Duration
	Now        func() time.Time
}

// Processor runs scribe's two user-facing flows: building the summarization
// prompt for a page, and turning the model's reply into an exported record.
type Processor struct {
	exporter Exporter
	injector *inject.Injector
	archive  ArchiveWriter
	model    Summarizer
	pub      inject.Publisher
	detector *watch.Detector
	wait     time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	rescans map[string]*watch.Debouncer // keyed by page ID
}

func New(d Deps, logger *slog.Logger) *Processor {
	p := &Processor{
		exporter: d.Exporter,
		injector: d.Injector,
		archive:  d.Archive,
		model:    d.Model,
		pub:      d.Publisher,
		detector: d.Detector,
		wait:     d.RescanWait,
		now:      d.Now,
		logger:   logger,
		rescans:  make(map[string]*watch.Debouncer),
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.injector == nil {
		p.injector = inject.New(d.Publisher, nil, logger)
	}
	if p.detector == nil {
		p.detector = watch.NewDetector(time.Hour)
	}
	if p.wait <= 0 {
		p.wait = 500 * time.Millisecond
	}
	return p
}

// PromptResult is the built prompt and where it was delivered.
type PromptResult struct {
	Prompt   string         `json:"prompt"`
	Messages int            `json:"messages"`
	Outcome  inject.Outcome `json:"outcome"`
}

// Draft is a record ready for review before export. Parsed is false when the
// reply held no JSON and the record was synthesized from raw text.
type Draft struct {
	Record response.Record `json:"record"`
	Parsed bool            `json:"parsed"`
}

// SaveResult is the export outcome plus the archive row, when one was written.
type SaveResult struct {
	notion.Result
	ArchiveID string `json:"archive_id,omitempty"`
}

// Transcript scrapes the conversation from an HTML snapshot.
func (p *Processor) Transcript(html string) (thread.Transcript, error) {
	doc, err := page.LoadString(html)
	if err != nil {
		return nil, err
	}
	return thread.Collect(doc), nil
}

// PreparePrompt builds the summarization prompt for the page and places it in
// the page's input field, or on the clipboard when there is none.
func (p *Processor) PreparePrompt(pageID, html string) (*PromptResult, error) {
	doc, err := page.LoadString(html)
	if err != nil {
		return nil, err
	}

	msgs := thread.Collect(doc)
	if msgs.Empty() {
		return nil, ErrThreadNotFound
	}

	text := prompt.Build(msgs, p.now())
	outcome := p.injector.Inject(doc, pageID, text)

	p.logger.Info("prompt prepared",
		"page_id", pageID,
		"messages", len(msgs),
		"prompt_len", len(text),
		"injected", outcome.Injected,
		"clipboard", outcome.Clipboard,
	)

	return &PromptResult{Prompt: text, Messages: len(msgs), Outcome: outcome}, nil
}

// DraftRecord is Draft for a record about to be exported: it fails early
// when there is nowhere to export to.
func (p *Processor) DraftRecord(pageID, html string, index int) (*Draft, error) {
	if !p.exporter.HasCredentials() {
		return nil, ErrNoCredentials
	}
	return p.Draft(pageID, html, index)
}

// Draft reads the index-th model response on the page and turns it into a
// record, synthesizing one from the raw text when it holds no JSON.
func (p *Processor) Draft(pageID, html string, index int) (*Draft, error) {
	doc, err := page.LoadString(html)
	if err != nil {
		return nil, err
	}

	rs := watch.Responses(pageID, doc)
	if index < 0 || index >= len(rs) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoResponse, index, len(rs))
	}
	r := rs[index]
	if r.Content == "" {
		return nil, ErrEmptyResponse
	}

	return p.draftFrom(r.Content, r.Previous, r.HasPrevious), nil
}

// Summarize is the headless flow: the prompt goes straight to the model and
// its reply is handled like a page response.
func (p *Processor) Summarize(ctx context.Context, pageID, html string) (*Draft, error) {
	if p.model == nil {
		return nil, ErrNoModel
	}

	msgs, err := p.Transcript(html)
	if err != nil {
		return nil, err
	}
	if msgs.Empty() {
		return nil, ErrThreadNotFound
	}

	reply, err := p.model.Summarize(ctx, prompt.Build(msgs, p.now()))
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if reply == "" {
		return nil, ErrEmptyResponse
	}

	p.logger.Info("headless summary received", "page_id", pageID, "messages", len(msgs), "reply_len", len(reply))

	last := msgs[len(msgs)-1]
	return p.draftFrom(reply, last.Content, true), nil
}

func (p *Processor) draftFrom(content, previous string, hasPrevious bool) *Draft {
	now := p.now()
	fields, err := response.Parse(content)
	if err != nil {
		p.logger.Warn("reply is not json, using raw text", "error", err, "content_len", len(content))
		return &Draft{Record: response.Fallback(content, previous, hasPrevious, now)}
	}
	return &Draft{Record: response.ToRecord(fields).WithDefaults(now), Parsed: true}
}

// Save exports rec. Export failures are reported in the result; archiving and
// announcing a successful export are best effort.
func (p *Processor) Save(ctx context.Context, pageID string, rec response.Record) SaveResult {
	res := SaveResult{Result: p.exporter.Export(ctx, rec)}
	if !res.Success {
		p.logger.Warn("export failed", "page_id", pageID, "error", res.Error)
		return res
	}

	if p.archive != nil {
		id, err := p.archive.WriteArchive(ctx, pageID, rec, res.PageURL)
		if err != nil {
			p.logger.Error("failed to record archive", "page_id", pageID, "error", err)
		} else {
			res.ArchiveID = id.String()
		}
	}

	if p.pub != nil {
		if err := p.pub.Publish(hermes.SubjectArchiveSaved, hermes.ArchiveSaved{
			ArchiveID: res.ArchiveID,
			PageID:    pageID,
			Title:     rec.Title,
			Date:      rec.Date,
			NotionURL: res.PageURL,
		}); err != nil {
			p.logger.Error("failed to publish archive saved", "error", err)
		}
	}

	p.logger.Info("conversation archived", "page_id", pageID, "title", rec.Title, "url", res.PageURL)
	return res
}

// Close cancels pending rescans.
func (p *Processor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, d := range p.rescans {
		d.Stop()
		delete(p.rescans, id)
	}
}

// CanExport reports whether archives can be sent to Notion.
func (p *Processor) CanExport() bool {
	return p.exporter.HasCredentials()
}

// Headless reports whether a model is configured for Summarize.
func (p *Processor) Headless() bool {
	return p.model != nil
}
