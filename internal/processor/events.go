package processor

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/page"
	"github.com/MikeSquared-Agency/scribe/internal/watch"
)

// HandlePageSnapshot is the NATS handler for swarm.scribe.page.snapshot.
// Snapshots of one page arriving in quick succession collapse into a single
// rescan of the latest one.
func (p *Processor) HandlePageSnapshot(subject string, data []byte) {
	var snap hermes.PageSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		p.logger.Error("failed to parse page snapshot", "error", err)
		return
	}
	if snap.PageID == "" {
		p.logger.Warn("page snapshot without page id", "url", snap.URL)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.rescans[snap.PageID]
	if !ok {
		d = watch.NewDebouncer(p.wait)
		p.rescans[snap.PageID] = d
	}
	d.Trigger(func() {
		p.rescan(snap)
		p.forget(snap.PageID, d)
	})
}

// forget drops a page's debouncer once it has nothing left to run, so idle
// pages do not accumulate.
func (p *Processor) forget(pageID string, d *watch.Debouncer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rescans[pageID] == d && !d.Pending() {
		delete(p.rescans, pageID)
	}
}

// pendingPages reports how many pages have a rescan scheduled or running.
func (p *Processor) pendingPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rescans)
}

func (p *Processor) rescan(snap hermes.PageSnapshot) {
	doc, err := page.LoadString(snap.HTML)
	if err != nil {
		p.logger.Error("failed to load page snapshot", "page_id", snap.PageID, "error", err)
		return
	}
	p.announceResponses(snap.PageID, doc)
}

// announceResponses publishes every response not reported before.
func (p *Processor) announceResponses(pageID string, doc *goquery.Document) []watch.Response {
	fresh := p.detector.Scan(pageID, doc)
	for _, r := range fresh {
		if p.pub == nil {
			break
		}
		if err := p.pub.Publish(hermes.SubjectResponseDetected, r); err != nil {
			p.logger.Error("failed to publish detected response", "page_id", pageID, "error", err)
		}
	}
	if len(fresh) > 0 {
		p.logger.Info("responses detected", "page_id", pageID, "new", len(fresh))
	}
	return fresh
}

// HandlePromptRequest is the NATS handler for swarm.scribe.prompt.request.
func (p *Processor) HandlePromptRequest(subject string, data []byte) {
	var req hermes.PromptRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse prompt request", "error", err)
		return
	}

	if _, err := p.PreparePrompt(req.PageID, req.HTML); err != nil {
		p.logger.Warn("prompt request failed", "page_id", req.PageID, "error", err)
	}
}
