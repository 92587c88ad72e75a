package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects scribe listens on and emits.
const (
	SubjectPageSnapshot     = "swarm.scribe.page.snapshot"
	SubjectPromptRequest    = "swarm.scribe.prompt.request"
	SubjectResponseDetected = "swarm.scribe.response.detected"
	SubjectArchiveSaved     = "swarm.scribe.archive.saved"
	SubjectAgentRegistered  = "swarm.agent.scribe.registered"
)

// PageSnapshot is sent by the browser bridge whenever the chat page changes.
type PageSnapshot struct {
	PageID string `json:"page_id"`
	URL    string `json:"url,omitempty"`
	HTML   string `json:"html"`
}

// PromptRequest asks scribe to build and inject the summarization prompt.
type PromptRequest struct {
	PageID string `json:"page_id"`
	HTML   string `json:"html"`
}

// ArchiveSaved announces a conversation exported to Notion.
type ArchiveSaved struct {
	ArchiveID string `json:"archive_id,omitempty"`
	PageID    string `json:"page_id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	NotionURL string `json:"notion_url"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("scribe"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Drain flushes pending publishes before closing, bounded by ctx.
func (c *Client) Drain(ctx context.Context) {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.FlushWithContext(ctx); err != nil {
		c.logger.Warn("nats flush failed", "error", err)
	}
	c.conn.Close()
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
