package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/scribe/internal/response"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"

	// Notion rejects text objects longer than this and requests with more
	// than maxBlocks children.
	maxTextRunes = 2000
	maxBlocks    = 100
)

// Database property names the archive database is expected to have.
const (
	PropTitle   = "名前"
	PropSummary = "概要"
	PropTodos   = "やること"
	PropDate    = "時期"
)

type Client struct {
	token      string
	databaseID string
	baseURL    string
	client     *http.Client
	logger     *slog.Logger
}

func NewClient(token, databaseID string, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		databaseID: databaseID,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

// HasCredentials reports whether an integration token and database are set.
func (c *Client) HasCredentials() bool {
	return c != nil && c.token != "" && c.databaseID != ""
}

// Result mirrors what the page-side dialog shows after a save.
type Result struct {
	Success bool   `json:"success"`
	PageURL string `json:"pageUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type block struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []richText `json:"rich_text"`
	} `json:"paragraph"`
}

type createPageRequest struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
	Children   []block        `json:"children,omitempty"`
}

type createPageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Export creates a page for rec in the archive database. Failures are
// reported in the Result, never returned as errors.
func (c *Client) Export(ctx context.Context, rec response.Record) Result {
	if !c.HasCredentials() {
		return Result{Error: "notion credentials are not configured"}
	}

	url, err := c.createPage(ctx, rec)
	if err != nil {
		c.logger.Error("notion export failed", "title", rec.Title, "error", err)
		return Result{Error: err.Error()}
	}

	c.logger.Info("notion page created", "title", rec.Title, "url", url)
	return Result{Success: true, PageURL: url}
}

func (c *Client) createPage(ctx context.Context, rec response.Record) (string, error) {
	body, err := json.Marshal(buildPageRequest(c.databaseID, rec))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			return "", fmt.Errorf("api error %d: %s: %s", resp.StatusCode, errResp.Code, errResp.Message)
		}
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var page createPageResponse
	if err := json.Unmarshal(respBody, &page); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return page.URL, nil
}

func buildPageRequest(databaseID string, rec response.Record) createPageRequest {
	var req createPageRequest
	req.Parent.DatabaseID = databaseID
	req.Properties = map[string]any{
		PropTitle:   map[string]any{"title": textObjects(rec.Title)},
		PropSummary: map[string]any{"rich_text": textObjects(rec.Summary)},
		PropTodos:   map[string]any{"rich_text": textObjects(rec.Todos)},
	}
	if rec.ValidDate() {
		req.Properties[PropDate] = map[string]any{"date": map[string]string{"start": rec.Date}}
	}

	for _, chunk := range splitRunes(rec.Content, maxTextRunes) {
		if len(req.Children) == maxBlocks {
			break
		}
		var b block
		b.Object = "block"
		b.Type = "paragraph"
		b.Paragraph.RichText = textObjects(chunk)
		req.Children = append(req.Children, b)
	}
	return req
}

func textObjects(s string) []richText {
	chunks := splitRunes(s, maxTextRunes)
	out := make([]richText, len(chunks))
	for i, chunk := range chunks {
		out[i].Type = "text"
		out[i].Text.Content = chunk
	}
	return out
}

// splitRunes cuts s into pieces of at most n runes. Empty input yields no pieces.
func splitRunes(s string, n int) []string {
	var out []string
	for s != "" {
		if utf8.RuneCountInString(s) <= n {
			out = append(out, s)
			break
		}
		cut := 0
		for i := 0; i < n; i++ {
			_, size := utf8.DecodeRuneInString(s[cut:])
			cut += size
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return out
}
