package watch

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/MikeSquared-Agency/scribe/internal/page"
	"github.com/MikeSquared-Agency/scribe/internal/thread"
)

// ResponseSelectors match model responses. All are evaluated together.
var ResponseSelectors = page.Chain{
	".model-response",
	".response-container",
	`[data-message-author-role="1"]`,
	`.message-container[data-author="model"]`,
}

// minResponseRunes filters out responses that are still streaming in or are
// only placeholders.
const minResponseRunes = 5

// Response is one model response found on a page.
type Response struct {
	ID          string `json:"id"`
	PageID      string `json:"page_id"`
	Index       int    `json:"index"`
	Content     string `json:"content"`
	Previous    string `json:"previous,omitempty"`
	HasPrevious bool   `json:"has_previous"`
}

// Responses lists every response on the page with enough text, in document
// order. Index is the position among these responses and is what callers
// use to refer back to one.
func Responses(pageID string, doc *goquery.Document) []Response {
	var out []Response
	ResponseSelectors.Union(doc.Selection).Each(func(_ int, sel *goquery.Selection) {
		if utf8.RuneCountInString(strings.TrimSpace(sel.Text())) < minResponseRunes {
			return
		}
		idx := len(out)
		r := Response{
			ID:      responseID(pageID, idx),
			PageID:  pageID,
			Index:   idx,
			Content: strings.TrimSpace(thread.ExtractContent(sel)),
		}
		if prev := sel.Prev(); prev.Length() > 0 {
			r.HasPrevious = true
			r.Previous = strings.TrimSpace(thread.ExtractContent(prev))
		}
		out = append(out, r)
	})
	return out
}

// responseID identifies a response by its position on the page, so a
// response that is still streaming keeps its ID while its text grows.
func responseID(pageID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageID+"#"+strconv.Itoa(index))).String()
}

// Detector remembers which responses were already reported so a rescan of
// the same page only yields new ones. Entries expire after the TTL.
type Detector struct {
	seen *cache.Cache
}

func NewDetector(ttl time.Duration) *Detector {
	return &Detector{seen: cache.New(ttl, 10*time.Minute)}
}

// Scan returns the responses on the page that have not been reported yet and
// marks them as reported.
func (d *Detector) Scan(pageID string, doc *goquery.Document) []Response {
	var fresh []Response
	for _, r := range Responses(pageID, doc) {
		if err := d.seen.Add(r.ID, struct{}{}, cache.DefaultExpiration); err != nil {
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh
}

// Seen reports how many responses are currently remembered.
func (d *Detector) Seen() int {
	return d.seen.ItemCount()
}
