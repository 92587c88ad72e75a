// Package thread scrapes a conversation out of a chat page snapshot.
package thread

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikeSquared-Agency/scribe/internal/page"
)

// Selector chains, most specific first.
var (
	ContainerSelectors = page.Chain{
		".conversation-container",
		".chat-container",
		`[class*="conversation"]`,
		"main",
		"#chat-container",
	}

	TurnSelectors = page.Chain{
		"[data-message-author-role]",
		"[data-author]",
		".user-message, .model-response",
		".message-container",
		".chat-message",
	}

	ContentSelectors = page.Chain{
		".message-content",
		".model-response-text",
		".user-query-text",
		`[class*="content"]`,
		`[class*="text"]`,
	}

	// FallbackBlocks are scanned when no turn markup is recognised.
	FallbackBlocks = "p, div > span"
)

// minFallbackRunes is the length a fallback block must exceed to count as
// conversation rather than UI chrome.
const minFallbackRunes = 20

// ExtractContent returns the visible text of a turn, preferring a known
// content child over the turn node itself. The result is not trimmed.
func ExtractContent(turn *goquery.Selection) string {
	if turn == nil || turn.Length() == 0 {
		return ""
	}
	if content, _, ok := ContentSelectors.First(turn); ok {
		return page.VisibleText(content)
	}
	return page.VisibleText(turn)
}

// Collect builds the transcript of doc. An empty transcript means nothing
// conversational was found.
func Collect(doc *goquery.Document) Transcript {
	root := doc.Selection

	scope := root
	if container, _, ok := ContainerSelectors.First(root); ok {
		scope = container
	}

	turns, _, ok := TurnSelectors.FirstNonEmpty(scope)
	if !ok {
		return collectFallback(root)
	}

	msgs := Transcript{}
	turns.Each(func(i int, turn *goquery.Selection) {
		content := strings.TrimSpace(ExtractContent(turn))
		if content == "" {
			return
		}
		idx := i
		msgs = append(msgs, Message{
			Role:    ClassifyRole(page.ViewOf(turn)),
			Content: content,
			Index:   &idx,
		})
	})
	return msgs
}

// collectFallback treats every long enough text block as a turn and assumes
// the speakers strictly alternate, starting with the user. Consecutive turns
// by the same speaker are misattributed.
func collectFallback(root *goquery.Selection) Transcript {
	msgs := Transcript{}
	role := RoleUser
	root.Find(FallbackBlocks).Each(func(_ int, block *goquery.Selection) {
		text := strings.TrimSpace(page.VisibleText(block))
		if utf8.RuneCountInString(text) <= minFallbackRunes {
			return
		}
		msgs = append(msgs, Message{Role: role, Content: text})
		if role == RoleUser {
			role = RoleModel
		} else {
			role = RoleUser
		}
	})
	return msgs
}
