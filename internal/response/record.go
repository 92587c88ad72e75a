package response

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/scribe/internal/prompt"
)

// Record is what gets exported. Every field is always present, possibly empty.
type Record struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
	Todos   string `json:"todos"`
	Date    string `json:"date"`
}

const (
	fallbackTitleRunes   = 50
	fallbackSummaryRunes = 100

	unknownPromptTitle = "プロンプト不明"
	emptyPromptTitle   = "Geminiの回答"
)

// ToRecord flattens decoded fields into a Record. Missing or null fields are
// empty; lists are joined one item per line.
func ToRecord(f Fields) Record {
	return Record{
		Title:   stringify(f["title"]),
		Summary: stringify(f["summary"]),
		Content: stringify(f["content"]),
		Todos:   stringify(f["todos"]),
		Date:    stringify(f["date"]),
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// Fallback synthesizes a record when the reply held no JSON. The title comes
// from the preceding turn: hasPrevious is false when the reply had no
// preceding element at all.
func Fallback(content, previous string, hasPrevious bool, now time.Time) Record {
	title := unknownPromptTitle
	if hasPrevious {
		title = previous
		if title == "" {
			title = emptyPromptTitle
		}
	}
	return Record{
		Title:   truncate(title, fallbackTitleRunes),
		Summary: truncate(content, fallbackSummaryRunes) + "...",
		Content: content,
		Todos:   "",
		Date:    prompt.Today(now),
	}
}

// WithDefaults fills an empty date with today so the record is always dated.
func (r Record) WithDefaults(now time.Time) Record {
	if strings.TrimSpace(r.Date) == "" {
		r.Date = prompt.Today(now)
	}
	return r
}

// ValidDate reports whether the record's date is a calendar day.
func (r Record) ValidDate() bool {
	_, err := time.Parse(prompt.DateLayout, r.Date)
	return err == nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
