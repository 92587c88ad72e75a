// Package response recovers the structured record a model writes back in
// reply to the summarization prompt.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoResult is returned, possibly wrapped, when no JSON object can be
// recovered from a reply.
var ErrNoResult = errors.New("no json object in response")

var (
	// The closing fence must start a line. A fence inside a JSON string
	// value is preceded by an escaped \n, never a real line break.
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?[ \\t]*\\r?\\n?(.*?)\\r?\\n[ \\t]*```")
	braceSpan   = regexp.MustCompile(`(?s)\{.*\}`)
)

// Fields is a decoded JSON object. Its shape is not validated.
type Fields map[string]any

// Candidate picks the substring of text most likely to hold the JSON object:
// the first fenced code block whose closing fence starts a line, else the outermost brace span, else the
// whole trimmed text.
func Candidate(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if block := strings.TrimSpace(m[1]); block != "" {
			return block
		}
	}
	if span := braceSpan.FindString(text); span != "" {
		return span
	}
	return strings.TrimSpace(text)
}

// Parse decodes the JSON object embedded in text. A nil Fields with an error
// wrapping ErrNoResult means nothing usable was found; callers log the error
// and fall back rather than fail.
func Parse(text string) (Fields, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrNoResult)
	}

	var f Fields
	if err := json.Unmarshal([]byte(Candidate(text)), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: decoded null", ErrNoResult)
	}
	return f, nil
}
