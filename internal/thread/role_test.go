package thread

import (
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/scribe/internal/page"
)

func view(attrs map[string]string) page.NodeView {
	v := page.NodeView{Tag: "div", Attrs: attrs}
	if c, ok := attrs["class"]; ok {
		v.Classes = strings.Fields(c)
	}
	return v
}

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		name  string
		attrs map[string]string
		want  Role
	}{
		{"author role 0", map[string]string{"data-message-author-role": "0"}, RoleUser},
		{"author role 1", map[string]string{"data-message-author-role": "1"}, RoleModel},
		{"author user", map[string]string{"data-author": "user"}, RoleUser},
		{"author human", map[string]string{"data-author": "human"}, RoleUser},
		{"author model", map[string]string{"data-author": "model"}, RoleModel},
		{"author assistant", map[string]string{"data-author": "assistant"}, RoleModel},
		{"class user", map[string]string{"class": "turn User-Query"}, RoleUser},
		{"class human", map[string]string{"class": "humanTurn"}, RoleUser},
		{"class model", map[string]string{"class": "model-turn"}, RoleModel},
		{"class response", map[string]string{"class": "RESPONSE-container"}, RoleModel},
		{"nothing", map[string]string{"class": "bubble"}, RoleUnknown},
		{"no attrs", map[string]string{}, RoleUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyRole(view(tc.attrs)); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyRole_Precedence(t *testing.T) {
	// Explicit author role beats a contradicting data-author and class.
	v := view(map[string]string{
		"data-message-author-role": "1",
		"data-author":              "user",
		"class":                    "user-message",
	})
	if got := ClassifyRole(v); got != RoleModel {
		t.Errorf("expected model from author role, got %q", got)
	}

	// Unrecognised author role value falls through to data-author.
	v = view(map[string]string{
		"data-message-author-role": "7",
		"data-author":              "assistant",
		"class":                    "user-message",
	})
	if got := ClassifyRole(v); got != RoleModel {
		t.Errorf("expected model from data-author, got %q", got)
	}

	// Unrecognised data-author falls through to class hints; user wins over model.
	v = view(map[string]string{
		"data-author": "system",
		"class":       "user-model-response",
	})
	if got := ClassifyRole(v); got != RoleUser {
		t.Errorf("expected user from class, got %q", got)
	}
}
