package thread

import "github.com/MikeSquared-Agency/scribe/internal/page"

// ClassifyRole maps a turn node to its speaker. Explicit role attributes take
// precedence over class-name hints; anything unrecognised is RoleUnknown.
func ClassifyRole(v page.NodeView) Role {
	if r, ok := v.Attr("data-message-author-role"); ok {
		switch r {
		case "0":
			return RoleUser
		case "1":
			return RoleModel
		}
	}

	if a, ok := v.Attr("data-author"); ok {
		switch a {
		case "user", "human":
			return RoleUser
		case "model", "assistant":
			return RoleModel
		}
	}

	if v.ClassContains("user") || v.ClassContains("human") {
		return RoleUser
	}
	if v.ClassContains("model") || v.ClassContains("response") {
		return RoleModel
	}

	return RoleUnknown
}
