package thread

// Role identifies who spoke a turn.
type Role string

const (
	RoleUser    Role = "user"
	RoleModel   Role = "model"
	RoleUnknown Role = "unknown"
)

// Message is a single turn of the conversation. Index is the zero-based
// position of the turn node among the discovered turns; it is nil for
// messages recovered by the fallback heuristic.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Index   *int   `json:"index,omitempty"`
}

// Transcript is a conversation in page order.
type Transcript []Message

// Empty reports whether no turns were found.
func (t Transcript) Empty() bool {
	return len(t) == 0
}
