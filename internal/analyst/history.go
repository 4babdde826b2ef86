package analyst

// Turn is one caller-supplied conversation turn. History is owned by the
// caller and supplied on every request; nothing here persists it.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// historyWindow caps how much caller history is forwarded to the oracle.
	historyWindow = 4
)

// Window returns at most the last historyWindow turns, order preserved.
// Roles are normalized defensively: anything that is not exactly the
// assistant role is treated as a user turn.
func Window(history []Turn) []Turn {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	out := make([]Turn, 0, len(history)-start)
	for _, t := range history[start:] {
		if t.Role != roleAssistant {
			t.Role = roleUser
		}
		out = append(out, t)
	}
	return out
}
