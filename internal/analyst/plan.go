package analyst

import "encoding/json"

// Response modes. The first three are produced by the router; the rest tag
// fallback paths so the UI can distinguish why a request degraded.
const (
	ModeChat    = "chat"
	ModeClarify = "clarify"
	ModeSQL     = "sql"

	ModeInvalidInput  = "invalid_input"
	ModeFallback      = "fallback"
	ModeSQLRejected   = "sql_rejected"
	ModeErrorFallback = "error_fallback"
)

const cannedApology = "Sorry, I could not understand that. Please try asking your question again."

// Plan is the router's normalized decision. Invariant: SQL is nil unless
// Mode is ModeSQL, in which case SQL is a non-nil string (possibly empty,
// which the pipeline treats as a fallback trigger).
type Plan struct {
	Mode    string  `json:"mode"`
	SQL     *string `json:"sql"`
	Message *string `json:"message"`
}

// decodePlan turns raw oracle output into a valid Plan. The oracle is
// untrusted input: every field is sanitized independently, and the function
// never fails.
//
// Rules, in order:
//  1. non-JSON text becomes a chat reply carrying the raw text;
//  2. JSON that is not an object is replaced wholesale with a canned apology;
//  3. an unrecognized mode is forced to chat;
//  4. sql is nil outside sql mode, and an empty string when sql mode arrives
//     without a string query;
//  5. message is nil unless it is a string.
func decodePlan(raw string) Plan {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		text := raw
		return Plan{Mode: ModeChat, Message: &text}
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		msg := cannedApology
		return Plan{Mode: ModeChat, Message: &msg}
	}

	var plan Plan
	if mode, ok := obj["mode"].(string); ok {
		plan.Mode = mode
	}
	switch plan.Mode {
	case ModeChat, ModeClarify, ModeSQL:
	default:
		plan.Mode = ModeChat
	}

	if plan.Mode == ModeSQL {
		if s, ok := obj["sql"].(string); ok {
			plan.SQL = &s
		} else {
			empty := ""
			plan.SQL = &empty
		}
	}

	if m, ok := obj["message"].(string); ok {
		plan.Message = &m
	}
	return plan
}
