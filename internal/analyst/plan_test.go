package analyst

import "testing"

// Every malformed oracle output must still produce a structurally valid Plan:
// SQL is nil unless mode is sql, in which case it is a non-nil string.
func checkInvariant(t *testing.T, p Plan) {
	t.Helper()
	switch p.Mode {
	case ModeChat, ModeClarify:
		if p.SQL != nil {
			t.Fatalf("non-sql mode %q carries sql %q", p.Mode, *p.SQL)
		}
	case ModeSQL:
		if p.SQL == nil {
			t.Fatalf("sql mode with nil sql")
		}
	default:
		t.Fatalf("invalid mode %q", p.Mode)
	}
}

func TestDecodePlanValidSQL(t *testing.T) {
	p := decodePlan(`{"mode":"sql","sql":"SELECT 1","message":"one"}`)
	checkInvariant(t, p)
	if p.Mode != ModeSQL || p.SQL == nil || *p.SQL != "SELECT 1" || p.Message == nil || *p.Message != "one" {
		t.Fatalf("unexpected plan: %+v", p)
	}
}

func TestDecodePlanNonJSONBecomesChatReply(t *testing.T) {
	raw := "I think you want the monthly sales."
	p := decodePlan(raw)
	checkInvariant(t, p)
	if p.Mode != ModeChat {
		t.Fatalf("expected chat mode, got %q", p.Mode)
	}
	if p.Message == nil || *p.Message != raw {
		t.Fatalf("raw text not carried as message: %+v", p)
	}
}

func TestDecodePlanNonObjectJSON(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"just a string"`, `42`, `true`, `null`} {
		p := decodePlan(raw)
		checkInvariant(t, p)
		if p.Mode != ModeChat {
			t.Fatalf("%s: expected chat mode, got %q", raw, p.Mode)
		}
		if p.Message == nil || *p.Message != cannedApology {
			t.Fatalf("%s: expected canned apology, got %+v", raw, p)
		}
	}
}

func TestDecodePlanUnknownModeForcedToChat(t *testing.T) {
	for _, raw := range []string{
		`{"mode":"delete","sql":"DROP TABLE x"}`,
		`{"mode":42}`,
		`{"sql":"SELECT 1"}`,
		`{}`,
	} {
		p := decodePlan(raw)
		checkInvariant(t, p)
		if p.Mode != ModeChat {
			t.Fatalf("%s: expected chat, got %q", raw, p.Mode)
		}
		if p.SQL != nil {
			t.Fatalf("%s: sql must be cleared outside sql mode", raw)
		}
	}
}

func TestDecodePlanSQLModeWithoutStringQuery(t *testing.T) {
	for _, raw := range []string{
		`{"mode":"sql"}`,
		`{"mode":"sql","sql":null}`,
		`{"mode":"sql","sql":123}`,
		`{"mode":"sql","sql":{"q":"SELECT 1"}}`,
	} {
		p := decodePlan(raw)
		checkInvariant(t, p)
		if p.Mode != ModeSQL {
			t.Fatalf("%s: expected sql mode, got %q", raw, p.Mode)
		}
		if p.SQL == nil || *p.SQL != "" {
			t.Fatalf("%s: expected empty-string sql, got %+v", raw, p.SQL)
		}
	}
}

func TestDecodePlanNonStringMessageDropped(t *testing.T) {
	for _, raw := range []string{
		`{"mode":"chat","message":17}`,
		`{"mode":"clarify","message":["a"]}`,
		`{"mode":"chat","message":null}`,
	} {
		p := decodePlan(raw)
		checkInvariant(t, p)
		if p.Message != nil {
			t.Fatalf("%s: expected nil message, got %q", raw, *p.Message)
		}
	}
}

func TestDecodePlanClarifyClearsSQL(t *testing.T) {
	p := decodePlan(`{"mode":"clarify","sql":"SELECT 1","message":"which store?"}`)
	checkInvariant(t, p)
	if p.Mode != ModeClarify || p.SQL != nil {
		t.Fatalf("unexpected plan: %+v", p)
	}
}
