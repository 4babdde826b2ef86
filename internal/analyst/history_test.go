package analyst

import "testing"

func TestWindowKeepsLastFourInOrder(t *testing.T) {
	var history []Turn
	for _, c := range []string{"a", "b", "c", "d", "e", "f"} {
		history = append(history, Turn{Role: "user", Content: c})
	}
	got := Window(history)
	if len(got) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(got))
	}
	for i, want := range []string{"c", "d", "e", "f"} {
		if got[i].Content != want {
			t.Fatalf("turn %d = %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestWindowShortHistoryUnchanged(t *testing.T) {
	history := []Turn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}
	got := Window(history)
	if len(got) != 2 || got[0].Content != "hi" || got[1].Content != "hello" {
		t.Fatalf("unexpected window: %+v", got)
	}
}

func TestWindowEmpty(t *testing.T) {
	if got := Window(nil); len(got) != 0 {
		t.Fatalf("expected empty window, got %+v", got)
	}
}

func TestWindowNormalizesRoles(t *testing.T) {
	history := []Turn{
		{Role: "system", Content: "x"},
		{Role: "ASSISTANT", Content: "y"},
		{Role: "assistant", Content: "z"},
		{Role: "", Content: "w"},
	}
	got := Window(history)
	want := []string{"user", "user", "assistant", "user"}
	for i, r := range want {
		if got[i].Role != r {
			t.Fatalf("turn %d role = %q, want %q", i, got[i].Role, r)
		}
	}
}
