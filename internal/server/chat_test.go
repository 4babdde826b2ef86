package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/360techsys1/SalesAnalysis/internal/analyst"
)

type stubResponder struct {
	lastQuestion string
	lastHistory  []analyst.Turn
	resp         analyst.Response
}

func (s *stubResponder) Respond(ctx context.Context, question string, history []analyst.Turn) analyst.Response {
	s.lastQuestion = question
	s.lastHistory = history
	return s.resp
}

func doChat(t *testing.T, h *ChatHandler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := NewEcho()
	RegisterRoutes(e, h)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, out
}

func TestChatReturnsPipelineResponse(t *testing.T) {
	one := 1
	stub := &stubResponder{resp: analyst.Response{Answer: "Total was 10000.", RowCount: &one, Mode: "sql"}}
	rec, out := doChat(t, &ChatHandler{Analyst: stub}, `{"question":"total sales","history":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["answer"] != "Total was 10000." || out["mode"] != "sql" {
		t.Fatalf("unexpected body: %v", out)
	}
	if out["rowCount"] != float64(1) {
		t.Fatalf("rowCount = %v", out["rowCount"])
	}
	if stub.lastQuestion != "total sales" || len(stub.lastHistory) != 1 {
		t.Fatalf("request not forwarded: %q %v", stub.lastQuestion, stub.lastHistory)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestChatNullRowCountForChatMode(t *testing.T) {
	stub := &stubResponder{resp: analyst.Response{Answer: "Hello!", Mode: "chat"}}
	rec, _ := doChat(t, &ChatHandler{Analyst: stub}, `{"question":"hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// rowCount must serialize as JSON null, not 0
	if !strings.Contains(rec.Body.String(), `"rowCount":null`) {
		t.Fatalf("rowCount not null: %s", rec.Body.String())
	}
}

func TestChatAlwaysHTTP200ForRecoverableConditions(t *testing.T) {
	zero := 0
	for _, mode := range []string{"invalid_input", "sql_rejected", "fallback", "error_fallback"} {
		stub := &stubResponder{resp: analyst.Response{Answer: "Sorry.", RowCount: &zero, Mode: mode}}
		rec, out := doChat(t, &ChatHandler{Analyst: stub}, `{"question":"whatever"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("mode %s: status = %d, want 200", mode, rec.Code)
		}
		if out["mode"] != mode {
			t.Fatalf("mode = %v, want %s", out["mode"], mode)
		}
	}
}

func TestChatMalformedBodyIsTransportError(t *testing.T) {
	stub := &stubResponder{}
	rec, _ := doChat(t, &ChatHandler{Analyst: stub}, `{"question": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthAndBannerRoutes(t *testing.T) {
	e := NewEcho()
	RegisterRoutes(e, &ChatHandler{Analyst: &stubResponder{}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Chat Analytics API") {
		t.Fatalf("banner: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
