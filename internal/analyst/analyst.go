// Package analyst implements the decision pipeline that turns a
// natural-language business question into a chat reply, a clarification
// question, or a validated SQL round trip with a narrated result.
//
// One request walks the pipeline exactly once:
//
//	Start -> Routed{chat|clarify|sql} -> [sql] Validated -> Executed -> Narrated -> Done
//
// and any failure or policy rejection diverts to the fallback responder.
// There are no retries and no revisited states.
package analyst

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/360techsys1/SalesAnalysis/internal/llm"
	"github.com/360techsys1/SalesAnalysis/internal/safety"
	"github.com/360techsys1/SalesAnalysis/internal/store"
	"github.com/360techsys1/SalesAnalysis/internal/telemetry"
)

// Executor runs admitted SQL. Satisfied by *store.Store and cache.Cached.
type Executor interface {
	Query(ctx context.Context, sqlText string) ([]store.Row, error)
}

// Response is the externally observable result of one request. RowCount is
// nil for non-SQL modes, zero for rejected or degraded requests, and the
// actual row count for a successful SQL round.
type Response struct {
	Answer   string `json:"answer"`
	RowCount *int   `json:"rowCount"`
	Mode     string `json:"mode"`
}

// Analyst wires router, validator, executor, narrator and fallback into the
// request pipeline. Stateless across requests; the executor owns the only
// shared resource.
type Analyst struct {
	router   *Router
	narrator *Narrator
	fallback *Fallback
	executor Executor
	logger   *log.Logger
}

// New assembles the pipeline.
func New(provider llm.Provider, executor Executor, schemaText string) *Analyst {
	return &Analyst{
		router:   NewRouter(provider, schemaText),
		narrator: NewNarrator(provider),
		fallback: NewFallback(provider),
		executor: executor,
		logger:   log.New(log.Writer(), "[ANALYST] ", log.LstdFlags),
	}
}

// Respond handles one question. It never returns an error: every failure
// mode degrades to a safe, non-leaking response with a mode tag identifying
// the path taken.
func (a *Analyst) Respond(ctx context.Context, question string, history []Turn) Response {
	if strings.TrimSpace(question) == "" {
		return a.finish(Response{Answer: a.fallback.InvalidInput(), RowCount: intPtr(0), Mode: ModeInvalidInput})
	}

	routeStart := time.Now()
	plan, err := a.router.Route(ctx, question, history)
	telemetry.ObserveStage("route", routeStart)
	if err != nil {
		telemetry.LLMRequests.WithLabelValues("error").Inc()
		a.logger.Printf("routing failed: %v", err)
		return a.errorFallback(ctx, question, history)
	}
	telemetry.LLMRequests.WithLabelValues("ok").Inc()

	if plan.Mode == ModeChat || plan.Mode == ModeClarify {
		answer := "I am here to help with your ecommerce analytics questions."
		if plan.Message != nil && *plan.Message != "" {
			answer = *plan.Message
		}
		return a.finish(Response{Answer: answer, Mode: plan.Mode})
	}

	sqlText := ""
	if plan.SQL != nil {
		sqlText = strings.TrimSpace(*plan.SQL)
	}
	if sqlText == "" {
		a.logger.Printf("empty SQL for sql mode, falling back to chat")
		return a.finish(Response{Answer: a.fallback.General(ctx, question, history), RowCount: intPtr(0), Mode: ModeFallback})
	}

	if !safety.IsSafe(sqlText) {
		telemetry.SQLRejected.Inc()
		a.logger.Printf("blocked unsafe SQL from oracle")
		return a.finish(Response{Answer: a.fallback.Rejected(plan.Message), RowCount: intPtr(0), Mode: ModeSQLRejected})
	}

	execStart := time.Now()
	rows, err := a.executor.Query(ctx, sqlText)
	telemetry.ObserveStage("execute", execStart)
	if err != nil {
		a.logger.Printf("execution failed: %v", err)
		return a.errorFallback(ctx, question, history)
	}

	narrateStart := time.Now()
	answer, err := a.narrator.Narrate(ctx, question, rows, Meta{RowCount: len(rows), SQL: sqlText})
	telemetry.ObserveStage("narrate", narrateStart)
	if err != nil {
		a.logger.Printf("narration failed: %v", err)
		return a.errorFallback(ctx, question, history)
	}

	return a.finish(Response{Answer: answer, RowCount: intPtr(len(rows)), Mode: ModeSQL})
}

func (a *Analyst) errorFallback(ctx context.Context, question string, history []Turn) Response {
	return a.finish(Response{
		Answer:   a.fallback.ErrorApology(ctx, question, history),
		RowCount: intPtr(0),
		Mode:     ModeErrorFallback,
	})
}

func (a *Analyst) finish(resp Response) Response {
	telemetry.ChatRequests.WithLabelValues(resp.Mode).Inc()
	return resp
}

func intPtr(n int) *int { return &n }
