package analyst

import (
	"context"
	"fmt"
	"log"

	"github.com/360techsys1/SalesAnalysis/internal/llm"
)

// fallbackPrompt phrases apologies and small talk. It must never mention
// technical detail even when invoked because something broke internally.
const fallbackPrompt = `
You are a friendly, helpful AI assistant for an ecommerce company in KSA (Saudi Arabia).
You can:
- Chat normally (greetings, small talk, gibberish).
- Answer conceptual questions about ecommerce, logistics, and analytics.
- If you suspect an internal error occurred, you MUST NOT mention technical details.
  Instead, give a polite, general response and suggest the user try again or narrow their question.
`

const (
	invalidInputAnswer = `Please provide your question as text, for example: "Show me total COD sales for last month" or "Hi".`

	hardcodedApology = "Something went wrong while processing your request. " +
		"Please try again with a slightly different or more specific question."

	rejectedSuffix = "However, the generated SQL looked unsafe. Please rephrase or narrow your question."

	rejectedAnswer = "I could not safely generate a query for that. " +
		"Please try rephrasing or narrowing your request (e.g., specify a time range, branch, or store)."
)

// Fallback is the last-resort responder. Its oracle sub-call is best-effort:
// when that fails too, the hard-coded literal goes out. This is the one path
// that cannot depend on any external service succeeding.
type Fallback struct {
	provider llm.Provider
	logger   *log.Logger
}

// NewFallback builds a Fallback responder.
func NewFallback(provider llm.Provider) *Fallback {
	return &Fallback{provider: provider, logger: log.New(log.Writer(), "[FALLBACK] ", log.LstdFlags)}
}

// InvalidInput is the cheapest path: a literal, no external calls.
func (f *Fallback) InvalidInput() string { return invalidInputAnswer }

// Rejected composes the user-facing answer for SQL blocked by the safety
// policy, reusing the router's own message when it offered one.
func (f *Fallback) Rejected(planMessage *string) string {
	if planMessage != nil && *planMessage != "" {
		return *planMessage + "\n\n" + rejectedSuffix
	}
	return rejectedAnswer
}

// General asks the oracle to phrase a contextual reply; on any failure it
// falls through to the hard-coded apology.
func (f *Fallback) General(ctx context.Context, question string, history []Turn) string {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: fallbackPrompt})
	for _, t := range Window(history) {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: roleUser, Content: question})

	answer, err := f.provider.Complete(ctx, messages, llm.Options{Temperature: 0.7, MaxTokens: 400})
	if err != nil || answer == "" {
		if err != nil {
			f.logger.Printf("fallback oracle call failed: %v", err)
		}
		return hardcodedApology
	}
	return answer
}

// ErrorApology produces a friendly answer after an internal failure, without
// leaking what actually happened.
func (f *Fallback) ErrorApology(ctx context.Context, question string, history []Turn) string {
	wrapped := fmt.Sprintf("The system had an internal issue while handling this user question: %s. "+
		"Respond in a friendly way and ask them to try again or narrow their query, "+
		"without mentioning any technical errors or databases.", question)
	return f.General(ctx, wrapped, history)
}
