package server

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/360techsys1/SalesAnalysis/internal/analyst"
)

// Responder is the pipeline seen by the transport layer.
type Responder interface {
	Respond(ctx context.Context, question string, history []analyst.Turn) analyst.Response
}

// ChatRequest is the inbound body. History is optional and caller-owned.
type ChatRequest struct {
	Question string         `json:"question"`
	History  []analyst.Turn `json:"history"`
}

// ChatHandler serves POST /api/chat. Every recoverable condition — missing
// question, unsafe SQL, internal failure — still answers HTTP 200 so the
// conversational UI never special-cases transport errors.
type ChatHandler struct {
	Analyst Responder
	Logger  *log.Logger
}

func (h *ChatHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// Handle runs one request through the pipeline.
func (h *ChatHandler) Handle(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reqID := uuid.NewString()
	c.Response().Header().Set("X-Request-ID", reqID)

	resp := h.Analyst.Respond(c.Request().Context(), req.Question, req.History)
	h.logger().Printf("[CHAT] request=%s mode=%s", reqID, resp.Mode)
	return c.JSON(http.StatusOK, resp)
}
