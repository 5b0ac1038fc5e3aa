package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/http/response"
	"github.com/pckassistant/graph-engine/internal/orchestrator"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
	"github.com/pckassistant/graph-engine/internal/platform/redisbus"
	"github.com/pckassistant/graph-engine/internal/sse"
)

type ChatHandler struct {
	log  *logger.Logger
	orch *orchestrator.Orchestrator
	hub  *sse.Hub
	bus  redisbus.Bus
}

// NewChatHandler wires a handler for a single instance. bus may be nil, in
// which case this instance's streams only ever see events produced by
// this instance's own goroutines.
func NewChatHandler(log *logger.Logger, orch *orchestrator.Orchestrator, hub *sse.Hub, bus redisbus.Bus) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), orch: orch, hub: hub, bus: bus}
}

// broadcastSink fans a trajectory's events out to this instance's local
// stream and, when a bus is configured, to every other instance so a
// client reconnecting elsewhere can pick the same trajectory back up.
type broadcastSink struct {
	ctx          context.Context
	stream       *sse.Stream
	bus          redisbus.Bus
	trajectoryID string
	log          *logger.Logger
}

func (s broadcastSink) Emit(eventType sse.EventType, data any) {
	s.stream.Emit(eventType, data)
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(s.ctx, s.trajectoryID, sse.Message{Type: eventType, Data: data}); err != nil {
		s.log.Warn("failed to publish SSE event to redis bus", "error", err)
	}
}

type chatRequest struct {
	Message        string     `json:"message"`
	ConversationID *uuid.UUID `json:"conversationId"`
}

// POST /api/chat runs one full turn synchronously and returns its outcome
// in a single response, for callers that don't want to hold an SSE
// connection open.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}

	accountID := reqctx.AccountID(c.Request.Context())
	out, err := h.orch.Run(c.Request.Context(), orchestrator.RunInput{
		AccountID:      accountID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	}, orchestrator.NoopSink{})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if out == nil {
		// The turn was cancelled before it could complete; the request
		// context is already gone, so there is nothing meaningful to
		// write back.
		return
	}

	response.RespondOK(c, gin.H{
		"conversationId": out.ConversationID,
		"message":        out.MessageID,
		"trajectory": gin.H{
			"id":                 out.TrajectoryID,
			"entitiesDiscovered": out.EntitiesDiscovered,
			"entitiesTouched":    out.EntitiesTouched,
			"edgesTraversed":     out.EdgesTraversed,
		},
	})
}

// ChatStream runs the same turn but pipes every intermediate event to the
// caller over SSE. The trajectory id is minted here, before Run starts,
// so the stream is open and being read from the moment the first event
// could be emitted into it.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}

	accountID := reqctx.AccountID(c.Request.Context())
	trajectoryID := uuid.New()
	stream := h.hub.Open(trajectoryID)

	runCtx := c.Request.Context()
	sink := broadcastSink{ctx: runCtx, stream: stream, bus: h.bus, trajectoryID: trajectoryID.String(), log: h.log}
	go func() {
		_, err := h.orch.Run(runCtx, orchestrator.RunInput{
			AccountID:      accountID,
			ConversationID: req.ConversationID,
			Message:        req.Message,
			TrajectoryID:   &trajectoryID,
		}, sink)
		if err != nil {
			h.log.Warn("chat stream run failed", "trajectoryId", trajectoryID, "error", err)
			sink.Emit(sse.EventTypeError, map[string]any{
				"message": "the assistant failed to respond",
				"error":   err.Error(),
			})
		}
		h.hub.Close(trajectoryID)
	}()

	sse.ServeHTTP(c.Writer, c.Request, stream)
}
