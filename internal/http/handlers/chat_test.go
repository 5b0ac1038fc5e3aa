package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	"github.com/pckassistant/graph-engine/internal/graphreason"
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/orchestrator"
	"github.com/pckassistant/graph-engine/internal/platform/llm"
	"github.com/pckassistant/graph-engine/internal/sse"
	"github.com/pckassistant/graph-engine/internal/trajectory"
)

func newTestChatRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	engine := trajectory.NewEngine(store, log, nil, nil)
	reasoner := graphreason.NewReasoner(store, log)
	orch := orchestrator.New(store, log, engine, reasoner, llm.NewMockClient())
	hub := sse.NewHub(log)
	handler := NewChatHandler(log, orch, hub, nil)

	auth := middleware.NewAuthMiddleware(log)

	r := gin.New()
	r.Use(auth.RequireAccount())
	r.POST("/api/chat", handler.Chat)
	r.POST("/api/chat/stream", handler.ChatStream)
	return r
}

func TestChatReturnsTurnOutcome(t *testing.T) {
	r := newTestChatRouter(t)

	body, _ := json.Marshal(map[string]any{"message": "teaching [[topic:fractions]] today"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Account-Id", "account-1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["conversationId"] == nil || out["message"] == nil {
		t.Fatalf("expected conversationId and message in response, got %+v", out)
	}
	traj, ok := out["trajectory"].(map[string]any)
	if !ok || traj["id"] == nil {
		t.Fatalf("expected a trajectory object with an id, got %+v", out["trajectory"])
	}
}

func TestChatRejectsMissingAccount(t *testing.T) {
	r := newTestChatRouter(t)

	body, _ := json.Marshal(map[string]any{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without an account id, got %d", rec.Code)
	}
}

func TestChatStreamEmitsSSEFramesEndingInComplete(t *testing.T) {
	r := newTestChatRouter(t)

	body, _ := json.Marshal(map[string]any{"message": "teaching [[topic:fractions]] today"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Account-Id", "account-2")

	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the SSE stream to finish")
	}

	out := rec.Body.String()
	if !bytes.Contains([]byte(out), []byte("event: trajectory_event")) {
		t.Fatalf("expected at least one trajectory_event frame, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("event: complete")) {
		t.Fatalf("expected a terminal complete frame, got %q", out)
	}
}
