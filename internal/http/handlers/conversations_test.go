package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

func newTestConversationRouter(t *testing.T) (*gin.Engine, *repos.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	handler := NewConversationHandler(store)
	auth := middleware.NewAuthMiddleware(log)

	r := gin.New()
	r.Use(auth.RequireAccount())
	r.GET("/api/conversations", handler.List)
	r.GET("/api/conversations/:id", handler.Get)
	return r, store
}

func TestListConversationsIsAccountScoped(t *testing.T) {
	r, store := newTestConversationRouter(t)
	accountID := uuid.New().String()

	if _, err := store.Conversations.Create(dbctx.Context{Ctx: context.Background()}, &types.Conversation{
		ID: uuid.New(), AccountID: accountID,
	}); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("X-Account-Id", accountID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Conversations []map[string]any `json:"conversations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(out.Conversations))
	}

	other := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	other.Header.Set("X-Account-Id", uuid.New().String())
	otherRec := httptest.NewRecorder()
	r.ServeHTTP(otherRec, other)

	var otherOut struct {
		Conversations []map[string]any `json:"conversations"`
	}
	if err := json.Unmarshal(otherRec.Body.Bytes(), &otherOut); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(otherOut.Conversations) != 0 {
		t.Fatalf("expected an unrelated account to see no conversations, got %d", len(otherOut.Conversations))
	}
}

func TestGetConversationRejectsAnotherAccount(t *testing.T) {
	r, store := newTestConversationRouter(t)
	accountID := uuid.New().String()

	conv, err := store.Conversations.Create(dbctx.Context{Ctx: context.Background()}, &types.Conversation{
		ID: uuid.New(), AccountID: accountID,
	})
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+conv.ID.String(), nil)
	req.Header.Set("X-Account-Id", uuid.New().String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another account's conversation, got %d", rec.Code)
	}
}
