package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/graphquery"
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

func TestGetGraphReturnsAccountScopedSubgraph(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	query := graphquery.NewQuery(store, log, nil)
	handler := NewGraphHandler(query)
	auth := middleware.NewAuthMiddleware(log)

	r := gin.New()
	r.Use(auth.AttachAccount())
	r.GET("/api/graph", handler.GetGraph)

	accountID := uuid.New().String()
	now := time.Now().UTC()
	dbc := dbctx.Context{Ctx: context.Background()}

	entityType := "strategy"
	entity, err := store.Entities.Create(dbc, &types.Entity{
		ID: uuid.New(), Name: "worked examples", NormalizedName: "worked examples",
		EntityType: &entityType, TouchCount: 1, TrajectoryCount: 1, FirstSeen: now, LastSeen: now,
	})
	if err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	traj, err := store.Trajectories.Create(dbc, &types.Trajectory{
		ID: uuid.New(), AccountID: accountID, InputText: "x", StartedAt: now,
	})
	if err != nil {
		t.Fatalf("seed trajectory: %v", err)
	}
	if _, err := store.Events.Create(dbc, &types.Event{
		ID: uuid.New(), TrajectoryID: traj.ID, SequenceNum: 0,
		Timestamp: now, EventType: string(types.EventTypeTouch), EntityID: &entity.ID,
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set("X-Account-Id", accountID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Nodes []map[string]any `json:"Nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(out.Nodes))
	}
}

func TestGetGraphRejectsInvalidCenterEntityID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	query := graphquery.NewQuery(store, log, nil)
	handler := NewGraphHandler(query)

	r := gin.New()
	r.GET("/api/graph", handler.GetGraph)

	req := httptest.NewRequest(http.MethodGet, "/api/graph?centerEntityId=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed centerEntityId, got %d", rec.Code)
	}
}
