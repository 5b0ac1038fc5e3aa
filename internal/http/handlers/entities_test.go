package handlers

import (
	"context"
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

func TestGetEntityRequiresAccountToHaveTouchedIt(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	query := graphquery.NewQuery(store, log, nil)
	handler := NewEntityHandler(query)
	auth := middleware.NewAuthMiddleware(log)

	r := gin.New()
	r.Use(auth.AttachAccount())
	r.GET("/api/entities/:id", handler.Get)

	now := time.Now().UTC()
	dbc := dbctx.Context{Ctx: context.Background()}
	entityType := "topic"
	entity, err := store.Entities.Create(dbc, &types.Entity{
		ID: uuid.New(), Name: "fractions", NormalizedName: "fractions",
		EntityType: &entityType, TouchCount: 1, TrajectoryCount: 1, FirstSeen: now, LastSeen: now,
	})
	if err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	accountID := uuid.New().String()
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

	owned := httptest.NewRequest(http.MethodGet, "/api/entities/"+entity.ID.String(), nil)
	owned.Header.Set("X-Account-Id", accountID)
	ownedRec := httptest.NewRecorder()
	r.ServeHTTP(ownedRec, owned)
	if ownedRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the account that touched the entity, got %d body=%s", ownedRec.Code, ownedRec.Body.String())
	}

	stranger := httptest.NewRequest(http.MethodGet, "/api/entities/"+entity.ID.String(), nil)
	stranger.Header.Set("X-Account-Id", uuid.New().String())
	strangerRec := httptest.NewRecorder()
	r.ServeHTTP(strangerRec, stranger)
	if strangerRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an account that never touched the entity, got %d", strangerRec.Code)
	}
}
