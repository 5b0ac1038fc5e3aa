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
	"github.com/pckassistant/graph-engine/internal/http/middleware"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

func newTestTrajectoryRouter(t *testing.T) (*gin.Engine, *repos.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := repos.NewStore(db, log)
	handler := NewTrajectoryHandler(store)
	auth := middleware.NewAuthMiddleware(log)

	r := gin.New()
	r.Use(auth.RequireAccount())
	r.GET("/api/trajectories", handler.List)
	r.GET("/api/trajectories/:id", handler.Get)
	return r, store
}

func TestGetTrajectoryEnforcesAccountOwnership(t *testing.T) {
	r, store := newTestTrajectoryRouter(t)
	accountID := uuid.New().String()

	traj, err := store.Trajectories.Create(dbctx.Context{Ctx: context.Background()}, &types.Trajectory{
		ID: uuid.New(), AccountID: accountID, InputText: "x", StartedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed trajectory: %v", err)
	}

	owned := httptest.NewRequest(http.MethodGet, "/api/trajectories/"+traj.ID.String(), nil)
	owned.Header.Set("X-Account-Id", accountID)
	ownedRec := httptest.NewRecorder()
	r.ServeHTTP(ownedRec, owned)
	if ownedRec.Code != http.StatusOK {
		t.Fatalf("expected the owning account to read its trajectory, got %d", ownedRec.Code)
	}

	stolen := httptest.NewRequest(http.MethodGet, "/api/trajectories/"+traj.ID.String(), nil)
	stolen.Header.Set("X-Account-Id", uuid.New().String())
	stolenRec := httptest.NewRecorder()
	r.ServeHTTP(stolenRec, stolen)
	if stolenRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a non-owning account, got %d", stolenRec.Code)
	}
}

func TestListTrajectoriesIsAccountScoped(t *testing.T) {
	r, store := newTestTrajectoryRouter(t)
	accountID := uuid.New().String()

	if _, err := store.Trajectories.Create(dbctx.Context{Ctx: context.Background()}, &types.Trajectory{
		ID: uuid.New(), AccountID: accountID, InputText: "x", StartedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed trajectory: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/trajectories", nil)
	req.Header.Set("X-Account-Id", accountID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out struct {
		Trajectories []map[string]any `json:"trajectories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Trajectories) != 1 {
		t.Fatalf("expected 1 trajectory, got %d", len(out.Trajectories))
	}
}
