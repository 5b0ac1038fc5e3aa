package graphquery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

func seedEntity(t *testing.T, store *repos.Store, name, entityType string) *types.Entity {
	t.Helper()
	now := time.Now().UTC()
	row, err := store.Entities.Create(dbctx.Context{Ctx: context.Background()}, &types.Entity{
		ID: uuid.New(), Name: name, NormalizedName: name, EntityType: &entityType,
		TouchCount: 1, TrajectoryCount: 1, FirstSeen: now, LastSeen: now,
	})
	if err != nil {
		t.Fatalf("seedEntity(%s): %v", name, err)
	}
	return row
}

func TestGetGraphWithoutCenterIsAccountScoped(t *testing.T) {
	db := testutil.DB(t)
	store := repos.NewStore(db, testutil.Logger(t))
	q := NewQuery(store, testutil.Logger(t), nil)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()

	accountID := uuid.New().String()
	strategy := seedEntity(t, store, "number line subtraction", "strategy")
	outcome := seedEntity(t, store, "improved accuracy", "outcome")

	traj, err := store.Trajectories.Create(dbc, &types.Trajectory{
		ID: uuid.New(), AccountID: accountID, InputText: "x", StartedAt: now,
	})
	if err != nil {
		t.Fatalf("Create trajectory: %v", err)
	}
	for seq, id := range []uuid.UUID{strategy.ID, outcome.ID} {
		id := id
		if _, err := store.Events.Create(dbc, &types.Event{
			ID: uuid.New(), TrajectoryID: traj.ID, SequenceNum: int64(seq),
			Timestamp: now, EventType: string(types.EventTypeTouch), EntityID: &id,
		}); err != nil {
			t.Fatalf("Create event: %v", err)
		}
	}
	leadsTo := types.RelationshipTypeLeadsTo
	if _, err := store.Edges.Upsert(dbc, strategy.ID, outcome.ID, repos.EdgeMutation{NewTrajectory: true, RelationshipType: &leadsTo, At: now}); err != nil {
		t.Fatalf("Upsert edge: %v", err)
	}

	result, err := q.GetGraph(ctx, accountID, GraphOptions{})
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if len(result.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(result.Nodes))
	}
	if len(result.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(result.Edges))
	}

	other, err := q.GetGraph(ctx, uuid.New().String(), GraphOptions{})
	if err != nil {
		t.Fatalf("GetGraph (other account): %v", err)
	}
	if len(other.Nodes) != 0 {
		t.Fatalf("expected an unrelated account to see no nodes, got %d", len(other.Nodes))
	}
}

func TestGetEntityEnforcesPerAccountVisibility(t *testing.T) {
	db := testutil.DB(t)
	store := repos.NewStore(db, testutil.Logger(t))
	q := NewQuery(store, testutil.Logger(t), nil)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()

	accountID := uuid.New().String()
	entity := seedEntity(t, store, "worked examples", "strategy")

	traj, err := store.Trajectories.Create(dbc, &types.Trajectory{
		ID: uuid.New(), AccountID: accountID, InputText: "x", StartedAt: now,
	})
	if err != nil {
		t.Fatalf("Create trajectory: %v", err)
	}
	if _, err := store.Events.Create(dbc, &types.Event{
		ID: uuid.New(), TrajectoryID: traj.ID, SequenceNum: 0,
		Timestamp: now, EventType: string(types.EventTypeTouch), EntityID: &entity.ID,
	}); err != nil {
		t.Fatalf("Create event: %v", err)
	}

	detail, err := q.GetEntity(ctx, accountID, entity.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if detail.Name != "worked examples" {
		t.Fatalf("expected entity name 'worked examples', got %q", detail.Name)
	}

	if _, err := q.GetEntity(ctx, uuid.New().String(), entity.ID); err == nil {
		t.Fatalf("expected not-found error for an account that never touched the entity")
	}
}
