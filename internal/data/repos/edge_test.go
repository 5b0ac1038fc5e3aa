package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
)

func newTestEntity(entityType, name string) *types.Entity {
	return &types.Entity{
		Name:           name,
		NormalizedName: name,
		EntityType:     &entityType,
	}
}

func TestEdgeRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	entityRepo := NewEntityRepo(db, testutil.Logger(t))
	edgeRepo := NewEdgeRepo(db, testutil.Logger(t))

	source, err := entityRepo.Create(dbc, newTestEntity("misconception", "borrows without regrouping"))
	if err != nil {
		t.Fatalf("Create source: %v", err)
	}
	target, err := entityRepo.Create(dbc, newTestEntity("strategy", "number line subtraction"))
	if err != nil {
		t.Fatalf("Create target: %v", err)
	}

	now := time.Now().UTC()
	edge, err := edgeRepo.Upsert(dbc, source.ID, target.ID, EdgeMutation{NewTrajectory: true, Outcome: "positive", At: now})
	if err != nil {
		t.Fatalf("Upsert (first): %v", err)
	}
	if edge.Weight != 1 || edge.TrajectoryCount != 1 || edge.PositiveOutcomes != 1 {
		t.Fatalf("Upsert (first): unexpected edge %+v", edge)
	}

	edge2, err := edgeRepo.Upsert(dbc, source.ID, target.ID, EdgeMutation{NewTrajectory: true, Outcome: "negative", At: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}
	if edge2.Weight != 2 || edge2.TrajectoryCount != 2 {
		t.Fatalf("Upsert (second): expected weight=2 trajectory_count=2, got %+v", edge2)
	}
	if edge2.PositiveOutcomes != 1 || edge2.NegativeOutcomes != 1 {
		t.Fatalf("Upsert (second): expected mixed outcome tallies, got %+v", edge2)
	}

	fromSource, err := edgeRepo.ListBySource(dbc, source.ID)
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(fromSource) != 1 {
		t.Fatalf("ListBySource: expected 1, got %d", len(fromSource))
	}
}

func TestCooccurrenceRepoUpsertIsOrderIndependent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewCooccurrenceRepo(db, testutil.Logger(t))
	a, b := uuid.New(), uuid.New()

	first, err := repo.Upsert(dbc, a, b, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("Upsert (a,b): %v", err)
	}
	second, err := repo.Upsert(dbc, b, a, false, time.Now().UTC())
	if err != nil {
		t.Fatalf("Upsert (b,a): %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same row regardless of argument order, got %v and %v", first.ID, second.ID)
	}
	if second.Count != 2 {
		t.Fatalf("expected count=2 after two observations, got %d", second.Count)
	}
}
