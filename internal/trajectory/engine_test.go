package trajectory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/repos"
	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	types "github.com/pckassistant/graph-engine/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db := testutil.DB(t)
	store := repos.NewStore(db, testutil.Logger(t))
	return NewEngine(store, testutil.Logger(t), nil, nil)
}

func TestStartLogCompleteTrajectory(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	accountID := uuid.New().String()
	trajID, err := engine.StartTrajectory(ctx, accountID, "students struggle with regrouping in [[topic:subtraction]]", nil)
	if err != nil {
		t.Fatalf("StartTrajectory: %v", err)
	}

	misconception := "misconception"
	strategy := "strategy"
	outcome := "outcome"

	misconceptionID, err := engine.FindOrCreateEntity(ctx, accountID, trajID, "borrows without regrouping", &misconception, nil)
	if err != nil {
		t.Fatalf("FindOrCreateEntity (misconception): %v", err)
	}
	strategyID, err := engine.FindOrCreateEntity(ctx, accountID, trajID, "number line subtraction", &strategy, nil)
	if err != nil {
		t.Fatalf("FindOrCreateEntity (strategy): %v", err)
	}
	outcomeID, err := engine.FindOrCreateEntity(ctx, accountID, trajID, "improved accuracy", &outcome, nil)
	if err != nil {
		t.Fatalf("FindOrCreateEntity (outcome): %v", err)
	}

	for _, id := range []uuid.UUID{misconceptionID, strategyID, outcomeID} {
		id := id
		if _, err := engine.LogEvent(ctx, trajID, LogEventInput{Type: types.EventTypeTouch, EntityID: &id}); err != nil {
			t.Fatalf("LogEvent (touch): %v", err)
		}
	}

	result, err := engine.CompleteTrajectory(ctx, trajID, accountID, nil)
	if err != nil {
		t.Fatalf("CompleteTrajectory: %v", err)
	}
	if result.EntitiesTouched != 3 {
		t.Fatalf("expected 3 entities touched, got %d", result.EntitiesTouched)
	}
	if len(result.EdgesTraversed) != 2 {
		t.Fatalf("expected 2 adjacency edges, got %d", len(result.EdgesTraversed))
	}

	replay, err := engine.CompleteTrajectory(ctx, trajID, accountID, nil)
	if err != nil {
		t.Fatalf("CompleteTrajectory (replay): %v", err)
	}
	if replay.EntitiesTouched != result.EntitiesTouched {
		t.Fatalf("replay produced different EntitiesTouched: %d vs %d", replay.EntitiesTouched, result.EntitiesTouched)
	}
}

func TestFindOrCreateEntityIsIdempotentByNormalizedName(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	accountID := uuid.New().String()

	trajID, err := engine.StartTrajectory(ctx, accountID, "fractions again", nil)
	if err != nil {
		t.Fatalf("StartTrajectory: %v", err)
	}

	first, err := engine.FindOrCreateEntity(ctx, accountID, trajID, "  Fractions  ", nil, nil)
	if err != nil {
		t.Fatalf("FindOrCreateEntity (first): %v", err)
	}
	second, err := engine.FindOrCreateEntity(ctx, accountID, trajID, "fractions", nil, nil)
	if err != nil {
		t.Fatalf("FindOrCreateEntity (second): %v", err)
	}
	if first != second {
		t.Fatalf("expected same entity id for case/whitespace-insensitive match, got %v and %v", first, second)
	}
}
