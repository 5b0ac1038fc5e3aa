package repos

import (
	"context"
	"testing"
	"time"

	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	types "github.com/pckassistant/graph-engine/internal/domain"
)

func TestEntityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewEntityRepo(db, testutil.Logger(t))

	entityType := string(types.EntityTypeTopic)
	row, err := repo.Create(dbc, &types.Entity{
		Name:           "Fractions",
		NormalizedName: "fractions",
		EntityType:     &entityType,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if row.ID.String() == "" {
		t.Fatalf("Create: expected an id")
	}

	found, err := repo.FindByNormalizedName(dbc, "fractions")
	if err != nil {
		t.Fatalf("FindByNormalizedName: %v", err)
	}
	if found == nil || found.ID != row.ID {
		t.Fatalf("FindByNormalizedName: expected %v got %v", row.ID, found)
	}

	missing, err := repo.FindByNormalizedName(dbc, "does-not-exist")
	if err != nil {
		t.Fatalf("FindByNormalizedName (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("FindByNormalizedName (missing): expected nil, got %v", missing)
	}

	now := time.Now().UTC()
	if err := repo.Touch(dbc, row.ID, now, true); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	after, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if after.TouchCount != 1 {
		t.Fatalf("Touch: expected touch_count=1, got %d", after.TouchCount)
	}
	if after.TrajectoryCount != 1 {
		t.Fatalf("Touch: expected trajectory_count=1, got %d", after.TrajectoryCount)
	}

	if err := repo.Touch(dbc, row.ID, now, false); err != nil {
		t.Fatalf("Touch (repeat): %v", err)
	}
	after2, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID (after repeat): %v", err)
	}
	if after2.TouchCount != 2 {
		t.Fatalf("Touch (repeat): expected touch_count=2, got %d", after2.TouchCount)
	}
	if after2.TrajectoryCount != 1 {
		t.Fatalf("Touch (repeat): expected trajectory_count unchanged at 1, got %d", after2.TrajectoryCount)
	}

	list, err := repo.ListByType(dbc, entityType, 10)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListByType: expected 1, got %d", len(list))
	}
}
