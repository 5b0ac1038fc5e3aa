package repos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

type CooccurrenceRepo interface {
	Upsert(dbc dbctx.Context, entityA, entityB uuid.UUID, newTrajectory bool, at time.Time) (*types.Cooccurrence, error)
	ListInvolving(dbc dbctx.Context, entityIDs []uuid.UUID) ([]*types.Cooccurrence, error)
}

type cooccurrenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCooccurrenceRepo(db *gorm.DB, log *logger.Logger) CooccurrenceRepo {
	return &cooccurrenceRepo{db: db, log: log.With("repo", "CooccurrenceRepo")}
}

// canonicalPair orders two entity ids so a pair is always stored the same
// way regardless of which one was touched first in a trajectory.
func canonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

func (r *cooccurrenceRepo) Upsert(dbc dbctx.Context, entityA, entityB uuid.UUID, newTrajectory bool, at time.Time) (*types.Cooccurrence, error) {
	if entityA == uuid.Nil || entityB == uuid.Nil || entityA == entityB {
		return nil, fmt.Errorf("invalid cooccurrence pair")
	}
	idA, idB := canonicalPair(entityA, entityB)
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var existing types.Cooccurrence
	err := txx.WithContext(dbc.Ctx).
		Where("id_a = ? AND id_b = ?", idA, idB).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err == gorm.ErrRecordNotFound {
		row := &types.Cooccurrence{
			ID:              uuid.New(),
			IDA:             idA,
			IDB:             idB,
			Count:           1,
			WindowCount:     1,
			TrajectoryCount: 1,
			LastUpdated:     at,
		}
		if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}

	updates := map[string]interface{}{
		"count":        gorm.Expr("count + 1"),
		"window_count": gorm.Expr("window_count + 1"),
		"last_updated": at,
		"updated_at":   time.Now().UTC(),
	}
	if newTrajectory {
		updates["trajectory_count"] = gorm.Expr("trajectory_count + 1")
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Cooccurrence{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var out types.Cooccurrence
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", existing.ID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cooccurrenceRepo) ListInvolving(dbc dbctx.Context, entityIDs []uuid.UUID) ([]*types.Cooccurrence, error) {
	if len(entityIDs) == 0 {
		return []*types.Cooccurrence{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Cooccurrence
	if err := txx.WithContext(dbc.Ctx).
		Where("id_a IN ? OR id_b IN ?", entityIDs, entityIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
