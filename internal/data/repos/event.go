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

type EventRepo interface {
	Create(dbc dbctx.Context, row *types.Event) (*types.Event, error)
	ListByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) ([]*types.Event, error)
	CountByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) (int64, error)
	CountDistinctEntitiesByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) (int64, error)
	DistinctEntityIDsByTrajectories(dbc dbctx.Context, trajectoryIDs []uuid.UUID) ([]uuid.UUID, error)
	ExistsForAccountAndEntity(dbc dbctx.Context, accountID string, entityID uuid.UUID) (bool, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, log *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: log.With("repo", "EventRepo")}
}

func (r *eventRepo) Create(dbc dbctx.Context, row *types.Event) (*types.Event, error) {
	if row == nil || row.TrajectoryID == uuid.Nil {
		return nil, fmt.Errorf("missing event row/trajectory_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now().UTC()
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *eventRepo) ListByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) ([]*types.Event, error) {
	if trajectoryID == uuid.Nil {
		return nil, fmt.Errorf("missing trajectory id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Event
	if err := txx.WithContext(dbc.Ctx).
		Where("trajectory_id = ?", trajectoryID).
		Order("sequence_num ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) CountByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) (int64, error) {
	if trajectoryID == uuid.Nil {
		return 0, fmt.Errorf("missing trajectory id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Event{}).
		Where("trajectory_id = ?", trajectoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DistinctEntityIDsByTrajectories collects every distinct entity touched or
// discovered across a set of trajectories, the account-scoped half of
// GetGraph's no-centerId collection path.
func (r *eventRepo) DistinctEntityIDsByTrajectories(dbc dbctx.Context, trajectoryIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(trajectoryIDs) == 0 {
		return []uuid.UUID{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []uuid.UUID
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Event{}).
		Where("trajectory_id IN ? AND entity_id IS NOT NULL", trajectoryIDs).
		Distinct("entity_id").
		Pluck("entity_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsForAccountAndEntity reports whether accountID owns any trajectory
// with an event touching entityID, the per-user visibility check GetEntity
// enforces before returning anything about a global entity.
func (r *eventRepo) ExistsForAccountAndEntity(dbc dbctx.Context, accountID string, entityID uuid.UUID) (bool, error) {
	if accountID == "" || entityID == uuid.Nil {
		return false, fmt.Errorf("missing account_id/entity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Event{}).
		Joins("JOIN trajectory ON trajectory.id = event.trajectory_id").
		Where("trajectory.account_id = ? AND event.entity_id = ?", accountID, entityID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *eventRepo) CountDistinctEntitiesByTrajectory(dbc dbctx.Context, trajectoryID uuid.UUID) (int64, error) {
	if trajectoryID == uuid.Nil {
		return 0, fmt.Errorf("missing trajectory id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Event{}).
		Where("trajectory_id = ? AND entity_id IS NOT NULL", trajectoryID).
		Distinct("entity_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
