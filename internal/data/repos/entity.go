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

type EntityRepo interface {
	FindByNormalizedName(dbc dbctx.Context, normalizedName string) (*types.Entity, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error)
	Create(dbc dbctx.Context, row *types.Entity) (*types.Entity, error)
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time, newTrajectory bool) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByType(dbc dbctx.Context, entityType string, limit int) ([]*types.Entity, error)
	SearchByPartialName(dbc dbctx.Context, substr string, entityType *string) (*types.Entity, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, log *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: log.With("repo", "EntityRepo")}
}

func (r *entityRepo) FindByNormalizedName(dbc dbctx.Context, normalizedName string) (*types.Entity, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Entity
	err := txx.WithContext(dbc.Ctx).
		Where("normalized_name = ?", normalizedName).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *entityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing entity id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Entity
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *entityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error) {
	if len(ids) == 0 {
		return []*types.Entity{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Entity
	if err := txx.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *entityRepo) Create(dbc dbctx.Context, row *types.Entity) (*types.Entity, error) {
	if row == nil {
		return nil, fmt.Errorf("missing entity row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.FirstSeen.IsZero() {
		row.FirstSeen = now
	}
	if row.LastSeen.IsZero() {
		row.LastSeen = now
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Touch bumps touch_count (and trajectory_count when newTrajectory is true)
// with a single atomic UPDATE so concurrent writers never lose an increment
// to a read-modify-write race.
func (r *entityRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time, newTrajectory bool) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing entity id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	updates := map[string]interface{}{
		"touch_count": gorm.Expr("touch_count + 1"),
		"last_seen":   at,
		"updated_at":  time.Now().UTC(),
	}
	if newTrajectory {
		updates["trajectory_count"] = gorm.Expr("trajectory_count + 1")
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *entityRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing entity id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SearchByPartialName does a substring match on name, preferring the most
// heavily touched candidate when several match. Used as Resolve's fallback
// when an exact normalized-name lookup misses.
func (r *entityRepo) SearchByPartialName(dbc dbctx.Context, substr string, entityType *string) (*types.Entity, error) {
	if substr == "" {
		return nil, fmt.Errorf("missing search substring")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.Entity{}).
		Where("normalized_name LIKE ?", "%"+substr+"%")
	if entityType != nil {
		q = q.Where("entity_type = ?", *entityType)
	}
	var row types.Entity
	err := q.Order("touch_count DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *entityRepo) ListByType(dbc dbctx.Context, entityType string, limit int) ([]*types.Entity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.Entity{})
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	var out []*types.Entity
	if err := q.Order("touch_count DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
