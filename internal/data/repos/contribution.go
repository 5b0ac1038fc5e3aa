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

type ContributionRepo interface {
	FindByEntityAndAccount(dbc dbctx.Context, entityID uuid.UUID, accountID string) (*types.EntityContribution, error)
	Create(dbc dbctx.Context, row *types.EntityContribution) (*types.EntityContribution, error)
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time, newTrajectory bool) error
	CountDistinctAccounts(dbc dbctx.Context, entityID uuid.UUID) (int64, error)
}

type contributionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributionRepo(db *gorm.DB, log *logger.Logger) ContributionRepo {
	return &contributionRepo{db: db, log: log.With("repo", "ContributionRepo")}
}

func (r *contributionRepo) FindByEntityAndAccount(dbc dbctx.Context, entityID uuid.UUID, accountID string) (*types.EntityContribution, error) {
	if entityID == uuid.Nil || accountID == "" {
		return nil, fmt.Errorf("missing entity_id/account_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.EntityContribution
	err := txx.WithContext(dbc.Ctx).
		Where("entity_id = ? AND account_id = ?", entityID, accountID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *contributionRepo) Create(dbc dbctx.Context, row *types.EntityContribution) (*types.EntityContribution, error) {
	if row == nil {
		return nil, fmt.Errorf("missing contribution row")
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

func (r *contributionRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time, newTrajectory bool) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing contribution id")
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
		Model(&types.EntityContribution{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contributionRepo) CountDistinctAccounts(dbc dbctx.Context, entityID uuid.UUID) (int64, error) {
	if entityID == uuid.Nil {
		return 0, fmt.Errorf("missing entity id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.EntityContribution{}).
		Where("entity_id = ?", entityID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
