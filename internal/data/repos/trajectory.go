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

type TrajectoryRepo interface {
	Create(dbc dbctx.Context, row *types.Trajectory) (*types.Trajectory, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Trajectory, error)
	Complete(dbc dbctx.Context, id uuid.UUID, summary *string, completedAt time.Time) (*types.Trajectory, error)
	ListByAccount(dbc dbctx.Context, accountID string, limit int) ([]*types.Trajectory, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Trajectory, error)
}

type trajectoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrajectoryRepo(db *gorm.DB, log *logger.Logger) TrajectoryRepo {
	return &trajectoryRepo{db: db, log: log.With("repo", "TrajectoryRepo")}
}

func (r *trajectoryRepo) Create(dbc dbctx.Context, row *types.Trajectory) (*types.Trajectory, error) {
	if row == nil || row.AccountID == "" {
		return nil, fmt.Errorf("missing trajectory row/account_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = time.Now().UTC()
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *trajectoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Trajectory, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing trajectory id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Trajectory
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Complete stamps completed_at and summary. It is a no-op returning the
// existing row unmodified when completed_at is already set, which is what
// makes CompleteTrajectory idempotent under client retries.
func (r *trajectoryRepo) Complete(dbc dbctx.Context, id uuid.UUID, summary *string, completedAt time.Time) (*types.Trajectory, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing trajectory id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.Trajectory{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"completed_at": completedAt,
			"summary":      summary,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.GetByID(dbc, id)
}

func (r *trajectoryRepo) ListByAccount(dbc dbctx.Context, accountID string, limit int) ([]*types.Trajectory, error) {
	if accountID == "" {
		return nil, fmt.Errorf("missing account id")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Trajectory
	if err := txx.WithContext(dbc.Ctx).
		Where("account_id = ?", accountID).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *trajectoryRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Trajectory, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Trajectory
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
