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

// EdgeMutation describes the row-level increments a single "leads to"
// observation contributes to a directed edge.
type EdgeMutation struct {
	NewTrajectory    bool
	RelationshipType *string
	OutcomeSign      int // -1 negative, 0 mixed/unknown, +1 positive; not read by Upsert, only Outcome moves the outcome counters
	Outcome          string
	At               time.Time
}

type EdgeRepo interface {
	FindBySourceTarget(dbc dbctx.Context, sourceID, targetID uuid.UUID) (*types.Edge, error)
	Upsert(dbc dbctx.Context, sourceID, targetID uuid.UUID, mut EdgeMutation) (*types.Edge, error)
	ListBySource(dbc dbctx.Context, sourceID uuid.UUID) ([]*types.Edge, error)
	ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Edge, error)
	ListInvolving(dbc dbctx.Context, entityIDs []uuid.UUID) ([]*types.Edge, error)
}

type edgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEdgeRepo(db *gorm.DB, log *logger.Logger) EdgeRepo {
	return &edgeRepo{db: db, log: log.With("repo", "EdgeRepo")}
}

func (r *edgeRepo) FindBySourceTarget(dbc dbctx.Context, sourceID, targetID uuid.UUID) (*types.Edge, error) {
	if sourceID == uuid.Nil || targetID == uuid.Nil {
		return nil, fmt.Errorf("missing source_id/target_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Edge
	err := txx.WithContext(dbc.Ctx).
		Where("source_id = ? AND target_id = ?", sourceID, targetID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert creates the (source, target) edge on first observation or applies
// mut's increments to the existing row. Outcome counters only move when the
// caller supplies a non-empty Outcome, since most edges are structural
// (co-occurrence in a trajectory) rather than outcome-labeled.
func (r *edgeRepo) Upsert(dbc dbctx.Context, sourceID, targetID uuid.UUID, mut EdgeMutation) (*types.Edge, error) {
	if sourceID == uuid.Nil || targetID == uuid.Nil {
		return nil, fmt.Errorf("missing source_id/target_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if mut.At.IsZero() {
		mut.At = time.Now().UTC()
	}

	existing, err := r.FindBySourceTarget(dbctx.Context{Ctx: dbc.Ctx, Tx: txx}, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		row := &types.Edge{
			ID:               uuid.New(),
			SourceID:         sourceID,
			TargetID:         targetID,
			Weight:           1,
			TrajectoryCount:  1,
			ContributorCount: 0,
			RelationshipType: mut.RelationshipType,
			FirstSeen:        mut.At,
			LastSeen:         mut.At,
		}
		applyOutcome(row, mut.Outcome)
		if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}

	updates := map[string]interface{}{
		"weight":     gorm.Expr("weight + 1"),
		"last_seen":  mut.At,
		"updated_at": time.Now().UTC(),
	}
	if mut.NewTrajectory {
		updates["trajectory_count"] = gorm.Expr("trajectory_count + 1")
	}
	switch mut.Outcome {
	case "positive":
		updates["positive_outcomes"] = gorm.Expr("positive_outcomes + 1")
	case "negative":
		updates["negative_outcomes"] = gorm.Expr("negative_outcomes + 1")
	case "mixed":
		updates["mixed_outcomes"] = gorm.Expr("mixed_outcomes + 1")
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Edge{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindBySourceTarget(dbctx.Context{Ctx: dbc.Ctx, Tx: txx}, sourceID, targetID)
}

func applyOutcome(row *types.Edge, outcome string) {
	switch outcome {
	case "positive":
		row.PositiveOutcomes = 1
	case "negative":
		row.NegativeOutcomes = 1
	case "mixed":
		row.MixedOutcomes = 1
	}
}

func (r *edgeRepo) ListBySource(dbc dbctx.Context, sourceID uuid.UUID) ([]*types.Edge, error) {
	if sourceID == uuid.Nil {
		return nil, fmt.Errorf("missing source id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Edge
	if err := txx.WithContext(dbc.Ctx).Where("source_id = ?", sourceID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *edgeRepo) ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Edge, error) {
	if targetID == uuid.Nil {
		return nil, fmt.Errorf("missing target id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Edge
	if err := txx.WithContext(dbc.Ctx).Where("target_id = ?", targetID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *edgeRepo) ListInvolving(dbc dbctx.Context, entityIDs []uuid.UUID) ([]*types.Edge, error) {
	if len(entityIDs) == 0 {
		return []*types.Edge{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Edge
	if err := txx.WithContext(dbc.Ctx).
		Where("source_id IN ? OR target_id IN ?", entityIDs, entityIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
