// Package trajectory owns the lifecycle of a single walk through the
// knowledge graph: start, append events, resolve or mint entities, and
// fold the walk's structure into the graph on completion.
package trajectory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pckassistant/graph-engine/internal/data/graph"
	"github.com/pckassistant/graph-engine/internal/data/repos"
	types "github.com/pckassistant/graph-engine/internal/domain"
	engerrors "github.com/pckassistant/graph-engine/internal/pkg/errors"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/observability"
	"github.com/pckassistant/graph-engine/internal/pkg/pointers"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
	"github.com/pckassistant/graph-engine/internal/tagparser"
)

// Engine drives StartTrajectory / LogEvent / FindOrCreateEntity /
// CompleteTrajectory. It owns the in-memory per-trajectory sequence
// counters; nothing about a trajectory's sequence numbering survives a
// process restart except what has already been persisted as Event rows.
type Engine struct {
	store  *repos.Store
	log    *logger.Logger
	locker NameLocker
	graph  *neo4jdb.Client

	sequences sync.Map // uuid.UUID -> *int64
}

// graphClient may be nil: Postgres is authoritative for entity/edge
// structure regardless, and a nil client just means the Neo4j mirror
// writes below become no-ops.
func NewEngine(store *repos.Store, log *logger.Logger, locker NameLocker, graphClient *neo4jdb.Client) *Engine {
	return &Engine{
		store:  store,
		log:    log.With("component", "TrajectoryEngine"),
		locker: locker,
		graph:  graphClient,
	}
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// StartTrajectory opens a new walk and seeds its sequence counter at zero.
func (e *Engine) StartTrajectory(ctx context.Context, accountID, inputText string, conversationID *uuid.UUID) (uuid.UUID, error) {
	return e.StartTrajectoryWithID(ctx, uuid.New(), accountID, inputText, conversationID)
}

// StartTrajectoryWithID is StartTrajectory with a caller-chosen id. A
// streaming caller needs the trajectory id before the walk begins, to open
// its SSE stream ahead of any events being emitted into it.
func (e *Engine) StartTrajectoryWithID(ctx context.Context, id uuid.UUID, accountID, inputText string, conversationID *uuid.UUID) (uuid.UUID, error) {
	if strings.TrimSpace(accountID) == "" {
		return uuid.Nil, fmt.Errorf("%w: missing account id", engerrors.ErrInvalidArgument)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := &types.Trajectory{
		ID:             id,
		AccountID:      accountID,
		ConversationID: conversationID,
		InputText:      inputText,
		InputHash:      inputHash(inputText),
		StartedAt:      time.Now().UTC(),
	}
	created, err := e.store.Trajectories.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return uuid.Nil, err
	}
	seq := new(int64)
	*seq = -1
	e.sequences.Store(created.ID, seq)
	observability.Current().IncTrajectoryStarted()
	return created.ID, nil
}

func (e *Engine) counterFor(ctx context.Context, trajectoryID uuid.UUID) (*int64, error) {
	if v, ok := e.sequences.Load(trajectoryID); ok {
		return v.(*int64), nil
	}
	// The process restarted or this trajectory was started elsewhere.
	// Reconstruct the counter from the number of events already written,
	// since sequence numbers are gapless starting at zero.
	count, err := e.store.Events.CountByTrajectory(dbctx.Context{Ctx: ctx}, trajectoryID)
	if err != nil {
		return nil, err
	}
	seq := new(int64)
	*seq = count - 1
	actual, _ := e.sequences.LoadOrStore(trajectoryID, seq)
	return actual.(*int64), nil
}

// LogEventInput is the payload for LogEvent. Context, when non-nil, is
// folded into Data under the "_context" key before persisting.
type LogEventInput struct {
	Type     types.EventType
	EntityID *uuid.UUID
	Data     map[string]interface{}
	Context  *tagparser.DecisionContext
}

func (e *Engine) LogEvent(ctx context.Context, trajectoryID uuid.UUID, in LogEventInput) (uuid.UUID, error) {
	counter, err := e.counterFor(ctx, trajectoryID)
	if err != nil {
		return uuid.Nil, err
	}
	seq := atomic.AddInt64(counter, 1)

	payload := in.Data
	if in.Context != nil && !in.Context.IsEmpty() {
		if payload == nil {
			payload = map[string]interface{}{}
		}
		payload["_context"] = in.Context
	}
	var raw []byte
	if len(payload) > 0 {
		raw, err = json.Marshal(payload)
		if err != nil {
			return uuid.Nil, err
		}
	}

	event := &types.Event{
		ID:           uuid.New(),
		TrajectoryID: trajectoryID,
		SequenceNum:  seq,
		Timestamp:    time.Now().UTC(),
		EventType:    string(in.Type),
		EntityID:     in.EntityID,
		Data:         raw,
	}
	created, err := e.store.Events.Create(dbctx.Context{Ctx: ctx}, event)
	if err != nil {
		return uuid.Nil, err
	}

	if in.Type == types.EventTypeTouch && in.EntityID != nil {
		if err := e.store.Entities.Touch(dbctx.Context{Ctx: ctx}, *in.EntityID, event.Timestamp, false); err != nil {
			return uuid.Nil, err
		}
	}

	return created.ID, nil
}

// FindOrCreateEntity resolves name to a global entity identity, minting a
// new one on first mention, and maintains the (entity, account)
// contribution row that tracks per-contributor provenance.
func (e *Engine) FindOrCreateEntity(ctx context.Context, accountID string, trajectoryID uuid.UUID, name string, entityType, description *string) (uuid.UUID, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return uuid.Nil, fmt.Errorf("%w: empty entity name", engerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(accountID) == "" {
		return uuid.Nil, fmt.Errorf("%w: missing account id", engerrors.ErrInvalidArgument)
	}

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "entity:"+normalized)
		if err != nil {
			return uuid.Nil, err
		}
		defer unlock()
	}

	var entityID uuid.UUID
	now := time.Now().UTC()

	err := e.store.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := e.store.Entities.FindByNormalizedName(dbc, normalized)
		if err != nil {
			return err
		}

		if existing != nil {
			entityID = existing.ID
			if err := e.store.Entities.Touch(dbc, existing.ID, now, false); err != nil {
				return err
			}
			updates := map[string]interface{}{}
			if existing.EntityType == nil && entityType != nil {
				updates["entity_type"] = *entityType
			}
			if existing.Description == nil && description != nil {
				updates["description"] = *description
			}
			if len(updates) > 0 {
				if err := e.store.Entities.UpdateFields(dbc, existing.ID, updates); err != nil {
					return err
				}
			}
		} else {
			row, err := e.store.Entities.Create(dbc, &types.Entity{
				ID:              uuid.New(),
				Name:            strings.TrimSpace(name),
				NormalizedName:  normalized,
				EntityType:      entityType,
				Description:     description,
				TouchCount:      1,
				TrajectoryCount: 1,
				FirstSeen:       now,
				LastSeen:        now,
			})
			if isUniqueViolation(err) {
				// Lost a race with a concurrent insert (no NameLocker
				// configured, or two lock domains). Fall back to the row
				// the other writer created.
				existing, findErr := e.store.Entities.FindByNormalizedName(dbc, normalized)
				if findErr != nil {
					return findErr
				}
				if existing == nil {
					return err
				}
				entityID = existing.ID
				if err := e.store.Entities.Touch(dbc, existing.ID, now, false); err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else {
				entityID = row.ID
			}
		}

		contribution, err := e.store.Contributions.FindByEntityAndAccount(dbc, entityID, accountID)
		if err != nil {
			return err
		}
		if contribution == nil {
			if _, err := e.store.Contributions.Create(dbc, &types.EntityContribution{
				ID:                uuid.New(),
				EntityID:          entityID,
				AccountID:         accountID,
				FirstTrajectoryID: trajectoryID,
				TouchCount:        1,
				TrajectoryCount:   1,
				FirstSeen:         now,
				LastSeen:          now,
			}); err != nil {
				return err
			}
			if err := e.store.Entities.UpdateFields(dbc, entityID, map[string]interface{}{
				"contributor_count": gorm.Expr("contributor_count + 1"),
			}); err != nil {
				return err
			}
		} else {
			if err := e.store.Contributions.Touch(dbc, contribution.ID, now, false); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	if e.graph != nil {
		if row, findErr := e.store.Entities.GetByID(dbctx.Context{Ctx: ctx}, entityID); findErr == nil && row != nil {
			if mirrorErr := graph.UpsertEntity(ctx, e.graph, e.log, row); mirrorErr != nil {
				e.log.Warn("neo4j entity mirror failed", "entity_id", entityID, "error", mirrorErr)
			}
		}
	}

	return entityID, nil
}

// CompletionResult is the summary CompleteTrajectory returns.
type CompletionResult struct {
	EntitiesTouched    int
	EntitiesDiscovered int
	EdgesTraversed     []EdgePair
}

type EdgePair struct {
	SourceID uuid.UUID
	TargetID uuid.UUID
}

// CompleteTrajectory folds a finished walk's event log into the graph:
// per-entity trajectory counters, co-occurrence pairs, adjacency edges,
// and strategy-to-outcome edges. It is idempotent: calling it twice on
// the same trajectory performs no additional writes the second time.
func (e *Engine) CompleteTrajectory(ctx context.Context, trajID uuid.UUID, accountID string, summary *string) (*CompletionResult, error) {
	traj, err := e.store.Trajectories.GetByID(dbctx.Context{Ctx: ctx}, trajID)
	if err != nil {
		return nil, err
	}
	if traj == nil {
		return nil, fmt.Errorf("%w: trajectory %s", engerrors.ErrNotFound, trajID)
	}

	events, err := e.store.Events.ListByTrajectory(dbctx.Context{Ctx: ctx}, trajID)
	if err != nil {
		return nil, err
	}
	touched, discovered, all := summarizeEvents(events)

	if traj.CompletedAt != nil {
		return &CompletionResult{
			EntitiesTouched:    len(touched),
			EntitiesDiscovered: len(discovered),
			EdgesTraversed:     adjacentPairs(touched),
		}, nil
	}

	entities, err := e.store.Entities.GetByIDs(dbctx.Context{Ctx: ctx}, all)
	if err != nil {
		return nil, err
	}
	entityByID := make(map[uuid.UUID]*types.Entity, len(entities))
	for _, ent := range entities {
		entityByID[ent.ID] = ent
	}

	now := time.Now().UTC()
	edgesTraversed := adjacentPairs(touched)

	var mirroredEdges []*types.Edge
	var mirroredPairs []*types.Cooccurrence

	err = e.store.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		for _, id := range all {
			if err := e.store.Entities.Touch(dbc, id, now, true); err != nil {
				return err
			}
			contribution, err := e.store.Contributions.FindByEntityAndAccount(dbc, id, accountID)
			if err != nil {
				return err
			}
			if contribution != nil {
				if err := e.store.Contributions.Touch(dbc, contribution.ID, now, true); err != nil {
					return err
				}
			}
		}

		for i := 0; i < len(all); i++ {
			for j := i + 1; j < len(all); j++ {
				pair, err := e.store.Cooccurrences.Upsert(dbc, all[i], all[j], true, now)
				if err != nil {
					return err
				}
				mirroredPairs = append(mirroredPairs, pair)
			}
		}

		for _, pair := range edgesTraversed {
			edgeRow, err := e.store.Edges.Upsert(dbc, pair.SourceID, pair.TargetID, repos.EdgeMutation{
				NewTrajectory: true,
				At:            now,
			})
			if err != nil {
				return err
			}
			mirroredEdges = append(mirroredEdges, edgeRow)
			observability.Current().IncEdgeCreated("adjacency")
		}

		for _, s := range all {
			sEnt := entityByID[s]
			if sEnt == nil || sEnt.EntityType == nil || *sEnt.EntityType != string(types.EntityTypeStrategy) {
				continue
			}
			for _, o := range all {
				oEnt := entityByID[o]
				if oEnt == nil || oEnt.EntityType == nil || *oEnt.EntityType != string(types.EntityTypeOutcome) {
					continue
				}
				edgeRow, err := e.store.Edges.Upsert(dbc, s, o, repos.EdgeMutation{
					NewTrajectory:    true,
					RelationshipType: pointers.Ptr(types.RelationshipTypeLeadsTo),
					At:               now,
				})
				if err != nil {
					return err
				}
				mirroredEdges = append(mirroredEdges, edgeRow)
				observability.Current().IncEdgeCreated("leads_to")
			}
		}

		if _, err := e.store.Trajectories.Complete(dbc, trajID, summary, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.graph != nil {
		for _, pair := range mirroredPairs {
			if mirrorErr := graph.UpsertCooccurrence(ctx, e.graph, e.log, pair); mirrorErr != nil {
				e.log.Warn("neo4j cooccurrence mirror failed", "id_a", pair.IDA, "id_b", pair.IDB, "error", mirrorErr)
			}
		}
		for _, edgeRow := range mirroredEdges {
			if mirrorErr := graph.UpsertEdge(ctx, e.graph, e.log, edgeRow); mirrorErr != nil {
				e.log.Warn("neo4j edge mirror failed", "edge_id", edgeRow.ID, "error", mirrorErr)
			}
		}
	}

	e.sequences.Delete(trajID)
	observability.Current().ObserveTrajectoryCompleted(now.Sub(traj.StartedAt))

	return &CompletionResult{
		EntitiesTouched:    len(touched),
		EntitiesDiscovered: len(discovered),
		EdgesTraversed:     edgesTraversed,
	}, nil
}

func summarizeEvents(events []*types.Event) (touched, discovered, all []uuid.UUID) {
	seenTouched := map[uuid.UUID]bool{}
	seenDiscovered := map[uuid.UUID]bool{}
	seenAll := map[uuid.UUID]bool{}

	for _, ev := range events {
		if ev.EventType != string(types.EventTypeTouch) || ev.EntityID == nil {
			continue
		}
		id := *ev.EntityID
		if !seenTouched[id] {
			seenTouched[id] = true
			touched = append(touched, id)
		}
		if !seenAll[id] {
			seenAll[id] = true
			all = append(all, id)
		}
	}
	for _, ev := range events {
		if ev.EventType != string(types.EventTypeDiscover) || ev.EntityID == nil {
			continue
		}
		id := *ev.EntityID
		if seenTouched[id] || seenDiscovered[id] {
			continue
		}
		seenDiscovered[id] = true
		if !seenAll[id] {
			seenAll[id] = true
			all = append(all, id)
		}
		discovered = append(discovered, id)
	}

	return touched, discovered, all
}

func adjacentPairs(touched []uuid.UUID) []EdgePair {
	var pairs []EdgePair
	for k := 0; k+1 < len(touched); k++ {
		source, target := touched[k], touched[k+1]
		if source == target {
			continue
		}
		pairs = append(pairs, EdgePair{SourceID: source, TargetID: target})
	}
	return pairs
}
