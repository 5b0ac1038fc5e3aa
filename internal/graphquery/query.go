package graphquery

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/data/graph"
	"github.com/pckassistant/graph-engine/internal/data/repos"
	types "github.com/pckassistant/graph-engine/internal/domain"
	engerrors "github.com/pckassistant/graph-engine/internal/pkg/errors"
	"github.com/pckassistant/graph-engine/internal/pkg/dbctx"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
)

type Query struct {
	store *repos.Store
	log   *logger.Logger
	graph *neo4jdb.Client
}

func NewQuery(store *repos.Store, log *logger.Logger, graphClient *neo4jdb.Client) *Query {
	return &Query{store: store, log: log.With("component", "GraphQuery"), graph: graphClient}
}

// GetGraph returns a subgraph for the UI. Without a CenterID it collects
// the full set of entities any of accountID's trajectories have touched.
// With a CenterID it runs a breadth-first traversal from that node, up to
// Depth hops, over edges at or above MinWeight; that traversal does not
// filter by accountID.
func (q *Query) GetGraph(ctx context.Context, accountID string, opts GraphOptions) (*GraphResult, error) {
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	dbc := dbctx.Context{Ctx: ctx}

	if opts.CenterID != nil {
		nodeIDs, edges, err := q.bfsFromGraph(ctx, dbc, *opts.CenterID, opts.Depth, opts.MinWeight)
		if err != nil {
			return nil, err
		}
		return q.buildResult(dbc, nodeIDs, edges)
	}

	trajectories, err := q.store.Trajectories.ListByAccount(dbc, accountID, maxTrajectories)
	if err != nil {
		return nil, err
	}
	if len(trajectories) == 0 {
		return &GraphResult{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
	}
	trajIDs := make([]uuid.UUID, len(trajectories))
	for i, t := range trajectories {
		trajIDs[i] = t.ID
	}

	entityIDs, err := q.store.Events.DistinctEntityIDsByTrajectories(dbc, trajIDs)
	if err != nil {
		return nil, err
	}
	if len(entityIDs) == 0 {
		return &GraphResult{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
	}

	edges, err := q.store.Edges.ListInvolving(dbc, entityIDs)
	if err != nil {
		return nil, err
	}
	inSet := make(map[uuid.UUID]bool, len(entityIDs))
	for _, id := range entityIDs {
		inSet[id] = true
	}
	filtered := make([]*types.Edge, 0, len(edges))
	for _, e := range edges {
		if inSet[e.SourceID] && inSet[e.TargetID] && e.Weight >= opts.MinWeight {
			filtered = append(filtered, e)
		}
	}

	return q.buildResult(dbc, entityIDs, filtered)
}

// bfsFromGraph prefers a Neo4j Cypher traversal when a client is configured,
// falling back to the Postgres-backed bfs below on a nil client or a Neo4j
// failure. Postgres remains authoritative; Neo4j only ever short-circuits
// the read path.
func (q *Query) bfsFromGraph(ctx context.Context, dbc dbctx.Context, centerID uuid.UUID, depth int, minWeight int64) ([]uuid.UUID, []*types.Edge, error) {
	if q.graph != nil {
		nodeIDs, edges, err := graph.BFS(ctx, q.graph, q.log, centerID, depth, minWeight)
		if err != nil {
			q.log.Warn("neo4j bfs failed, falling back to postgres", "center_id", centerID, "error", err)
		} else if nodeIDs != nil {
			return nodeIDs, edges, nil
		}
	}
	return q.bfs(dbc, centerID, depth, minWeight)
}

// bfs walks outward from centerID over both edge directions, since the
// graph is meant to be browsed as an undirected structure even though edges
// are stored directed. visitedOrder preserves discovery order so the
// rendered node list is deterministic for a fixed graph state.
func (q *Query) bfs(dbc dbctx.Context, centerID uuid.UUID, depth int, minWeight int64) ([]uuid.UUID, []*types.Edge, error) {
	visited := map[uuid.UUID]bool{centerID: true}
	visitedOrder := []uuid.UUID{centerID}
	seenEdges := map[uuid.UUID]*types.Edge{}
	frontier := []uuid.UUID{centerID}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []uuid.UUID
		for _, id := range frontier {
			neighbors, err := q.neighborEdges(dbc, id, minWeight)
			if err != nil {
				return nil, nil, err
			}
			for _, e := range neighbors {
				seenEdges[e.ID] = e
				other := e.TargetID
				if other == id {
					other = e.SourceID
				}
				if !visited[other] {
					visited[other] = true
					visitedOrder = append(visitedOrder, other)
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	edges := make([]*types.Edge, 0, len(seenEdges))
	for _, e := range seenEdges {
		edges = append(edges, e)
	}
	return visitedOrder, edges, nil
}

func (q *Query) neighborEdges(dbc dbctx.Context, id uuid.UUID, minWeight int64) ([]*types.Edge, error) {
	outgoing, err := q.store.Edges.ListBySource(dbc, id)
	if err != nil {
		return nil, err
	}
	incoming, err := q.store.Edges.ListByTarget(dbc, id)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Edge, 0, len(outgoing)+len(incoming))
	for _, e := range outgoing {
		if e.Weight >= minWeight {
			out = append(out, e)
		}
	}
	for _, e := range incoming {
		if e.Weight >= minWeight {
			out = append(out, e)
		}
	}
	return out, nil
}

func (q *Query) buildResult(dbc dbctx.Context, nodeIDs []uuid.UUID, edges []*types.Edge) (*GraphResult, error) {
	entities, err := q.store.Entities.GetByIDs(dbc, nodeIDs)
	if err != nil {
		return nil, err
	}
	nodes := make([]GraphNode, 0, len(entities))
	for _, e := range entities {
		entityType := ""
		if e.EntityType != nil {
			entityType = *e.EntityType
		}
		nodes = append(nodes, GraphNode{ID: e.ID, Name: e.Name, EntityType: entityType, TouchCount: e.TouchCount})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].TouchCount > nodes[j].TouchCount })

	graphEdges := make([]GraphEdge, 0, len(edges))
	for _, e := range edges {
		relationshipType := ""
		if e.RelationshipType != nil {
			relationshipType = *e.RelationshipType
		}
		graphEdges = append(graphEdges, GraphEdge{
			ID: e.ID, SourceID: e.SourceID, TargetID: e.TargetID,
			Weight: e.Weight, RelationshipType: relationshipType,
		})
	}
	return &GraphResult{Nodes: nodes, Edges: graphEdges}, nil
}

// GetEntity returns entity detail scoped to accountID, refusing to reveal
// anything about an entity the account's own trajectories never touched.
// The global graph is shared, but a caller's read view of it is not.
func (q *Query) GetEntity(ctx context.Context, accountID string, entityID uuid.UUID) (*EntityDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}

	visible, err := q.store.Events.ExistsForAccountAndEntity(dbc, accountID, entityID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, engerrors.ErrNotFound
	}

	entity, err := q.store.Entities.GetByID(dbc, entityID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, engerrors.ErrNotFound
	}

	outgoing, err := q.store.Edges.ListBySource(dbc, entityID)
	if err != nil {
		return nil, err
	}
	incoming, err := q.store.Edges.ListByTarget(dbc, entityID)
	if err != nil {
		return nil, err
	}

	weightByNeighbor := map[uuid.UUID]int64{}
	for _, e := range outgoing {
		weightByNeighbor[e.TargetID] += e.Weight
	}
	for _, e := range incoming {
		weightByNeighbor[e.SourceID] += e.Weight
	}
	neighborIDs := make([]uuid.UUID, 0, len(weightByNeighbor))
	for id := range weightByNeighbor {
		neighborIDs = append(neighborIDs, id)
	}
	neighborEntities, err := q.store.Entities.GetByIDs(dbc, neighborIDs)
	if err != nil {
		return nil, err
	}
	connected := make([]ConnectedEntity, 0, len(neighborEntities))
	for _, e := range neighborEntities {
		connected = append(connected, ConnectedEntity{ID: e.ID, Name: e.Name, Weight: weightByNeighbor[e.ID]})
	}
	sort.Slice(connected, func(i, j int) bool { return connected[i].Weight > connected[j].Weight })

	entityType, description := "", ""
	if entity.EntityType != nil {
		entityType = *entity.EntityType
	}
	if entity.Description != nil {
		description = *entity.Description
	}

	detail := &EntityDetail{
		ID: entity.ID, Name: entity.Name, EntityType: entityType, Description: description,
		TouchCount: entity.TouchCount, TrajectoryCount: entity.TrajectoryCount, ContributorCount: entity.ContributorCount,
		Connected: connected,
	}

	recent, err := q.recentTrajectoriesForEntity(dbc, accountID, entityID, 5)
	if err != nil {
		return nil, err
	}
	detail.RecentTrajectories = recent
	return detail, nil
}

// recentTrajectoriesForEntity scans the account's own trajectories newest
// first and keeps the ones whose event log touched entityID, stopping once
// limit matches are found.
func (q *Query) recentTrajectoriesForEntity(dbc dbctx.Context, accountID string, entityID uuid.UUID, limit int) ([]RecentTrajectory, error) {
	trajectories, err := q.store.Trajectories.ListByAccount(dbc, accountID, maxTrajectories)
	if err != nil {
		return nil, err
	}
	var out []RecentTrajectory
	for _, t := range trajectories {
		if len(out) >= limit {
			break
		}
		events, err := q.store.Events.ListByTrajectory(dbc, t.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if e.EntityID != nil && *e.EntityID == entityID {
				out = append(out, RecentTrajectory{ID: t.ID, InputText: t.InputText, StartedAt: t.StartedAt, CompletedAt: t.CompletedAt})
				break
			}
		}
	}
	return out, nil
}
