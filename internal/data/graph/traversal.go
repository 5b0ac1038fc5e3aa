package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
)

// BFS walks outward from centerID over undirected EDGE relationships up to
// depth hops, keeping only relationships at or above minWeight, and returns
// every node reached plus every edge lying on a path of at most depth hops
// from centerID.
// This is the Cypher equivalent of graphquery.Query's Postgres-backed bfs:
// same depth/weight contract, same undirected traversal, but expressed as
// one variable-length path match instead of a per-hop repository round
// trip. Returns (nil, nil, nil) when client is nil so callers fall back to
// the Postgres path without special-casing a missing Neo4j deployment.
func BFS(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, centerID uuid.UUID, depth int, minWeight int64) ([]uuid.UUID, []*types.Edge, error) {
	if client == nil || client.Driver == nil {
		return nil, nil, nil
	}
	if centerID == uuid.Nil {
		return nil, nil, fmt.Errorf("neo4j bfs: missing centerID")
	}
	if depth < 1 {
		depth = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (center:Entity {id: $centerID})
OPTIONAL MATCH path = (center)-[rels:EDGE*1..%d]-(other:Entity)
WHERE ALL(rel IN rels WHERE rel.weight >= $minWeight)
UNWIND (CASE WHEN rels IS NULL THEN [null] ELSE rels END) AS rel
RETURN DISTINCT rel.id AS edge_id, rel.source_id AS source_id,
       rel.target_id AS target_id, rel.weight AS weight,
       rel.relationship_type AS relationship_type
`, depth), map[string]any{
			"centerID":  centerID.String(),
			"minWeight": minWeight,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, nil, err
	}

	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, nil, fmt.Errorf("neo4j bfs: unexpected result type %T", result)
	}

	nodeSet := map[uuid.UUID]bool{centerID: true}
	edgesByID := map[uuid.UUID]*types.Edge{}

	for _, rec := range records {
		edgeIDRaw, ok := rec.Get("edge_id")
		if !ok || edgeIDRaw == nil {
			continue
		}
		edgeID, err := uuid.Parse(edgeIDRaw.(string))
		if err != nil {
			continue
		}
		sourceRaw, _ := rec.Get("source_id")
		targetRaw, _ := rec.Get("target_id")
		sourceID, err1 := uuid.Parse(fmt.Sprint(sourceRaw))
		targetID, err2 := uuid.Parse(fmt.Sprint(targetRaw))
		if err1 != nil || err2 != nil {
			continue
		}
		weightRaw, _ := rec.Get("weight")
		weight, _ := weightRaw.(int64)
		relTypeRaw, _ := rec.Get("relationship_type")
		var relType *string
		if s, ok := relTypeRaw.(string); ok && s != "" {
			relType = &s
		}

		nodeSet[sourceID] = true
		nodeSet[targetID] = true
		edgesByID[edgeID] = &types.Edge{
			ID:               edgeID,
			SourceID:         sourceID,
			TargetID:         targetID,
			Weight:           weight,
			RelationshipType: relType,
		}
	}

	nodeIDs := make([]uuid.UUID, 0, len(nodeSet))
	for id := range nodeSet {
		nodeIDs = append(nodeIDs, id)
	}
	edges := make([]*types.Edge, 0, len(edgesByID))
	for _, e := range edgesByID {
		edges = append(edges, e)
	}
	return nodeIDs, edges, nil
}
