package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
)

// UpsertEdge mirrors one Edge row into Neo4j as a directed (:Entity)-[:EDGE]->(:Entity)
// relationship keyed by id, matching every other write in this system: the
// edge itself is unlabeled by relationship type in the Cypher label so a
// single traversal query can walk all of them, with relationship_type kept
// as a property for callers that need to filter on it.
func UpsertEdge(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, edge *types.Edge) error {
	if client == nil || client.Driver == nil || edge == nil || edge.ID == uuid.Nil {
		return nil
	}
	if edge.SourceID == uuid.Nil || edge.TargetID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	relationshipType := ""
	if edge.RelationshipType != nil {
		relationshipType = *edge.RelationshipType
	}

	props := map[string]any{
		"id":                edge.ID.String(),
		"source_id":         edge.SourceID.String(),
		"target_id":         edge.TargetID.String(),
		"weight":            edge.Weight,
		"relationship_type": relationshipType,
		"trajectory_count":  edge.TrajectoryCount,
		"contributor_count": edge.ContributorCount,
		"first_seen":        edge.FirstSeen.UTC().Format(time.RFC3339Nano),
		"last_seen":         edge.LastSeen.UTC().Format(time.RFC3339Nano),
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Entity {id: $props.source_id})
MATCH (b:Entity {id: $props.target_id})
MERGE (a)-[e:EDGE {id: $props.id}]->(b)
SET e += $props
`, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
