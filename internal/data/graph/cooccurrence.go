package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
)

// UpsertCooccurrence mirrors one Cooccurrence row as an undirected
// (:Entity)-[:COOCCURS_WITH]-(:Entity) relationship, merged in one
// direction (IDA -> IDB) since Cooccurrence is already canonically
// ordered that way and Cypher relationships are traversable either way
// regardless of which endpoint MERGE names first.
func UpsertCooccurrence(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, pair *types.Cooccurrence) error {
	if client == nil || client.Driver == nil || pair == nil {
		return nil
	}
	if pair.IDA == uuid.Nil || pair.IDB == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	props := map[string]any{
		"id_a":         pair.IDA.String(),
		"id_b":         pair.IDB.String(),
		"count":        pair.Count,
		"window_count": pair.WindowCount,
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Entity {id: $props.id_a})
MATCH (b:Entity {id: $props.id_b})
MERGE (a)-[r:COOCCURS_WITH]-(b)
SET r.count = $props.count,
    r.window_count = $props.window_count
`, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
