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

// UpsertEntity mirrors one Entity row into Neo4j as an (:Entity) node keyed
// by id. A nil client is valid and turns this into a no-op, the same
// graceful-degradation contract every other optional dependency in this
// system follows.
func UpsertEntity(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, entity *types.Entity) error {
	if client == nil || client.Driver == nil || entity == nil || entity.ID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entityType := ""
	if entity.EntityType != nil {
		entityType = *entity.EntityType
	}

	props := map[string]any{
		"id":                entity.ID.String(),
		"name":              entity.Name,
		"normalized_name":   entity.NormalizedName,
		"entity_type":       entityType,
		"touch_count":       entity.TouchCount,
		"trajectory_count":  entity.TrajectoryCount,
		"contributor_count": entity.ContributorCount,
		"first_seen":        entity.FirstSeen.UTC().Format(time.RFC3339Nano),
		"last_seen":         entity.LastSeen.UTC().Format(time.RFC3339Nano),
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT entity_id_unique IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j entity schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (e:Entity {id: $props.id})
SET e += $props
`, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
