package graph

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
	neo4jtestutil "github.com/pckassistant/graph-engine/internal/platform/neo4jdb/testutil"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestUpsertEntityNilClientIsNoop(t *testing.T) {
	entity := &types.Entity{ID: uuid.New(), Name: "phonics", NormalizedName: "phonics"}
	require.NoError(t, UpsertEntity(context.Background(), nil, testLogger(t), entity))
}

func TestUpsertEntityNilEntityIsNoop(t *testing.T) {
	require.NoError(t, UpsertEntity(context.Background(), &neo4jdb.Client{}, testLogger(t), nil))
}

func TestUpsertEdgeNilClientIsNoop(t *testing.T) {
	edge := &types.Edge{ID: uuid.New(), SourceID: uuid.New(), TargetID: uuid.New(), Weight: 3}
	require.NoError(t, UpsertEdge(context.Background(), nil, testLogger(t), edge))
}

func TestUpsertEdgeMissingEndpointsIsNoop(t *testing.T) {
	edge := &types.Edge{ID: uuid.New(), SourceID: uuid.Nil, TargetID: uuid.New()}
	require.NoError(t, UpsertEdge(context.Background(), &neo4jdb.Client{}, testLogger(t), edge))
}

func TestUpsertCooccurrenceNilClientIsNoop(t *testing.T) {
	pair := &types.Cooccurrence{ID: uuid.New(), IDA: uuid.New(), IDB: uuid.New()}
	require.NoError(t, UpsertCooccurrence(context.Background(), nil, testLogger(t), pair))
}

func TestBFSNilClientReturnsNil(t *testing.T) {
	nodes, edges, err := BFS(context.Background(), nil, testLogger(t), uuid.New(), 2, 0)
	require.NoError(t, err)
	require.Nil(t, nodes)
	require.Nil(t, edges)
}

func TestBFSRequiresCenterID(t *testing.T) {
	client := neo4jtestutil.Client(t)
	_, _, err := BFS(context.Background(), client, testLogger(t), uuid.Nil, 2, 0)
	require.Error(t, err)
}

// TestMirrorRoundTrip exercises the full write-then-read path against a
// live Neo4j instance: mirror an entity, an edge, and a cooccurrence, then
// confirm BFS finds the edge from the source entity.
func TestMirrorRoundTrip(t *testing.T) {
	client := neo4jtestutil.Client(t)
	log := testLogger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	source := &types.Entity{
		ID: uuid.New(), Name: "decoding", NormalizedName: "decoding",
		FirstSeen: now, LastSeen: now,
	}
	target := &types.Entity{
		ID: uuid.New(), Name: "fluency", NormalizedName: "fluency",
		FirstSeen: now, LastSeen: now,
	}
	require.NoError(t, UpsertEntity(ctx, client, log, source))
	require.NoError(t, UpsertEntity(ctx, client, log, target))

	edge := &types.Edge{
		ID: uuid.New(), SourceID: source.ID, TargetID: target.ID,
		Weight: 5, FirstSeen: now, LastSeen: now,
	}
	require.NoError(t, UpsertEdge(ctx, client, log, edge))

	pair := &types.Cooccurrence{ID: uuid.New(), IDA: source.ID, IDB: target.ID, Count: 1}
	require.NoError(t, UpsertCooccurrence(ctx, client, log, pair))

	nodeIDs, edges, err := BFS(ctx, client, log, source.ID, 1, 0)
	require.NoError(t, err)
	require.Contains(t, nodeIDs, target.ID)
	require.Len(t, edges, 1)
	require.Equal(t, edge.ID, edges[0].ID)
}
