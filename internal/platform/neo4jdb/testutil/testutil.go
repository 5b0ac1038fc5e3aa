// Package testutil gates integration tests against a real Neo4j instance
// the same way internal/data/repos/testutil gates them against Postgres:
// skip when the env var naming the instance isn't set, rather than
// standing up a fake driver.
package testutil

import (
	"os"
	"testing"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/platform/neo4jdb"
)

// Client returns a live Neo4j client built from NEO4J_URI (and friends),
// skipping the test when that env var is unset.
func Client(tb testing.TB) *neo4jdb.Client {
	tb.Helper()

	if os.Getenv("NEO4J_URI") == "" {
		tb.Skip("set NEO4J_URI to run neo4j integration tests")
	}

	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}

	client, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		tb.Fatalf("failed to init neo4j client: %v", err)
	}
	if client == nil {
		tb.Fatal("neo4j client unexpectedly nil with NEO4J_URI set")
	}
	tb.Cleanup(func() {
		_ = client.Close(nil)
	})
	return client
}
