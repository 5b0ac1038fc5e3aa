package neo4jdb

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

func TestNewFromEnvReturnsNilWithoutURI(t *testing.T) {
	t.Setenv("NEO4J_URI", "")
	log, err := logger.New("test")
	require.NoError(t, err)

	client, err := NewFromEnv(log)
	require.NoError(t, err)
	require.Nil(t, client)
}

func TestNewFromEnvRequiresLogger(t *testing.T) {
	_, err := NewFromEnv(nil)
	require.Error(t, err)
}

func TestCloseOnNilClientIsNoop(t *testing.T) {
	var client *Client
	require.NoError(t, client.Close(nil))
}

func TestNewFromEnvConnects(t *testing.T) {
	if os.Getenv("NEO4J_URI") == "" {
		t.Skip("set NEO4J_URI to run neo4j integration tests")
	}
	log, err := logger.New("test")
	require.NoError(t, err)

	client, err := NewFromEnv(log)
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close(nil)
}
