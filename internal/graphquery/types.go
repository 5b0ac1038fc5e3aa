// Package graphquery serves the read-only subgraph and entity-detail views
// the UI renders. GetEntity and the uncentered GetGraph are scoped to an
// account: the global graph itself is shared, but those views only show the
// slice of it the caller's own trajectories have touched. A centered
// GetGraph walks the shared graph from the given node with no account
// filter.
package graphquery

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDepth     = 2
	DefaultMinWeight = 0
	maxTrajectories  = 500
)

// GraphOptions configures GetGraph. A nil CenterID collects the account's
// entire touched subgraph; a set CenterID runs a bounded BFS instead.
type GraphOptions struct {
	CenterID  *uuid.UUID
	Depth     int
	MinWeight int64
}

type GraphNode struct {
	ID         uuid.UUID
	Name       string
	EntityType string
	TouchCount int64
}

type GraphEdge struct {
	ID               uuid.UUID
	SourceID         uuid.UUID
	TargetID         uuid.UUID
	Weight           int64
	RelationshipType string
}

type GraphResult struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

type ConnectedEntity struct {
	ID     uuid.UUID
	Name   string
	Weight int64
}

type RecentTrajectory struct {
	ID          uuid.UUID
	InputText   string
	StartedAt   time.Time
	CompletedAt *time.Time
}

type EntityDetail struct {
	ID                uuid.UUID
	Name              string
	EntityType        string
	Description       string
	TouchCount        int64
	TrajectoryCount   int64
	ContributorCount  int64
	Connected         []ConnectedEntity
	RecentTrajectories []RecentTrajectory
}
