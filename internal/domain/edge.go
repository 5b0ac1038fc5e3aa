package domain

import (
	"time"

	"github.com/google/uuid"
)

// Edge is a directed weighted relation between two entities, keyed by the
// deterministic (SourceID, TargetID) pair. Self-loops (SourceID ==
// TargetID) must never be persisted. RelationshipType is set to
// "leads_to" for strategy->outcome edges written by CompleteTrajectory and
// left nil for edges inferred from touch adjacency.
//
// Positive/Negative/MixedOutcomes are reserved extension points: the
// trajectory engine itself never labels outcome valence when writing an
// edge, but the edge repository supports it for callers that do.
type Edge struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID uuid.UUID `gorm:"column:source_id;type:uuid;not null;uniqueIndex:idx_edge_source_target,priority:1;index:idx_edge_source" json:"source_id"`
	TargetID uuid.UUID `gorm:"column:target_id;type:uuid;not null;uniqueIndex:idx_edge_source_target,priority:2;index:idx_edge_target" json:"target_id"`

	Weight           int64 `gorm:"column:weight;not null;default:0" json:"weight"`
	TrajectoryCount  int64 `gorm:"column:trajectory_count;not null;default:0" json:"trajectory_count"`
	ContributorCount int64 `gorm:"column:contributor_count;not null;default:0" json:"contributor_count"`

	RelationshipType *string `gorm:"column:relationship_type;type:text" json:"relationship_type,omitempty"`

	PositiveOutcomes int64 `gorm:"column:positive_outcomes;not null;default:0" json:"positive_outcomes"`
	NegativeOutcomes int64 `gorm:"column:negative_outcomes;not null;default:0" json:"negative_outcomes"`
	MixedOutcomes    int64 `gorm:"column:mixed_outcomes;not null;default:0" json:"mixed_outcomes"`

	FirstSeen time.Time `gorm:"column:first_seen;not null" json:"first_seen"`
	LastSeen  time.Time `gorm:"column:last_seen;not null" json:"last_seen"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Edge) TableName() string { return "edge" }

// RelationshipTypeLeadsTo marks strategy -> outcome edges.
const RelationshipTypeLeadsTo = "leads_to"

// Cooccurrence is an undirected pair count, keyed canonically by
// (min(idA, idB), max(idA, idB)) so that cooccurrence(a, b) and
// cooccurrence(b, a) are the same row. IDA must always be <= IDB
// lexicographically.
type Cooccurrence struct {
	ID  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	IDA uuid.UUID `gorm:"column:id_a;type:uuid;not null;uniqueIndex:idx_cooccurrence_pair,priority:1;index:idx_cooccurrence_a" json:"id_a"`
	IDB uuid.UUID `gorm:"column:id_b;type:uuid;not null;uniqueIndex:idx_cooccurrence_pair,priority:2;index:idx_cooccurrence_b" json:"id_b"`

	Count            int64 `gorm:"column:count;not null;default:0" json:"count"`
	WindowCount      int64 `gorm:"column:window_count;not null;default:0" json:"window_count"`
	TrajectoryCount  int64 `gorm:"column:trajectory_count;not null;default:0" json:"trajectory_count"`
	ContributorCount int64 `gorm:"column:contributor_count;not null;default:0" json:"contributor_count"`

	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Cooccurrence) TableName() string { return "cooccurrence" }
