package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of well-known pedagogical entity kinds.
// TagParser and TrajectoryEngine retain unknown type strings verbatim;
// this is a documentation aid, not an enforced enum.
type EntityType string

const (
	EntityTypeTopic         EntityType = "topic"
	EntityTypeMisconception EntityType = "misconception"
	EntityTypeStrategy      EntityType = "strategy"
	EntityTypeContext       EntityType = "context"
	EntityTypeConstraint    EntityType = "constraint"
	EntityTypeOutcome       EntityType = "outcome"
	EntityTypeConcept       EntityType = "concept"
)

// Entity is a global, shared node in the pedagogical knowledge graph.
// EntityType is sticky: once set by a contributor it is never overwritten.
// NormalizedName is the find-or-create identity key.
type Entity struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name           string    `gorm:"column:name;type:text;not null" json:"name"`
	NormalizedName string    `gorm:"column:normalized_name;type:text;not null;uniqueIndex:idx_entity_normalized_name" json:"normalized_name"`
	EntityType     *string   `gorm:"column:entity_type;type:text;index:idx_entity_type" json:"entity_type,omitempty"`
	Description    *string   `gorm:"column:description;type:text" json:"description,omitempty"`

	TouchCount       int64 `gorm:"column:touch_count;not null;default:0" json:"touch_count"`
	TrajectoryCount  int64 `gorm:"column:trajectory_count;not null;default:0" json:"trajectory_count"`
	ContributorCount int64 `gorm:"column:contributor_count;not null;default:0" json:"contributor_count"`

	FirstSeen time.Time `gorm:"column:first_seen;not null" json:"first_seen"`
	LastSeen  time.Time `gorm:"column:last_seen;not null" json:"last_seen"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Entity) TableName() string { return "entity" }

// EntityContribution is the per-account provenance row for an entity.
// Exactly one row exists per (EntityID, AccountID) pair; its creation is
// the sole trigger for incrementing the parent entity's ContributorCount.
type EntityContribution struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityID           uuid.UUID `gorm:"type:uuid;not null;index:idx_contribution_entity;uniqueIndex:idx_contribution_entity_account,priority:1" json:"entity_id"`
	AccountID          string    `gorm:"column:account_id;type:text;not null;index:idx_contribution_account;uniqueIndex:idx_contribution_entity_account,priority:2" json:"account_id"`
	FirstTrajectoryID  uuid.UUID `gorm:"column:first_trajectory_id;type:uuid;not null" json:"first_trajectory_id"`
	TouchCount         int64     `gorm:"column:touch_count;not null;default:0" json:"touch_count"`
	TrajectoryCount    int64     `gorm:"column:trajectory_count;not null;default:0" json:"trajectory_count"`
	FirstSeen          time.Time `gorm:"column:first_seen;not null" json:"first_seen"`
	LastSeen           time.Time `gorm:"column:last_seen;not null" json:"last_seen"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EntityContribution) TableName() string { return "entity_contribution" }
