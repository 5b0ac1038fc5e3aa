package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Trajectory is one ordered walk of events produced by a single chat turn.
// It is open (mutable via LogEvent) until CompletedAt is set, thereafter
// immutable.
type Trajectory struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID      string     `gorm:"column:account_id;type:text;not null;index:idx_trajectory_account" json:"account_id"`
	ConversationID *uuid.UUID `gorm:"column:conversation_id;type:uuid;index" json:"conversation_id,omitempty"`

	InputText string `gorm:"column:input_text;type:text;not null" json:"input_text"`
	InputHash uint32 `gorm:"column:input_hash;not null;index" json:"input_hash"`

	Summary *string `gorm:"column:summary;type:text" json:"summary,omitempty"`

	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Trajectory) TableName() string { return "trajectory" }

// EventType enumerates the kinds of records a trajectory can log.
type EventType string

const (
	EventTypeTouch    EventType = "touch"
	EventTypeReason   EventType = "reason"
	EventTypeDecide   EventType = "decide"
	EventTypeDiscover EventType = "discover"
	EventTypeSimulate EventType = "simulate"
)

// Event is a single touch/reason/decide/discover record within a
// trajectory. SequenceNum is monotonic and gapless per trajectory; writes
// are append-only.
type Event struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TrajectoryID  uuid.UUID  `gorm:"column:trajectory_id;type:uuid;not null;index:idx_event_trajectory;uniqueIndex:idx_event_trajectory_seq,priority:1" json:"trajectory_id"`
	SequenceNum   int64      `gorm:"column:sequence_num;not null;uniqueIndex:idx_event_trajectory_seq,priority:2" json:"sequence_num"`
	Timestamp     time.Time  `gorm:"column:timestamp;not null" json:"timestamp"`
	EventType     string     `gorm:"column:event_type;type:text;not null" json:"event_type"`
	EntityID      *uuid.UUID     `gorm:"column:entity_id;type:uuid;index:idx_event_entity" json:"entity_id,omitempty"`
	Data          datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Event) TableName() string { return "event" }
