package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole enumerates chat message authorship.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Conversation is a thin, per-account container for messages.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID string    `gorm:"column:account_id;type:text;not null;index" json:"account_id"`
	Title     *string   `gorm:"column:title;type:text" json:"title,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

// Message belongs to a conversation and is optionally tied to the
// trajectory that produced it (assistant messages).
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"column:conversation_id;type:uuid;not null;index" json:"conversation_id"`
	Role           string     `gorm:"column:role;type:text;not null" json:"role"`
	Content        string     `gorm:"column:content;type:text;not null;default:''" json:"content"`
	TrajectoryID   *uuid.UUID `gorm:"column:trajectory_id;type:uuid;index" json:"trajectory_id,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
