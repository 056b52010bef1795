package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	OutputTypeScript  = "script"
	OutputTypeOutline = "outline"

	MessageRoleUser = "user"
	MessageRoleAI   = "ai"
)

type Conversation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	OutputType string    `gorm:"column:output_type;not null;default:'script';index" json:"output_type"`
	Messages   []Message `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"updated_at"`

	// MessageCount is computed on reads, never stored.
	MessageCount int64 `gorm:"-" json:"message_count"`
}

func (Conversation) TableName() string { return "conversation" }

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           string    `gorm:"column:role;not null" json:"role"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
