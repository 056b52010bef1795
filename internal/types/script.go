package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Script statuses. The ingestion pipeline only ever writes Uploaded,
// Processing and Error; Trained is reached through the training-complete
// callback once the generation service finishes asynchronously.
const (
	ScriptStatusUploaded   = "uploaded"
	ScriptStatusProcessing = "processing"
	ScriptStatusError      = "error"
	ScriptStatusTrained    = "trained"
)

type Script struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	OriginalName string         `gorm:"column:original_name;not null" json:"original_name"`
	StorageKey   string         `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes    int64          `gorm:"column:size_bytes" json:"size_bytes"`
	MimeType     string         `gorm:"column:mime_type" json:"mime_type"`
	Content      string         `gorm:"column:content;type:text" json:"content,omitempty"`
	Genre        string         `gorm:"column:genre;not null;default:'Unknown'" json:"genre"`
	Year         *int           `gorm:"column:year" json:"year"`
	Author       string         `gorm:"column:author;not null;default:'Unknown'" json:"author"`
	Status       string         `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	TrainingData datatypes.JSON `gorm:"column:training_data;type:jsonb" json:"training_data,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// FileURL is derived from the blob backend on reads, never stored.
	FileURL string `gorm:"-" json:"file_url,omitempty"`
}

func (Script) TableName() string { return "script" }
