package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// MessageMetadata is the structured sidecar attached by the generation
// workflow once a message has been drafted.
type MessageMetadata struct {
	ICPMatchScore   *float64 `json:"icp_match_score,omitempty"`
	Objections      []string `json:"objections,omitempty"`
	AlignmentPoints []string `json:"alignment_points,omitempty"`
	Model           *string  `json:"model,omitempty"`
	PromptVersion   *string  `json:"prompt_version,omitempty"`
}

// Value implements the driver.Valuer interface for MessageMetadata
func (m MessageMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MessageMetadata
func (m *MessageMetadata) Scan(value any) error {
	if value == nil {
		*m = MessageMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MessageMetadata", value)
	}

	return json.Unmarshal(bytes, m)
}

// MessageGenerationLog represents one generated outreach attempt for one
// prospect. A prospect accumulates multiple rows over time (retries,
// follow-ups); list views select exactly one representative row per prospect.
type MessageGenerationLog struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_message_logs_uuid" json:"uuid"`
	CustomerID      uint            `gorm:"not null;index:idx_message_logs_customer_id" json:"customer_id"`
	ResearchCacheID *uint           `gorm:"index:idx_message_logs_research_cache_id" json:"research_cache_id,omitempty"`
	MessageStatus   MessageStatus   `gorm:"type:message_status;not null;default:'analysing_prospect';index:idx_message_logs_status" json:"message_status"`
	GeneratedMessage *string        `gorm:"type:text" json:"generated_message,omitempty"`
	EditedMessage    *string        `gorm:"type:text" json:"edited_message,omitempty"`
	MessageMetadata  MessageMetadata `gorm:"type:jsonb" json:"message_metadata"`
	ScheduledFor     *time.Time     `gorm:"index:idx_message_logs_scheduled_for" json:"scheduled_for,omitempty"`
	SentAt           *time.Time     `json:"sent_at,omitempty"`
	CreatedAt        time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_message_logs_created_at" json:"created_at"`
	UpdatedAt        *time.Time     `gorm:"index:idx_message_logs_updated_at" json:"updated_at,omitempty"`

	// Relations
	ResearchCache *ResearchCache `gorm:"foreignKey:ResearchCacheID;references:ID" json:"research_cache,omitempty"`
	Customer      *Customer      `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (MessageGenerationLog) TableName() string {
	return "message_generation_logs"
}

// BeforeCreate is called before creating a new record
func (m *MessageGenerationLog) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.MessageStatus == "" {
		m.MessageStatus = MessageStatusAnalysingProspect
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (m *MessageGenerationLog) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	m.UpdatedAt = &now
	return nil
}

// MessageText returns the text to send: the user's edit when present,
// otherwise the generated draft.
func (m *MessageGenerationLog) MessageText() string {
	if m.EditedMessage != nil && *m.EditedMessage != "" {
		return *m.EditedMessage
	}
	if m.GeneratedMessage != nil {
		return *m.GeneratedMessage
	}
	return ""
}

// IsSendable reports whether the user may trigger a send or schedule action
func (m *MessageGenerationLog) IsSendable() bool {
	return m.MessageStatus.Group() == StatusGroupActionable && m.MessageText() != ""
}

// MessageGenerationLogFilter represents filter criteria for log queries
type MessageGenerationLogFilter struct {
	ID              *uint          `json:"id,omitempty"`
	UUID            *uuid.UUID     `json:"uuid,omitempty"`
	CustomerID      *uint          `json:"customer_id,omitempty"`
	ResearchCacheID *uint          `json:"research_cache_id,omitempty"`
	Status          *MessageStatus `json:"status,omitempty"`
	Statuses        []MessageStatus `json:"statuses,omitempty"`
	CreatedAfter    *time.Time     `json:"created_after,omitempty"`
	CreatedBefore   *time.Time     `json:"created_before,omitempty"`
	UpdatedAfter    *time.Time     `json:"updated_after,omitempty"`
	UpdatedBefore   *time.Time     `json:"updated_before,omitempty"`
}
