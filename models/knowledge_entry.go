package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// KnowledgeEntryType categorizes knowledge base content
type KnowledgeEntryType string

const (
	KnowledgeEntryTypeProduct     KnowledgeEntryType = "product"
	KnowledgeEntryTypeCompany     KnowledgeEntryType = "company"
	KnowledgeEntryTypeCaseStudy   KnowledgeEntryType = "case_study"
	KnowledgeEntryTypeObjection   KnowledgeEntryType = "objection"
	KnowledgeEntryTypeOther       KnowledgeEntryType = "other"
)

// Valid checks if the entry type is valid
func (t KnowledgeEntryType) Valid() bool {
	switch t {
	case KnowledgeEntryTypeProduct, KnowledgeEntryTypeCompany,
		KnowledgeEntryTypeCaseStudy, KnowledgeEntryTypeObjection,
		KnowledgeEntryTypeOther:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for KnowledgeEntryType
func (t *KnowledgeEntryType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = KnowledgeEntryType(v)
	case []byte:
		*t = KnowledgeEntryType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into KnowledgeEntryType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for KnowledgeEntryType
func (t KnowledgeEntryType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid KnowledgeEntryType: %s", t)
	}
	return string(t), nil
}

// KnowledgeEntry is one knowledge base item used by the message generation
// workflows. Deletion is soft with a restore deadline; past the deadline the
// entry is gone for good and restore requests are rejected before reaching
// the automation gateway.
type KnowledgeEntry struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uk_knowledge_entries_uuid" json:"uuid"`
	CustomerID      uint               `gorm:"not null;index:idx_knowledge_entries_customer_id" json:"customer_id"`
	EntryType       KnowledgeEntryType `gorm:"type:knowledge_entry_type;not null;default:'other'" json:"entry_type"`
	Title           string             `gorm:"size:255;not null" json:"title"`
	Content         string             `gorm:"type:text;not null" json:"content"`
	Tags            pq.StringArray     `gorm:"type:text[]" json:"tags"`
	WorkflowStatus  ICPWorkflowStatus  `gorm:"type:icp_workflow_status;not null;default:'draft'" json:"workflow_status"`
	ReviewStatus    ReviewStatus       `gorm:"type:review_status;not null;default:'pending'" json:"review_status"`
	DeletedAt       *time.Time         `gorm:"index:idx_knowledge_entries_deleted_at" json:"deleted_at,omitempty"`
	CanRestoreUntil *time.Time         `json:"can_restore_until,omitempty"`
	CreatedAt       time.Time          `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

// BeforeCreate is called before creating a new record
func (k *KnowledgeEntry) BeforeCreate(tx *gorm.DB) error {
	if k.UUID == uuid.Nil {
		k.UUID = uuid.New()
	}
	if k.EntryType == "" {
		k.EntryType = KnowledgeEntryTypeOther
	}
	if k.WorkflowStatus == "" {
		k.WorkflowStatus = ICPWorkflowStatusDraft
	}
	if k.ReviewStatus == "" {
		k.ReviewStatus = ReviewStatusPending
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (k *KnowledgeEntry) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	k.UpdatedAt = &now
	return nil
}

// IsDeleted reports whether the entry has been soft-deleted
func (k *KnowledgeEntry) IsDeleted() bool {
	return k.DeletedAt != nil
}

// CanRestore reports whether a soft-deleted entry is still within its
// restore window at the given time.
func (k *KnowledgeEntry) CanRestore(now time.Time) bool {
	if k.DeletedAt == nil {
		return false
	}
	if k.CanRestoreUntil == nil {
		return false
	}
	return now.Before(*k.CanRestoreUntil)
}

// KnowledgeEntryFilter represents filter criteria for knowledge queries
type KnowledgeEntryFilter struct {
	ID             *uint               `json:"id,omitempty"`
	UUID           *uuid.UUID          `json:"uuid,omitempty"`
	CustomerID     *uint               `json:"customer_id,omitempty"`
	EntryType      *KnowledgeEntryType `json:"entry_type,omitempty"`
	WorkflowStatus *ICPWorkflowStatus  `json:"workflow_status,omitempty"`
	ReviewStatus   *ReviewStatus       `json:"review_status,omitempty"`
	IncludeDeleted bool                `json:"include_deleted,omitempty"`
}
