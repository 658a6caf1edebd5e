package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// ICPWorkflowStatus tracks where an ICP sits in the authoring pipeline.
// The automation workflows own the generating/processing/reviewing writes.
type ICPWorkflowStatus string

const (
	ICPWorkflowStatusForm       ICPWorkflowStatus = "form"
	ICPWorkflowStatusGenerating ICPWorkflowStatus = "generating"
	ICPWorkflowStatusProcessing ICPWorkflowStatus = "processing"
	ICPWorkflowStatusReviewing  ICPWorkflowStatus = "reviewing"
	ICPWorkflowStatusDraft      ICPWorkflowStatus = "draft"
	ICPWorkflowStatusActive     ICPWorkflowStatus = "active"
)

// Valid checks if the workflow status is valid
func (s ICPWorkflowStatus) Valid() bool {
	switch s {
	case ICPWorkflowStatusForm, ICPWorkflowStatusGenerating,
		ICPWorkflowStatusProcessing, ICPWorkflowStatusReviewing,
		ICPWorkflowStatusDraft, ICPWorkflowStatusActive:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ICPWorkflowStatus
func (s *ICPWorkflowStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = ICPWorkflowStatus(v)
	case []byte:
		*s = ICPWorkflowStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ICPWorkflowStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ICPWorkflowStatus
func (s ICPWorkflowStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ICPWorkflowStatus: %s", s)
	}
	return string(s), nil
}

// ReviewStatus is the approval state attached to AI-generated entities
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
)

// Valid checks if the review status is valid
func (s ReviewStatus) Valid() bool {
	return s == ReviewStatusPending || s == ReviewStatusApproved
}

// Scan implements the sql.Scanner interface for ReviewStatus
func (s *ReviewStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = ReviewStatus(v)
	case []byte:
		*s = ReviewStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ReviewStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ReviewStatus
func (s ReviewStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ReviewStatus: %s", s)
	}
	return string(s), nil
}

// ICPData is the generated targeting narrative attached by the ICP workflow.
type ICPData struct {
	Summary       *string  `json:"summary,omitempty"`
	PainPoints    []string `json:"pain_points,omitempty"`
	BuyingSignals []string `json:"buying_signals,omitempty"`
	Messaging     *string  `json:"messaging,omitempty"`
}

// Value implements the driver.Valuer interface for ICPData
func (d ICPData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for ICPData
func (d *ICPData) Scan(value any) error {
	if value == nil {
		*d = ICPData{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ICPData", value)
	}
	return json.Unmarshal(bytes, d)
}

// ICP is an ideal customer profile. At most one ICP is active per customer;
// activation deactivates the rest inside one transaction.
type ICP struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_icps_uuid" json:"uuid"`
	CustomerID     uint              `gorm:"not null;index:idx_icps_customer_id" json:"customer_id"`
	Title          string            `gorm:"size:255;not null" json:"title"`
	WorkflowStatus ICPWorkflowStatus `gorm:"type:icp_workflow_status;not null;default:'form'" json:"workflow_status"`
	ReviewStatus   ReviewStatus      `gorm:"type:review_status;not null;default:'pending'" json:"review_status"`
	IsActive       bool              `gorm:"not null;default:false;index:idx_icps_is_active" json:"is_active"`
	Industries     pq.StringArray    `gorm:"type:text[]" json:"industries"`
	Roles          pq.StringArray    `gorm:"type:text[]" json:"roles"`
	CompanySizes   pq.StringArray    `gorm:"type:text[]" json:"company_sizes"`
	ICPData        ICPData           `gorm:"type:jsonb" json:"icp_data"`
	CreatedAt      time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      *time.Time        `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (ICP) TableName() string {
	return "icps"
}

// BeforeCreate is called before creating a new record
func (i *ICP) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == uuid.Nil {
		i.UUID = uuid.New()
	}
	if i.WorkflowStatus == "" {
		i.WorkflowStatus = ICPWorkflowStatusForm
	}
	if i.ReviewStatus == "" {
		i.ReviewStatus = ReviewStatusPending
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (i *ICP) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	i.UpdatedAt = &now
	return nil
}

// IsGenerating reports whether the ICP workflow is still producing content
func (i *ICP) IsGenerating() bool {
	return i.WorkflowStatus == ICPWorkflowStatusGenerating ||
		i.WorkflowStatus == ICPWorkflowStatusProcessing
}

// CanActivate reports whether the ICP may be switched to active
func (i *ICP) CanActivate() bool {
	return i.ReviewStatus == ReviewStatusApproved &&
		(i.WorkflowStatus == ICPWorkflowStatusDraft || i.WorkflowStatus == ICPWorkflowStatusReviewing)
}

// ICPFilter represents filter criteria for ICP queries
type ICPFilter struct {
	ID             *uint              `json:"id,omitempty"`
	UUID           *uuid.UUID         `json:"uuid,omitempty"`
	CustomerID     *uint              `json:"customer_id,omitempty"`
	WorkflowStatus *ICPWorkflowStatus `json:"workflow_status,omitempty"`
	ReviewStatus   *ReviewStatus      `json:"review_status,omitempty"`
	IsActive       *bool              `json:"is_active,omitempty"`
}
