package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerID   *uint           `gorm:"index:idx_audit_customer_id" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Action       string          `gorm:"type:audit_action_enum;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb;index:idx_audit_metadata,type:gin" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionMessageSent          = "message_sent"
	AuditActionMessageScheduled     = "message_scheduled"
	AuditActionMessageRegenerated   = "message_regenerated"
	AuditActionProspectArchived     = "prospect_archived"
	AuditActionProspectDeleted      = "prospect_deleted"
	AuditActionICPCreated           = "icp_created"
	AuditActionICPUpdated           = "icp_updated"
	AuditActionICPDeleted           = "icp_deleted"
	AuditActionICPActivated         = "icp_activated"
	AuditActionICPApproved          = "icp_approved"
	AuditActionKnowledgeCreated     = "knowledge_created"
	AuditActionKnowledgeUpdated     = "knowledge_updated"
	AuditActionKnowledgeDeleted     = "knowledge_deleted"
	AuditActionKnowledgeRestored    = "knowledge_restored"
	AuditActionSettingsUpdated      = "settings_updated"
	AuditActionAccountLinkRequested = "account_link_requested"
	AuditActionAccountLinked        = "account_linked"
	AuditActionAccountDisconnected  = "account_disconnected"
	AuditActionAccountDeleted       = "account_deleted"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CustomerID    *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
