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

// LinkedAccountStatus is the connection state of a provider account
type LinkedAccountStatus string

const (
	LinkedAccountStatusPending      LinkedAccountStatus = "pending"
	LinkedAccountStatusConnected    LinkedAccountStatus = "connected"
	LinkedAccountStatusDisconnected LinkedAccountStatus = "disconnected"
	LinkedAccountStatusError        LinkedAccountStatus = "error"
)

// Valid checks if the status is valid
func (s LinkedAccountStatus) Valid() bool {
	switch s {
	case LinkedAccountStatusPending, LinkedAccountStatusConnected,
		LinkedAccountStatusDisconnected, LinkedAccountStatusError:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for LinkedAccountStatus
func (s *LinkedAccountStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = LinkedAccountStatus(v)
	case []byte:
		*s = LinkedAccountStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LinkedAccountStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for LinkedAccountStatus
func (s LinkedAccountStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LinkedAccountStatus: %s", s)
	}
	return string(s), nil
}

// LinkedAccountMetadata carries provider-supplied account attributes
type LinkedAccountMetadata map[string]any

// Value implements the driver.Valuer interface for LinkedAccountMetadata
func (m LinkedAccountMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]any{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for LinkedAccountMetadata
func (m *LinkedAccountMetadata) Scan(value any) error {
	if value == nil {
		*m = LinkedAccountMetadata{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LinkedAccountMetadata", value)
	}
	return json.Unmarshal(bytes, m)
}

// LinkedAccount is a provider (LinkedIn via Unipile) account connected to a
// customer. Disconnect is idempotent: the local row flips to disconnected
// even when the remote deletion fails.
type LinkedAccount struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:uk_linked_accounts_uuid" json:"uuid"`
	CustomerID        uint                  `gorm:"not null;index:idx_linked_accounts_customer_id" json:"customer_id"`
	Provider          string                `gorm:"size:32;not null;default:'LINKEDIN'" json:"provider"`
	ProviderAccountID string                `gorm:"size:255;not null;index:idx_linked_accounts_provider_account_id" json:"provider_account_id"`
	Username          *string               `gorm:"size:255" json:"username,omitempty"`
	Status            LinkedAccountStatus   `gorm:"type:linked_account_status;not null;default:'pending'" json:"status"`
	Metadata          LinkedAccountMetadata `gorm:"type:jsonb" json:"metadata"`
	ConnectedAt       *time.Time            `json:"connected_at,omitempty"`
	DisconnectedAt    *time.Time            `json:"disconnected_at,omitempty"`
	CreatedAt         time.Time             `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         *time.Time            `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (LinkedAccount) TableName() string {
	return "linked_accounts"
}

// BeforeCreate is called before creating a new record
func (l *LinkedAccount) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LinkedAccountStatusPending
	}
	if l.Provider == "" {
		l.Provider = "LINKEDIN"
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (l *LinkedAccount) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	l.UpdatedAt = &now
	return nil
}

// IsConnected reports whether the account is usable for sending
func (l *LinkedAccount) IsConnected() bool {
	return l.Status == LinkedAccountStatusConnected
}

// LinkedAccountFilter represents filter criteria for linked account queries
type LinkedAccountFilter struct {
	ID                *uint                `json:"id,omitempty"`
	UUID              *uuid.UUID           `json:"uuid,omitempty"`
	CustomerID        *uint                `json:"customer_id,omitempty"`
	ProviderAccountID *string              `json:"provider_account_id,omitempty"`
	Status            *LinkedAccountStatus `json:"status,omitempty"`
}
