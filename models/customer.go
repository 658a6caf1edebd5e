// Package models contains domain entities and business models for the outreach dashboard
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	Email    string    `gorm:"size:255;not null;uniqueIndex:idx_customers_email" json:"email"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`

	IsActive *bool `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`

	// Soft account deletion. DeletedAt marks the request; SoftDeleteUntil is
	// the date the row becomes eligible for permanent removal.
	DeletedAt       *time.Time `gorm:"index:idx_customers_deleted_at" json:"deleted_at,omitempty"`
	SoftDeleteUntil *time.Time `json:"soft_delete_until,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_customers_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	AuditLogs      []AuditLog      `gorm:"foreignKey:CustomerID" json:"-"`
	LinkedAccounts []LinkedAccount `gorm:"foreignKey:CustomerID" json:"-"`
	ICPs           []ICP           `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate is called before creating a new record
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsDeleted reports whether the account has a pending soft deletion
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// DaysUntilPermanentDeletion returns the whole days remaining before the
// account becomes eligible for permanent removal, zero once past due.
func (c *Customer) DaysUntilPermanentDeletion(now time.Time) int {
	if c.SoftDeleteUntil == nil {
		return 0
	}
	remaining := c.SoftDeleteUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	Email          *string
	IsActive       *bool
	IncludeDeleted bool
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
