package models

import (
	"time"

	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// ProfileSettings holds the per-customer configuration consumed by the
// message generation workflows: who the user is, what they sell, and how
// they want to sound. One row per customer.
type ProfileSettings struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CustomerID uint `gorm:"not null;uniqueIndex:uk_profile_settings_customer_id" json:"customer_id"`

	// User profile
	LinkedInURL *string `gorm:"size:512" json:"linkedin_url,omitempty"`
	FullName    *string `gorm:"size:255" json:"full_name,omitempty"`

	// Business profile
	CompanyName      *string `gorm:"size:255" json:"company_name,omitempty"`
	CompanyWebsite   *string `gorm:"size:512" json:"company_website,omitempty"`
	ValueProposition *string `gorm:"type:text" json:"value_proposition,omitempty"`

	// Communication profile
	Tone         *string `gorm:"size:64" json:"tone,omitempty"`
	Signature    *string `gorm:"type:text" json:"signature,omitempty"`
	CalendarLink *string `gorm:"size:512" json:"calendar_link,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (ProfileSettings) TableName() string {
	return "profile_settings"
}

// BeforeCreate is called before creating a new record
func (p *ProfileSettings) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *ProfileSettings) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

// UserProfileComplete reports whether the user section has its required fields
func (p *ProfileSettings) UserProfileComplete() bool {
	return hasValue(p.LinkedInURL) && hasValue(p.FullName)
}

// BusinessProfileComplete reports whether the business section has its
// required fields.
func (p *ProfileSettings) BusinessProfileComplete() bool {
	return hasValue(p.CompanyName) && hasValue(p.ValueProposition)
}

// CommunicationProfileComplete reports whether the communication section has
// its required fields.
func (p *ProfileSettings) CommunicationProfileComplete() bool {
	return hasValue(p.Tone)
}

// Complete reports whether every settings section is filled in
func (p *ProfileSettings) Complete() bool {
	return p.UserProfileComplete() && p.BusinessProfileComplete() && p.CommunicationProfileComplete()
}

// ProfileSettingsFilter represents filter criteria for settings queries
type ProfileSettingsFilter struct {
	ID         *uint `json:"id,omitempty"`
	CustomerID *uint `json:"customer_id,omitempty"`
}
