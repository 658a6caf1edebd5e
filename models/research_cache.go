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

// ProfileType distinguishes the user's own researched profile from prospects
type ProfileType string

const (
	ProfileTypePersonalUser ProfileType = "personal_user"
	ProfileTypeProspect     ProfileType = "prospect"
)

// Valid checks if the profile type is valid
func (p ProfileType) Valid() bool {
	return p == ProfileTypePersonalUser || p == ProfileTypeProspect
}

// Scan implements the sql.Scanner interface for ProfileType
func (p *ProfileType) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*p = ProfileType(v)
	case []byte:
		*p = ProfileType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ProfileType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ProfileType
func (p ProfileType) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid ProfileType: %s", p)
	}
	return string(p), nil
}

// ResearchData is the semi-structured payload the research workflow scrapes
// for a profile.
type ResearchData struct {
	Name     *string `json:"name,omitempty"`
	Headline *string `json:"headline,omitempty"`
	Location *string `json:"location,omitempty"`
	Company  *string `json:"company,omitempty"`
	JobTitle *string `json:"job_title,omitempty"`
	About    *string `json:"about,omitempty"`
}

// Value implements the driver.Valuer interface for ResearchData
func (d ResearchData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for ResearchData
func (d *ResearchData) Scan(value any) error {
	if value == nil {
		*d = ResearchData{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ResearchData", value)
	}
	return json.Unmarshal(bytes, d)
}

// ResearchCache is the cached researched profile of a prospect (or of the
// user themselves). Removing a prospect from a list soft-deletes the row;
// soft-deleted rows never surface in prospect views.
type ResearchCache struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_research_cache_uuid" json:"uuid"`
	CustomerID        uint         `gorm:"not null;index:idx_research_cache_customer_id" json:"customer_id"`
	ProfileURL        string       `gorm:"size:512;not null;index:idx_research_cache_profile_url" json:"profile_url"`
	ProfilePictureURL *string      `gorm:"size:1024" json:"profile_picture_url,omitempty"`
	ProfileType       ProfileType  `gorm:"type:profile_type;not null;default:'prospect'" json:"profile_type"`
	ResearchData      ResearchData `gorm:"type:jsonb" json:"research_data"`
	DeletedAt         *time.Time   `gorm:"index:idx_research_cache_deleted_at" json:"deleted_at,omitempty"`
	CreatedAt         time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         *time.Time   `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (ResearchCache) TableName() string {
	return "research_cache"
}

// BeforeCreate is called before creating a new record
func (r *ResearchCache) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.ProfileType == "" {
		r.ProfileType = ProfileTypeProspect
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *ResearchCache) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// IsDeleted reports whether the row has been soft-deleted
func (r *ResearchCache) IsDeleted() bool {
	return r.DeletedAt != nil
}

// DisplayName returns the researched name, falling back to the profile URL
func (r *ResearchCache) DisplayName() string {
	if r.ResearchData.Name != nil && *r.ResearchData.Name != "" {
		return *r.ResearchData.Name
	}
	return r.ProfileURL
}

// ResearchCacheFilter represents filter criteria for research cache queries
type ResearchCacheFilter struct {
	ID             *uint        `json:"id,omitempty"`
	UUID           *uuid.UUID   `json:"uuid,omitempty"`
	CustomerID     *uint        `json:"customer_id,omitempty"`
	ProfileURL     *string      `json:"profile_url,omitempty"`
	ProfileType    *ProfileType `json:"profile_type,omitempty"`
	IncludeDeleted bool         `json:"include_deleted,omitempty"`
}
