package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// UsageMetric names a counted dashboard activity
type UsageMetric string

const (
	UsageMetricMessagesGenerated UsageMetric = "messages_generated"
	UsageMetricMessagesSent      UsageMetric = "messages_sent"
	UsageMetricProspectsAdded    UsageMetric = "prospects_added"
	UsageMetricRepliesReceived   UsageMetric = "replies_received"
)

// Valid checks if the usage metric is valid
func (m UsageMetric) Valid() bool {
	switch m {
	case UsageMetricMessagesGenerated, UsageMetricMessagesSent,
		UsageMetricProspectsAdded, UsageMetricRepliesReceived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for UsageMetric
func (m *UsageMetric) Scan(value any) error {
	if value == nil {
		*m = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*m = UsageMetric(v)
	case []byte:
		*m = UsageMetric(string(v))
	default:
		return fmt.Errorf("cannot scan %T into UsageMetric", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for UsageMetric
func (m UsageMetric) Value() (driver.Value, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid UsageMetric: %s", m)
	}
	return string(m), nil
}

// UsageCounter is one day's count of one metric for one customer. The
// automation workflows increment these; monthly totals are the calendar-month
// sum over days in UTC.
type UsageCounter struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	CustomerID uint        `gorm:"not null;uniqueIndex:uk_usage_counters_customer_day_metric,priority:1" json:"customer_id"`
	Day        time.Time   `gorm:"type:date;not null;uniqueIndex:uk_usage_counters_customer_day_metric,priority:2" json:"day"`
	Metric     UsageMetric `gorm:"type:usage_metric;not null;uniqueIndex:uk_usage_counters_customer_day_metric,priority:3" json:"metric"`
	Count      int64       `gorm:"not null;default:0" json:"count"`
	CreatedAt  time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (UsageCounter) TableName() string {
	return "usage_counters"
}

// BeforeCreate is called before creating a new record
func (u *UsageCounter) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (u *UsageCounter) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	u.UpdatedAt = &now
	return nil
}

// UsageCounterFilter represents filter criteria for usage queries
type UsageCounterFilter struct {
	CustomerID *uint        `json:"customer_id,omitempty"`
	Metric     *UsageMetric `json:"metric,omitempty"`
	DayFrom    *time.Time   `json:"day_from,omitempty"`
	DayTo      *time.Time   `json:"day_to,omitempty"`
}
