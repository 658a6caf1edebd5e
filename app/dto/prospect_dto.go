package dto

// ListProspectsRequest represents the prospect list query
type ListProspectsRequest struct {
	CustomerID     uint     `json:"-"`
	InstallationID string   `json:"-"`
	Search         string   `json:"search" validate:"omitempty,max=255" example:"jane"`
	Statuses       []string `json:"statuses" validate:"omitempty,dive,max=64"`
	SortBy         string   `json:"sort_by" validate:"omitempty,max=32" example:"createdAt"`
	SortDesc       bool     `json:"sort_desc" example:"true"`
	Page           int      `json:"page" validate:"omitempty,min=1" example:"1"`
}

// ProspectDTO represents one aggregated prospect card
type ProspectDTO struct {
	ResearchCacheID   uint     `json:"research_cache_id" example:"42"`
	CacheUUID         string   `json:"cache_uuid,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Loaded            bool     `json:"loaded" example:"true"`
	Name              string   `json:"name" example:"Jane Smith"`
	JobTitle          string   `json:"job_title" example:"VP of Engineering"`
	Company           string   `json:"company,omitempty" example:"Acme Corp"`
	Location          string   `json:"location,omitempty" example:"Berlin, Germany"`
	ProfileURL        string   `json:"profile_url,omitempty" example:"https://linkedin.com/in/janesmith"`
	ProfilePictureURL *string  `json:"profile_picture_url,omitempty"`
	Status            string   `json:"status" example:"generated"`
	StatusGroup       string   `json:"status_group" example:"actionable"`
	StatusDisplay     string   `json:"status_display" example:"Ready to Send"`
	AllStatuses       []string `json:"all_statuses"`
	MessageCount      int      `json:"message_count" example:"2"`
	NeedsAttention    bool     `json:"needs_attention" example:"true"`
	MessageUUID       string   `json:"message_uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	MessageText       *string  `json:"message_text,omitempty"`
	ICPMatchScore     *float64 `json:"icp_match_score,omitempty" example:"0.87"`
	ScheduledFor      *string  `json:"scheduled_for,omitempty" example:"2026-09-01T09:00:00Z"`
	SentAt            *string  `json:"sent_at,omitempty"`
	CreatedAt         string   `json:"created_at" example:"2026-08-20T10:30:00Z"`
}

// ListProspectsResponse represents the paginated prospect list
type ListProspectsResponse struct {
	Prospects  []ProspectDTO `json:"prospects"`
	Page       int           `json:"page" example:"1"`
	PageSize   int           `json:"page_size" example:"20"`
	TotalPages int           `json:"total_pages" example:"3"`
	TotalCount int           `json:"total_count" example:"47"`
}

// ProspectsSummaryResponse represents the dashboard summary widget data
type ProspectsSummaryResponse struct {
	TotalProspects int            `json:"total_prospects" example:"47"`
	NeedsAttention int            `json:"needs_attention" example:"5"`
	GroupCounts    map[string]int `json:"group_counts"`
}

// ArchiveProspectRequest represents a prospect archive action
type ArchiveProspectRequest struct {
	CustomerID uint   `json:"-"`
	CacheUUID  string `json:"-" validate:"required,uuid"`
}

// DeleteProspectRequest represents a prospect removal action
type DeleteProspectRequest struct {
	CustomerID uint   `json:"-"`
	CacheUUID  string `json:"-" validate:"required,uuid"`
}

// ProspectActionResponse represents the result of a prospect action
type ProspectActionResponse struct {
	Message string `json:"message" example:"Prospect archived successfully"`
}

// ViewRulesResponse represents the persisted view configuration
type ViewRulesResponse struct {
	Version            int    `json:"version" example:"1"`
	Preset             string `json:"preset,omitempty" example:"hotLeads"`
	HideArchived       bool   `json:"hide_archived"`
	OnlyAwaitingReply  bool   `json:"only_awaiting_reply"`
	OnlyReplied        bool   `json:"only_replied"`
	HideReplied        bool   `json:"hide_replied"`
	ActivityWithinDays *int   `json:"activity_within_days,omitempty" example:"7"`
	AddedWithinDays    *int   `json:"added_within_days,omitempty" example:"30"`
	MinMessageCount    *int   `json:"min_message_count,omitempty" example:"1"`
	MaxMessageCount    *int   `json:"max_message_count,omitempty" example:"5"`
}

// UpdateViewRulesRequest represents a view configuration change. Supplying a
// preset clears the granular fields and vice versa.
type UpdateViewRulesRequest struct {
	InstallationID     string  `json:"-"`
	Preset             *string `json:"preset,omitempty" validate:"omitempty,max=32" example:"coldLeads"`
	HideArchived       bool    `json:"hide_archived"`
	OnlyAwaitingReply  bool    `json:"only_awaiting_reply"`
	OnlyReplied        bool    `json:"only_replied"`
	HideReplied        bool    `json:"hide_replied"`
	ActivityWithinDays *int    `json:"activity_within_days,omitempty" validate:"omitempty,min=1,max=365"`
	AddedWithinDays    *int    `json:"added_within_days,omitempty" validate:"omitempty,min=1,max=365"`
	MinMessageCount    *int    `json:"min_message_count,omitempty" validate:"omitempty,min=0"`
	MaxMessageCount    *int    `json:"max_message_count,omitempty" validate:"omitempty,min=0"`
}
