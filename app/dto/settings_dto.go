package dto

// UpdateSettingsRequest represents a profile settings change. Only non-nil
// fields are applied.
type UpdateSettingsRequest struct {
	CustomerID       uint    `json:"-"`
	LinkedInURL      *string `json:"linkedin_url,omitempty" validate:"omitempty,max=512" example:"https://linkedin.com/in/janesmith"`
	FullName         *string `json:"full_name,omitempty" validate:"omitempty,max=255" example:"Jane Smith"`
	CompanyName      *string `json:"company_name,omitempty" validate:"omitempty,max=255" example:"Acme Corp"`
	CompanyWebsite   *string `json:"company_website,omitempty" validate:"omitempty,max=512" example:"https://acme.example"`
	ValueProposition *string `json:"value_proposition,omitempty"`
	Tone             *string `json:"tone,omitempty" validate:"omitempty,max=64" example:"friendly"`
	Signature        *string `json:"signature,omitempty"`
	CalendarLink     *string `json:"calendar_link,omitempty" validate:"omitempty,max=512"`
}

// SettingsSections reports per-section completeness
type SettingsSections struct {
	User          bool `json:"user" example:"true"`
	Business      bool `json:"business" example:"false"`
	Communication bool `json:"communication" example:"true"`
	Complete      bool `json:"complete" example:"false"`
}

// SettingsResponse represents the customer's profile settings
type SettingsResponse struct {
	LinkedInURL      *string          `json:"linkedin_url,omitempty"`
	FullName         *string          `json:"full_name,omitempty"`
	CompanyName      *string          `json:"company_name,omitempty"`
	CompanyWebsite   *string          `json:"company_website,omitempty"`
	ValueProposition *string          `json:"value_proposition,omitempty"`
	Tone             *string          `json:"tone,omitempty"`
	Signature        *string          `json:"signature,omitempty"`
	CalendarLink     *string          `json:"calendar_link,omitempty"`
	Sections         SettingsSections `json:"sections"`
}

// DashboardStatusResponse carries one widget state per setup entity
type DashboardStatusResponse struct {
	ICPStatus       string `json:"icp_status" example:"draftPending"`
	KnowledgeStatus string `json:"knowledge_status" example:"active"`
	SettingsStatus  string `json:"settings_status" example:"empty"`
}

// MarkGeneratingRequest flags a widget as optimistically generating
type MarkGeneratingRequest struct {
	Widget string `json:"widget" validate:"required,oneof=icp knowledge" example:"icp"`
}
