package dto

// CreateICPRequest represents the ICP creation form
type CreateICPRequest struct {
	CustomerID   uint     `json:"-"`
	Title        string   `json:"title" validate:"required,min=1,max=255" example:"Mid-market SaaS CTOs"`
	Industries   []string `json:"industries" validate:"omitempty,dive,max=128"`
	Roles        []string `json:"roles" validate:"omitempty,dive,max=128"`
	CompanySizes []string `json:"company_sizes" validate:"omitempty,dive,max=64"`
}

// UpdateICPRequest represents user edits to an ICP
type UpdateICPRequest struct {
	CustomerID   uint     `json:"-"`
	ICPUUID      string   `json:"-" validate:"required,uuid"`
	Title        *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Industries   []string `json:"industries,omitempty" validate:"omitempty,dive,max=128"`
	Roles        []string `json:"roles,omitempty" validate:"omitempty,dive,max=128"`
	CompanySizes []string `json:"company_sizes,omitempty" validate:"omitempty,dive,max=64"`
}

// ApproveICPRequest represents approval of a reviewed ICP
type ApproveICPRequest struct {
	CustomerID uint   `json:"-"`
	ICPUUID    string `json:"-" validate:"required,uuid"`
}

// ActivateICPRequest represents an ICP activation action
type ActivateICPRequest struct {
	CustomerID uint   `json:"-"`
	ICPUUID    string `json:"-" validate:"required,uuid"`
}

// DeleteICPRequest represents an ICP deletion action
type DeleteICPRequest struct {
	CustomerID uint   `json:"-"`
	ICPUUID    string `json:"-" validate:"required,uuid"`
}

// ICPDTO represents one ideal customer profile
type ICPDTO struct {
	UUID           string   `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title          string   `json:"title" example:"Mid-market SaaS CTOs"`
	WorkflowStatus string   `json:"workflow_status" example:"draft"`
	ReviewStatus   string   `json:"review_status" example:"pending"`
	IsActive       bool     `json:"is_active" example:"false"`
	Industries     []string `json:"industries"`
	Roles          []string `json:"roles"`
	CompanySizes   []string `json:"company_sizes"`
	Summary        *string  `json:"summary,omitempty"`
	Messaging      *string  `json:"messaging,omitempty"`
	PainPoints     []string `json:"pain_points,omitempty"`
	BuyingSignals  []string `json:"buying_signals,omitempty"`
	CreatedAt      string   `json:"created_at" example:"2026-08-20T10:30:00Z"`
}

// ICPResponse wraps one ICP
type ICPResponse struct {
	ICP ICPDTO `json:"icp"`
}

// ListICPsResponse wraps the customer's ICPs
type ListICPsResponse struct {
	ICPs []ICPDTO `json:"icps"`
}
