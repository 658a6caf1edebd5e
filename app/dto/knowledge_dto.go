package dto

// CreateKnowledgeEntryRequest represents a knowledge entry creation
type CreateKnowledgeEntryRequest struct {
	CustomerID uint     `json:"-"`
	EntryType  string   `json:"entry_type" validate:"omitempty,max=32" example:"product"`
	Title      string   `json:"title" validate:"required,min=1,max=255" example:"Pricing objections playbook"`
	Content    string   `json:"content" validate:"required,min=1" example:"When a prospect pushes back on price..."`
	Tags       []string `json:"tags" validate:"omitempty,dive,max=64"`
}

// UpdateKnowledgeEntryRequest represents user edits to a knowledge entry
type UpdateKnowledgeEntryRequest struct {
	CustomerID uint     `json:"-"`
	EntryUUID  string   `json:"-" validate:"required,uuid"`
	EntryType  *string  `json:"entry_type,omitempty" validate:"omitempty,max=32"`
	Title      *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Content    *string  `json:"content,omitempty"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,dive,max=64"`
}

// DeleteKnowledgeEntryRequest represents a knowledge entry soft delete
type DeleteKnowledgeEntryRequest struct {
	CustomerID uint   `json:"-"`
	EntryUUID  string `json:"-" validate:"required,uuid"`
}

// RestoreKnowledgeEntryRequest represents a knowledge entry restore
type RestoreKnowledgeEntryRequest struct {
	CustomerID uint   `json:"-"`
	EntryUUID  string `json:"-" validate:"required,uuid"`
}

// KnowledgeEntryDTO represents one knowledge base entry
type KnowledgeEntryDTO struct {
	UUID            string   `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	EntryType       string   `json:"entry_type" example:"product"`
	Title           string   `json:"title" example:"Pricing objections playbook"`
	Content         string   `json:"content"`
	Tags            []string `json:"tags"`
	WorkflowStatus  string   `json:"workflow_status" example:"draft"`
	ReviewStatus    string   `json:"review_status" example:"pending"`
	Deleted         bool     `json:"deleted" example:"false"`
	CanRestoreUntil *string  `json:"can_restore_until,omitempty" example:"2026-09-27T10:30:00Z"`
	CreatedAt       string   `json:"created_at" example:"2026-08-20T10:30:00Z"`
}

// KnowledgeEntryResponse wraps one knowledge entry
type KnowledgeEntryResponse struct {
	Entry KnowledgeEntryDTO `json:"entry"`
}

// ListKnowledgeEntriesResponse wraps the customer's knowledge base
type ListKnowledgeEntriesResponse struct {
	Entries []KnowledgeEntryDTO `json:"entries"`
}
