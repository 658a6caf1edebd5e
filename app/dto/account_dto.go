package dto

// RequestLinkRequest starts a LinkedIn hosted-auth linking session
type RequestLinkRequest struct {
	CustomerID uint `json:"-"`
}

// RequestLinkResponse carries the hosted-auth URL to open in a popup
type RequestLinkResponse struct {
	AuthURL   string `json:"auth_url" example:"https://account.unipile.com/..."`
	ExpiresOn string `json:"expires_on" example:"2026-08-28T12:00:00Z"`
}

// LinkNotifyRequest is the provider callback after a hosted-auth session
type LinkNotifyRequest struct {
	CustomerUUID string         `json:"name" validate:"required,uuid"`
	AccountID    string         `json:"account_id" validate:"required,max=255"`
	Username     string         `json:"username" validate:"omitempty,max=255"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// LinkedAccountDTO represents one linked provider account
type LinkedAccountDTO struct {
	UUID              string         `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Provider          string         `json:"provider" example:"LINKEDIN"`
	ProviderAccountID string         `json:"provider_account_id" example:"acc_123"`
	Username          string         `json:"username,omitempty" example:"janesmith"`
	Status            string         `json:"status" example:"connected"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	ConnectedAt       *string        `json:"connected_at,omitempty" example:"2026-08-20T10:30:00Z"`
}

// AccountStatusResponse reports the current link state
type AccountStatusResponse struct {
	Connected bool              `json:"connected" example:"true"`
	Account   *LinkedAccountDTO `json:"account,omitempty"`
}

// DisconnectRequest unlinks the LinkedIn account
type DisconnectRequest struct {
	CustomerID uint `json:"-"`
}

// AccountActionResponse represents the result of an account action
type AccountActionResponse struct {
	Message string `json:"message" example:"Account disconnected"`
}

// DeleteAccountRequest requests a soft account deletion
type DeleteAccountRequest struct {
	CustomerID uint `json:"-"`
}

// DeleteAccountResponse reports the deletion grace period
type DeleteAccountResponse struct {
	SoftDeleteUntil    string `json:"soft_delete_until" example:"2026-09-27T10:30:00Z"`
	DaysUntilPermanent int    `json:"days_until_permanent" example:"30"`
}

// DeletionHistoryRequest checks an email for prior deletions
type DeletionHistoryRequest struct {
	Email string `json:"email" validate:"required,email,max=255" example:"user@example.com"`
}

// DeletionHistoryResponse reports prior deletion records for an email
type DeletionHistoryResponse struct {
	HasDeletedAccount bool    `json:"has_deleted_account" example:"true"`
	Recoverable       bool    `json:"recoverable" example:"true"`
	SoftDeleteUntil   *string `json:"soft_delete_until,omitempty" example:"2026-09-27T10:30:00Z"`
}
