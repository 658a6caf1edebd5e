package dto

// SendMessageRequest represents an immediate send action
type SendMessageRequest struct {
	CustomerID  uint   `json:"-"`
	MessageUUID string `json:"-" validate:"required,uuid"`
}

// ScheduleMessageRequest represents a schedule action
type ScheduleMessageRequest struct {
	CustomerID   uint   `json:"-"`
	MessageUUID  string `json:"-" validate:"required,uuid"`
	ScheduledFor string `json:"scheduled_for" validate:"required" example:"2026-09-01T09:00:00Z"`
}

// RegenerateMessageRequest represents a regeneration request for a failed message
type RegenerateMessageRequest struct {
	CustomerID  uint   `json:"-"`
	MessageUUID string `json:"-" validate:"required,uuid"`
}

// EditMessageRequest represents a user edit of a generated draft
type EditMessageRequest struct {
	CustomerID  uint   `json:"-"`
	MessageUUID string `json:"-" validate:"required,uuid"`
	MessageText string `json:"message_text" validate:"required,min=1,max=8000"`
}

// MessageActionResponse represents the result of a message action
type MessageActionResponse struct {
	Message string `json:"message" example:"Message dispatched for sending"`
}
