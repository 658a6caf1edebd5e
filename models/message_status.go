package models

import (
	"database/sql/driver"
	"fmt"
)

// MessageStatus represents the lifecycle status of a message generation log row.
// The automation layer owns every write; the dashboard only classifies.
type MessageStatus string

const (
	MessageStatusAnalysingProspect  MessageStatus = "analysing_prospect"
	MessageStatusResearchingProduct MessageStatus = "researching_product"
	MessageStatusAnalysingICP       MessageStatus = "analysing_icp"
	MessageStatusGeneratingMessage  MessageStatus = "generating_message"
	MessageStatusGenerated          MessageStatus = "generated"
	MessageStatusPendingScheduled   MessageStatus = "pending_scheduled"
	MessageStatusScheduled          MessageStatus = "scheduled"
	MessageStatusSent               MessageStatus = "sent"
	MessageStatusReplyReceived      MessageStatus = "reply_received"
	MessageStatusReplySent          MessageStatus = "reply_sent"
	MessageStatusArchived           MessageStatus = "archived"
	MessageStatusFailed             MessageStatus = "failed"
)

// StatusGroup is the UI-facing classification of a message status
type StatusGroup string

const (
	StatusGroupGenerating      StatusGroup = "generating"
	StatusGroupActionable      StatusGroup = "actionable"
	StatusGroupPipeline        StatusGroup = "pipeline"
	StatusGroupTerminalSuccess StatusGroup = "terminal_success"
	StatusGroupTerminalOther   StatusGroup = "terminal_other"
	StatusGroupUnknown         StatusGroup = "unknown"
)

// String returns the string representation of the status
func (s MessageStatus) String() string {
	return string(s)
}

// Valid checks if the status belongs to the known closed set
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusAnalysingProspect, MessageStatusResearchingProduct,
		MessageStatusAnalysingICP, MessageStatusGeneratingMessage,
		MessageStatusGenerated, MessageStatusPendingScheduled,
		MessageStatusScheduled, MessageStatusSent,
		MessageStatusReplyReceived, MessageStatusReplySent,
		MessageStatusArchived, MessageStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MessageStatus
func (s *MessageStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = MessageStatus(v)
	case []byte:
		*s = MessageStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MessageStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MessageStatus
func (s MessageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MessageStatus: %s", s)
	}
	return string(s), nil
}

// Group classifies a status into its UI group. Statuses outside the known set
// classify as StatusGroupUnknown and must render as their own distinct state,
// never silently fall through to another group.
func (s MessageStatus) Group() StatusGroup {
	switch s {
	case MessageStatusAnalysingProspect, MessageStatusResearchingProduct,
		MessageStatusAnalysingICP, MessageStatusGeneratingMessage:
		return StatusGroupGenerating
	case MessageStatusGenerated:
		return StatusGroupActionable
	case MessageStatusPendingScheduled, MessageStatusScheduled:
		return StatusGroupPipeline
	case MessageStatusSent, MessageStatusReplyReceived, MessageStatusReplySent:
		return StatusGroupTerminalSuccess
	case MessageStatusArchived, MessageStatusFailed:
		return StatusGroupTerminalOther
	default:
		return StatusGroupUnknown
	}
}

// IsGenerating reports whether the status is in the generating group
func (s MessageStatus) IsGenerating() bool {
	return s.Group() == StatusGroupGenerating
}

// InActivePipeline reports whether the status represents a queued or completed
// send. A prospect with any row in this set always wins visibility over its
// archived attempts.
func (s MessageStatus) InActivePipeline() bool {
	switch s {
	case MessageStatusPendingScheduled, MessageStatusScheduled,
		MessageStatusSent, MessageStatusReplyReceived, MessageStatusReplySent:
		return true
	default:
		return false
	}
}

// EverContacted reports whether the status implies a send was at least queued.
// Used by the needs-attention rule to distinguish "archived before any
// contact" from "archived after contact".
func (s MessageStatus) EverContacted() bool {
	switch s {
	case MessageStatusSent, MessageStatusScheduled, MessageStatusPendingScheduled:
		return true
	default:
		return false
	}
}

// messageStatusTransitions is the legal forward-progression table. Archival
// and failure are reachable from every non-terminal state.
var messageStatusTransitions = map[MessageStatus][]MessageStatus{
	MessageStatusAnalysingProspect:  {MessageStatusResearchingProduct},
	MessageStatusResearchingProduct: {MessageStatusAnalysingICP},
	MessageStatusAnalysingICP:       {MessageStatusGeneratingMessage},
	MessageStatusGeneratingMessage:  {MessageStatusGenerated},
	MessageStatusGenerated:          {MessageStatusPendingScheduled, MessageStatusScheduled, MessageStatusSent},
	MessageStatusPendingScheduled:   {MessageStatusScheduled, MessageStatusSent},
	MessageStatusScheduled:          {MessageStatusSent},
	MessageStatusSent:               {MessageStatusReplyReceived},
	MessageStatusReplyReceived:      {MessageStatusReplySent},
	MessageStatusReplySent:          {MessageStatusReplyReceived},
	MessageStatusArchived:           {},
	MessageStatusFailed:             {},
}

// CanTransitionTo checks whether moving from s to newStatus follows the
// expected progression. The automation layer is not bound by this table; the
// dashboard uses it for display ordering and diagnostics only.
func (s MessageStatus) CanTransitionTo(newStatus MessageStatus) bool {
	if !s.Valid() || !newStatus.Valid() {
		return false
	}
	if s == MessageStatusArchived || s == MessageStatusFailed {
		return false
	}
	if newStatus == MessageStatusArchived || newStatus == MessageStatusFailed {
		return true
	}
	for _, next := range messageStatusTransitions[s] {
		if next == newStatus {
			return true
		}
	}
	return false
}

// GetStatusDisplayName returns a human-readable status name
func (s MessageStatus) GetStatusDisplayName() string {
	switch s {
	case MessageStatusAnalysingProspect:
		return "Analysing Prospect"
	case MessageStatusResearchingProduct:
		return "Researching Product"
	case MessageStatusAnalysingICP:
		return "Analysing ICP"
	case MessageStatusGeneratingMessage:
		return "Generating Message"
	case MessageStatusGenerated:
		return "Ready to Send"
	case MessageStatusPendingScheduled:
		return "Queued"
	case MessageStatusScheduled:
		return "Scheduled"
	case MessageStatusSent:
		return "Sent"
	case MessageStatusReplyReceived:
		return "Reply Received"
	case MessageStatusReplySent:
		return "Reply Sent"
	case MessageStatusArchived:
		return "Archived"
	case MessageStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
