// Package businessflow contains the core business logic and use cases for the outreach dashboard
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAccountInactive  = errors.New("account is inactive")
	ErrAccountDeleted   = errors.New("account has been deleted")

	// Prospect/message errors
	ErrProspectNotFound       = errors.New("prospect not found")
	ErrMessageLogNotFound     = errors.New("message log not found")
	ErrMessageAccessDenied    = errors.New("message access denied")
	ErrMessageNotSendable     = errors.New("message is not in a sendable state")
	ErrMessageTextEmpty       = errors.New("message text is empty")
	ErrActionAlreadyInFlight  = errors.New("another action is already in flight for this prospect")
	ErrScheduleTimeNotPresent = errors.New("schedule time is not present")
	ErrScheduleTimeTooSoon    = errors.New("schedule time is too soon")
	ErrRegenerateNotAllowed   = errors.New("regenerate is only allowed for failed messages")

	// ICP errors
	ErrICPNotFound      = errors.New("ICP not found")
	ErrICPAccessDenied  = errors.New("ICP access denied")
	ErrICPTitleRequired = errors.New("ICP title is required")
	ErrICPNotApproved   = errors.New("ICP is not approved for activation")
	ErrICPNotReviewable = errors.New("ICP is not awaiting review")

	// Knowledge base errors
	ErrKnowledgeEntryNotFound   = errors.New("knowledge entry not found")
	ErrKnowledgeAccessDenied    = errors.New("knowledge entry access denied")
	ErrKnowledgeTitleRequired   = errors.New("knowledge entry title is required")
	ErrKnowledgeContentRequired = errors.New("knowledge entry content is required")
	ErrRestoreWindowExpired     = errors.New("restore window has expired")

	// Settings errors
	ErrLinkedInURLRequired = errors.New("linkedin URL is required")
	ErrLinkedInURLInvalid  = errors.New("linkedin URL is invalid")

	// Account linking errors
	ErrNoLinkedAccount        = errors.New("no linked account")
	ErrAccountAlreadyLinked   = errors.New("this LinkedIn profile is already linked to a different account")
	ErrLinkingNotConfigured   = errors.New("account linking is not configured")
	ErrAutomationUnavailable  = errors.New("automation gateway is unavailable or not configured")
	ErrDeletionAlreadyPending = errors.New("account deletion is already pending")

	// View-rule errors
	ErrInstallationIDRequired = errors.New("installation ID is required")
	ErrUnknownPreset          = errors.New("unknown quick preset")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidSortKey  = errors.New("invalid sort key")
	ErrInvalidStatus   = errors.New("invalid message status")
	ErrCacheNotAvailable = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountDeleted(err error) bool {
	return errors.Is(err, ErrAccountDeleted)
}

func IsProspectNotFound(err error) bool {
	return errors.Is(err, ErrProspectNotFound)
}

func IsMessageLogNotFound(err error) bool {
	return errors.Is(err, ErrMessageLogNotFound)
}

func IsMessageAccessDenied(err error) bool {
	return errors.Is(err, ErrMessageAccessDenied)
}

func IsMessageNotSendable(err error) bool {
	return errors.Is(err, ErrMessageNotSendable)
}

func IsMessageTextEmpty(err error) bool {
	return errors.Is(err, ErrMessageTextEmpty)
}

func IsActionAlreadyInFlight(err error) bool {
	return errors.Is(err, ErrActionAlreadyInFlight)
}

func IsScheduleTimeNotPresent(err error) bool {
	return errors.Is(err, ErrScheduleTimeNotPresent)
}

func IsScheduleTimeTooSoon(err error) bool {
	return errors.Is(err, ErrScheduleTimeTooSoon)
}

func IsRegenerateNotAllowed(err error) bool {
	return errors.Is(err, ErrRegenerateNotAllowed)
}

func IsICPNotFound(err error) bool {
	return errors.Is(err, ErrICPNotFound)
}

func IsICPAccessDenied(err error) bool {
	return errors.Is(err, ErrICPAccessDenied)
}

func IsICPTitleRequired(err error) bool {
	return errors.Is(err, ErrICPTitleRequired)
}

func IsICPNotApproved(err error) bool {
	return errors.Is(err, ErrICPNotApproved)
}

func IsICPNotReviewable(err error) bool {
	return errors.Is(err, ErrICPNotReviewable)
}

func IsKnowledgeEntryNotFound(err error) bool {
	return errors.Is(err, ErrKnowledgeEntryNotFound)
}

func IsKnowledgeAccessDenied(err error) bool {
	return errors.Is(err, ErrKnowledgeAccessDenied)
}

func IsKnowledgeTitleRequired(err error) bool {
	return errors.Is(err, ErrKnowledgeTitleRequired)
}

func IsKnowledgeContentRequired(err error) bool {
	return errors.Is(err, ErrKnowledgeContentRequired)
}

func IsRestoreWindowExpired(err error) bool {
	return errors.Is(err, ErrRestoreWindowExpired)
}

func IsLinkedInURLRequired(err error) bool {
	return errors.Is(err, ErrLinkedInURLRequired)
}

func IsLinkedInURLInvalid(err error) bool {
	return errors.Is(err, ErrLinkedInURLInvalid)
}

func IsNoLinkedAccount(err error) bool {
	return errors.Is(err, ErrNoLinkedAccount)
}

func IsAccountAlreadyLinked(err error) bool {
	return errors.Is(err, ErrAccountAlreadyLinked)
}

func IsLinkingNotConfigured(err error) bool {
	return errors.Is(err, ErrLinkingNotConfigured)
}

func IsAutomationUnavailable(err error) bool {
	return errors.Is(err, ErrAutomationUnavailable)
}

func IsDeletionAlreadyPending(err error) bool {
	return errors.Is(err, ErrDeletionAlreadyPending)
}

func IsInstallationIDRequired(err error) bool {
	return errors.Is(err, ErrInstallationIDRequired)
}

func IsUnknownPreset(err error) bool {
	return errors.Is(err, ErrUnknownPreset)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidSortKey(err error) bool {
	return errors.Is(err, ErrInvalidSortKey)
}

func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
