package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/services"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
	"github.com/reachlyhq/reachly/utils"
)

// Minimum lead time before a scheduled send
const minScheduleLeadTime = 5 * time.Minute

// MessageFlow handles user-triggered message actions. The automation workflow
// owns every status write after dispatch; this flow validates, dispatches, and
// records, never advancing a status on the gateway's behalf.
type MessageFlow interface {
	SendMessage(ctx context.Context, req *dto.SendMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error)
	ScheduleMessage(ctx context.Context, req *dto.ScheduleMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error)
	RegenerateMessage(ctx context.Context, req *dto.RegenerateMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error)
	EditMessage(ctx context.Context, req *dto.EditMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error)
}

// MessageFlowImpl implements the message action business flow
type MessageFlowImpl struct {
	logRepo      repository.MessageGenerationLogRepository
	customerRepo repository.CustomerRepository
	accountRepo  repository.LinkedAccountRepository
	usageRepo    repository.UsageCounterRepository
	auditRepo    repository.AuditLogRepository
	automation   *services.AutomationClient
	locks        *actionLock
	db           *gorm.DB
}

// NewMessageFlow creates a new message flow instance
func NewMessageFlow(
	logRepo repository.MessageGenerationLogRepository,
	customerRepo repository.CustomerRepository,
	accountRepo repository.LinkedAccountRepository,
	usageRepo repository.UsageCounterRepository,
	auditRepo repository.AuditLogRepository,
	automation *services.AutomationClient,
	db *gorm.DB,
	rc *redis.Client,
) MessageFlow {
	return &MessageFlowImpl{
		logRepo:      logRepo,
		customerRepo: customerRepo,
		accountRepo:  accountRepo,
		usageRepo:    usageRepo,
		auditRepo:    auditRepo,
		automation:   automation,
		locks:        newActionLock(rc, utils.ActionLockTTL),
		db:           db,
	}
}

// SendMessage dispatches an immediate send of one generated message
func (s *MessageFlowImpl) SendMessage(ctx context.Context, req *dto.SendMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	log, err := s.getOwnedLog(ctx, req.MessageUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !log.IsSendable() {
		if log.MessageText() == "" {
			return nil, NewBusinessError("MESSAGE_TEXT_EMPTY", "Message has no text to send", ErrMessageTextEmpty)
		}
		return nil, NewBusinessError("MESSAGE_NOT_SENDABLE", "Message is not in a sendable state", ErrMessageNotSendable)
	}

	if log.ResearchCacheID == nil || log.ResearchCache == nil {
		return nil, NewBusinessError("PROSPECT_NOT_FOUND", "Prospect research is not available", ErrProspectNotFound)
	}

	if err := s.locks.acquire(ctx, *log.ResearchCacheID); err != nil {
		return nil, NewBusinessError("ACTION_IN_FLIGHT", "Another action is already running for this prospect", err)
	}
	defer s.locks.release(ctx, *log.ResearchCacheID)

	resp, err := s.automation.SendMessage(ctx, services.SendMessageRequest{
		UserID:       customer.UUID.String(),
		MessageLogID: log.UUID.String(),
		RecipientURL: log.ResearchCache.ProfileURL,
		MessageText:  log.MessageText(),
	})
	if err != nil {
		errMsg := fmt.Sprintf("Message send dispatch failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageSent, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("SEND_DISPATCH_FAILED", "Failed to dispatch message send", ErrAutomationUnavailable)
	}
	if !resp.Success {
		errMsg := "Gateway rejected the send"
		if resp.Error != nil {
			errMsg = *resp.Error
		}
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageSent, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessErrorf("SEND_REJECTED", "Gateway rejected the send: %s", ErrAutomationUnavailable, errMsg)
	}

	_ = s.usageRepo.Increment(ctx, customer.ID, utils.StartOfDayUTC(utils.UTCNow()), models.UsageMetricMessagesSent, 1)

	msg := fmt.Sprintf("Message sent: %s", log.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageSent, msg, true, nil, metadata)

	// The workflow writes the status transition; the client re-fetches the
	// list instead of trusting an assumed new status.
	return &dto.MessageActionResponse{Message: "Message dispatched for sending"}, nil
}

// ScheduleMessage queues a generated message for a future send
func (s *MessageFlowImpl) ScheduleMessage(ctx context.Context, req *dto.ScheduleMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	log, err := s.getOwnedLog(ctx, req.MessageUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !log.IsSendable() {
		return nil, NewBusinessError("MESSAGE_NOT_SENDABLE", "Message is not in a schedulable state", ErrMessageNotSendable)
	}

	scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_TIME_INVALID", "Scheduled time must be RFC3339", ErrScheduleTimeNotPresent)
	}
	scheduledFor = scheduledFor.UTC()
	if scheduledFor.Before(utils.UTCNow().Add(minScheduleLeadTime)) {
		return nil, NewBusinessError("SCHEDULE_TIME_TOO_SOON", "Scheduled time is in the past or too soon", ErrScheduleTimeTooSoon)
	}

	if log.ResearchCacheID == nil {
		return nil, NewBusinessError("PROSPECT_NOT_FOUND", "Prospect research is not available", ErrProspectNotFound)
	}

	if err := s.locks.acquire(ctx, *log.ResearchCacheID); err != nil {
		return nil, NewBusinessError("ACTION_IN_FLIGHT", "Another action is already running for this prospect", err)
	}
	defer s.locks.release(ctx, *log.ResearchCacheID)

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.logRepo.UpdateScheduledFor(txCtx, log.ID, scheduledFor, models.MessageStatusPendingScheduled)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Message schedule failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageScheduled, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("SCHEDULE_FAILED", "Failed to schedule message", err)
	}

	msg := fmt.Sprintf("Message scheduled for %s: %s", scheduledFor.Format(time.RFC3339), log.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageScheduled, msg, true, nil, metadata)

	return &dto.MessageActionResponse{Message: "Message scheduled successfully"}, nil
}

// RegenerateMessage asks the workflow to retry a failed generation
func (s *MessageFlowImpl) RegenerateMessage(ctx context.Context, req *dto.RegenerateMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	log, err := s.getOwnedLog(ctx, req.MessageUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if log.MessageStatus != models.MessageStatusFailed {
		return nil, NewBusinessError("REGENERATE_NOT_ALLOWED", "Only failed messages can be regenerated", ErrRegenerateNotAllowed)
	}

	if log.ResearchCacheID != nil {
		if err := s.locks.acquire(ctx, *log.ResearchCacheID); err != nil {
			return nil, NewBusinessError("ACTION_IN_FLIGHT", "Another action is already running for this prospect", err)
		}
		defer s.locks.release(ctx, *log.ResearchCacheID)
	}

	err = s.automation.RequestRegeneration(ctx, services.RegenerateRequest{
		UserID:       customer.UUID.String(),
		MessageLogID: log.UUID.String(),
	})
	if err != nil {
		errMsg := fmt.Sprintf("Regeneration dispatch failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageRegenerated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("REGENERATE_DISPATCH_FAILED", "Failed to dispatch regeneration", ErrAutomationUnavailable)
	}

	msg := fmt.Sprintf("Message regeneration requested: %s", log.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionMessageRegenerated, msg, true, nil, metadata)

	// The workflow creates a fresh log row starting back at analysis; the
	// old failed row stays as history.
	return &dto.MessageActionResponse{Message: "Regeneration requested"}, nil
}

// EditMessage saves a user edit of a generated draft. The edit overrides the
// generated text for any later send without discarding the original draft.
func (s *MessageFlowImpl) EditMessage(ctx context.Context, req *dto.EditMessageRequest, metadata *ClientMetadata) (*dto.MessageActionResponse, error) {
	_, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	log, err := s.getOwnedLog(ctx, req.MessageUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if log.MessageStatus.Group() != models.StatusGroupActionable {
		return nil, NewBusinessError("MESSAGE_NOT_EDITABLE", "Only messages awaiting action can be edited", ErrMessageNotSendable)
	}
	if req.MessageText == "" {
		return nil, NewBusinessError("MESSAGE_TEXT_EMPTY", "Edited message cannot be empty", ErrMessageTextEmpty)
	}

	if err := s.logRepo.UpdateEditedMessage(ctx, log.ID, req.MessageText); err != nil {
		return nil, NewBusinessError("MESSAGE_EDIT_FAILED", "Failed to save message edit", err)
	}

	return &dto.MessageActionResponse{Message: "Message updated"}, nil
}

// getOwnedLog loads a log row and checks customer ownership. Ownership
// failures report as not-found to avoid leaking other customers' row ids.
func (s *MessageFlowImpl) getOwnedLog(ctx context.Context, messageUUID string, customerID uint) (*models.MessageGenerationLog, error) {
	log, err := s.logRepo.ByUUID(ctx, messageUUID)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOOKUP_FAILED", "Failed to lookup message", err)
	}
	if log == nil {
		return nil, NewBusinessError("MESSAGE_NOT_FOUND", "Message not found", ErrMessageLogNotFound)
	}
	if log.CustomerID != customerID {
		return nil, NewBusinessError("MESSAGE_NOT_FOUND", "Message not found", ErrMessageLogNotFound)
	}
	return log, nil
}
