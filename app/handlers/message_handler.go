// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/middleware"
	businessflow "github.com/reachlyhq/reachly/business_flow"
)

// MessageHandlerInterface defines the contract for message action handlers
type MessageHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	ScheduleMessage(c fiber.Ctx) error
	RegenerateMessage(c fiber.Ctx) error
	EditMessage(c fiber.Ctx) error
}

// MessageHandler handles message-action HTTP requests
type MessageHandler struct {
	messageFlow businessflow.MessageFlow
	validator   *validator.Validate
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageFlow businessflow.MessageFlow) *MessageHandler {
	return &MessageHandler{
		messageFlow: messageFlow,
		validator:   validator.New(),
	}
}

func (h *MessageHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MessageHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SendMessage handles an immediate send
// @Summary Send Message
// @Description Dispatch an immediate send of one generated message
// @Tags Messages
// @Produce json
// @Param uuid path string true "Message UUID"
// @Success 200 {object} dto.APIResponse{data=dto.MessageActionResponse} "Send dispatched"
// @Failure 409 {object} dto.APIResponse "Another action already in flight"
// @Router /api/v1/messages/{uuid}/send [post]
func (h *MessageHandler) SendMessage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.SendMessageRequest{CustomerID: customerID, MessageUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid message UUID", "INVALID_MESSAGE_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.SendMessage(h.createRequestContext(c, "/api/v1/messages/"+req.MessageUUID+"/send"), req, metadata)
	if err != nil {
		return h.messageActionError(c, err, "Message send failed", "MESSAGE_SEND_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ScheduleMessage handles queuing a future send
// @Summary Schedule Message
// @Description Queue a generated message for a future send
// @Tags Messages
// @Accept json
// @Produce json
// @Param uuid path string true "Message UUID"
// @Param request body dto.ScheduleMessageRequest true "Schedule data"
// @Success 200 {object} dto.APIResponse{data=dto.MessageActionResponse} "Message scheduled"
// @Router /api/v1/messages/{uuid}/schedule [post]
func (h *MessageHandler) ScheduleMessage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.ScheduleMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CustomerID = customerID
	req.MessageUUID = c.Params("uuid")
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.ScheduleMessage(h.createRequestContext(c, "/api/v1/messages/"+req.MessageUUID+"/schedule"), &req, metadata)
	if err != nil {
		return h.messageActionError(c, err, "Message schedule failed", "MESSAGE_SCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// RegenerateMessage handles a regeneration request for a failed message
// @Summary Regenerate Message
// @Description Ask the workflow to retry a failed generation
// @Tags Messages
// @Produce json
// @Param uuid path string true "Message UUID"
// @Success 202 {object} dto.APIResponse{data=dto.MessageActionResponse} "Regeneration requested"
// @Router /api/v1/messages/{uuid}/regenerate [post]
func (h *MessageHandler) RegenerateMessage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.RegenerateMessageRequest{CustomerID: customerID, MessageUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid message UUID", "INVALID_MESSAGE_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.RegenerateMessage(h.createRequestContext(c, "/api/v1/messages/"+req.MessageUUID+"/regenerate"), req, metadata)
	if err != nil {
		return h.messageActionError(c, err, "Message regeneration failed", "MESSAGE_REGENERATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusAccepted, result.Message, result)
}

// EditMessage handles saving a user edit of a generated draft
// @Summary Edit Message
// @Description Save a user edit that overrides the generated draft
// @Tags Messages
// @Accept json
// @Produce json
// @Param uuid path string true "Message UUID"
// @Param request body dto.EditMessageRequest true "Edited message text"
// @Success 200 {object} dto.APIResponse{data=dto.MessageActionResponse} "Message updated"
// @Router /api/v1/messages/{uuid} [put]
func (h *MessageHandler) EditMessage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.EditMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CustomerID = customerID
	req.MessageUUID = c.Params("uuid")
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.EditMessage(h.createRequestContext(c, "/api/v1/messages/"+req.MessageUUID), &req, metadata)
	if err != nil {
		return h.messageActionError(c, err, "Message edit failed", "MESSAGE_EDIT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// messageActionError maps business errors to HTTP responses
func (h *MessageHandler) messageActionError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCustomerNotFound(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	case businessflow.IsAccountInactive(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
	case businessflow.IsMessageLogNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Message not found", "MESSAGE_NOT_FOUND", nil)
	case businessflow.IsMessageNotSendable(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Message is not in an actionable state", "MESSAGE_NOT_SENDABLE", nil)
	case businessflow.IsMessageTextEmpty(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Message has no text", "MESSAGE_TEXT_EMPTY", nil)
	case businessflow.IsActionAlreadyInFlight(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Another action is already running for this prospect", "ACTION_IN_FLIGHT", nil)
	case businessflow.IsScheduleTimeNotPresent(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time is missing or invalid", "SCHEDULE_TIME_INVALID", nil)
	case businessflow.IsScheduleTimeTooSoon(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time is in the past or too soon", "SCHEDULE_TIME_TOO_SOON", nil)
	case businessflow.IsRegenerateNotAllowed(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Only failed messages can be regenerated", "REGENERATE_NOT_ALLOWED", nil)
	case businessflow.IsProspectNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", "PROSPECT_NOT_FOUND", nil)
	case businessflow.IsAutomationUnavailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Automation gateway is unavailable", "AUTOMATION_UNAVAILABLE", nil)
	default:
		log.Println(fallbackMessage, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

func (h *MessageHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
