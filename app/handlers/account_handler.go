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

// AccountHandlerInterface defines the contract for account handlers
type AccountHandlerInterface interface {
	RequestLink(c fiber.Ctx) error
	LinkNotify(c fiber.Ctx) error
	GetAccountStatus(c fiber.Ctx) error
	Disconnect(c fiber.Ctx) error
	DeleteAccount(c fiber.Ctx) error
	DeletionHistory(c fiber.Ctx) error
}

// AccountHandler handles LinkedIn linking and account lifecycle requests
type AccountHandler struct {
	accountFlow businessflow.AccountFlow
	validator   *validator.Validate
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountFlow businessflow.AccountFlow) *AccountHandler {
	return &AccountHandler{
		accountFlow: accountFlow,
		validator:   validator.New(),
	}
}

func (h *AccountHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AccountHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RequestLink handles starting a hosted-auth linking session
// @Summary Request Account Link
// @Description Start a LinkedIn hosted-auth session and return the popup URL
// @Tags Account
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RequestLinkResponse} "Link session created"
// @Failure 503 {object} dto.APIResponse "Linking not configured"
// @Router /api/v1/account/link [post]
func (h *AccountHandler) RequestLink(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.RequestLinkRequest{CustomerID: customerID}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.accountFlow.RequestLink(h.createRequestContext(c, "/api/v1/account/link"), req, metadata)
	if err != nil {
		return h.accountError(c, err, "Account link request failed", "LINK_REQUEST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link session created", result)
}

// LinkNotify handles the provider webhook after a hosted-auth session. The
// provider authenticates with the session name, not a customer token, so this
// endpoint sits outside the auth middleware.
// @Summary Account Link Webhook
// @Description Provider callback delivered when a hosted-auth session completes
// @Tags Account
// @Accept json
// @Produce json
// @Param request body dto.LinkNotifyRequest true "Provider notification"
// @Success 200 {object} dto.APIResponse "Account linked"
// @Failure 409 {object} dto.APIResponse "Profile linked to another account"
// @Router /api/v1/account/link/notify [post]
func (h *AccountHandler) LinkNotify(c fiber.Ctx) error {
	var req dto.LinkNotifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	if err := h.accountFlow.HandleLinkNotify(h.createRequestContext(c, "/api/v1/account/link/notify"), &req); err != nil {
		return h.accountError(c, err, "Account link notification failed", "LINK_NOTIFY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account linked", nil)
}

// GetAccountStatus handles reporting the current link state
// @Summary Get Account Status
// @Description Report the LinkedIn link state, reconciled against the provider
// @Tags Account
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AccountStatusResponse} "Account status retrieved"
// @Router /api/v1/account/status [get]
func (h *AccountHandler) GetAccountStatus(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.accountFlow.GetAccountStatus(h.createRequestContext(c, "/api/v1/account/status"), customerID)
	if err != nil {
		return h.accountError(c, err, "Account status retrieval failed", "ACCOUNT_STATUS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account status retrieved", result)
}

// Disconnect handles unlinking the LinkedIn account
// @Summary Disconnect Account
// @Description Unlink the LinkedIn account; idempotent when already disconnected
// @Tags Account
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AccountActionResponse} "Account disconnected"
// @Router /api/v1/account/disconnect [post]
func (h *AccountHandler) Disconnect(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DisconnectRequest{CustomerID: customerID}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.accountFlow.Disconnect(h.createRequestContext(c, "/api/v1/account/disconnect"), req, metadata)
	if err != nil {
		return h.accountError(c, err, "Account disconnect failed", "ACCOUNT_DISCONNECT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DeleteAccount handles a soft account deletion request
// @Summary Delete Account
// @Description Soft-delete the customer account with a grace period before permanent removal
// @Tags Account
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DeleteAccountResponse} "Deletion scheduled"
// @Failure 409 {object} dto.APIResponse "Deletion already pending"
// @Router /api/v1/account [delete]
func (h *AccountHandler) DeleteAccount(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteAccountRequest{CustomerID: customerID}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.accountFlow.RequestDeletion(h.createRequestContext(c, "/api/v1/account"), req, metadata)
	if err != nil {
		return h.accountError(c, err, "Account deletion failed", "ACCOUNT_DELETE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account deletion scheduled", result)
}

// DeletionHistory handles checking an email for prior deletions. Used by the
// signup flow before any token exists, so it sits outside the auth middleware.
// @Summary Deletion History
// @Description Report whether an email has prior deletion records and if recovery is possible
// @Tags Account
// @Produce json
// @Param email query string true "Email address"
// @Success 200 {object} dto.APIResponse{data=dto.DeletionHistoryResponse} "History retrieved"
// @Router /api/v1/account/deletion-history [get]
func (h *AccountHandler) DeletionHistory(c fiber.Ctx) error {
	req := &dto.DeletionHistoryRequest{Email: c.Query("email")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "A valid email query parameter is required", "INVALID_EMAIL", nil)
	}

	result, err := h.accountFlow.DeletionHistory(h.createRequestContext(c, "/api/v1/account/deletion-history"), req.Email)
	if err != nil {
		return h.accountError(c, err, "Deletion history retrieval failed", "DELETION_HISTORY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Deletion history retrieved", result)
}

func (h *AccountHandler) accountError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCustomerNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	case businessflow.IsLinkingNotConfigured(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Account linking is not configured", "LINKING_NOT_CONFIGURED", nil)
	case businessflow.IsAccountAlreadyLinked(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "LinkedIn profile already linked to another account", "ACCOUNT_ALREADY_LINKED", nil)
	case businessflow.IsNoLinkedAccount(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "No linked account", "NO_LINKED_ACCOUNT", nil)
	case businessflow.IsDeletionAlreadyPending(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Account deletion is already pending", "DELETION_ALREADY_PENDING", nil)
	default:
		log.Println(fallbackMessage, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

func (h *AccountHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
