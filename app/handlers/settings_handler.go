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

// SettingsHandlerInterface defines the contract for settings handlers
type SettingsHandlerInterface interface {
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
	GetDashboardStatus(c fiber.Ctx) error
	MarkGenerating(c fiber.Ctx) error
}

// SettingsHandler handles profile settings and dashboard widget requests
type SettingsHandler struct {
	settingsFlow businessflow.SettingsFlow
	validator    *validator.Validate
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsFlow businessflow.SettingsFlow) *SettingsHandler {
	return &SettingsHandler{
		settingsFlow: settingsFlow,
		validator:    validator.New(),
	}
}

func (h *SettingsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SettingsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetSettings handles fetching profile settings
// @Summary Get Settings
// @Description Return the customer's profile settings with per-section completeness
// @Tags Settings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse} "Settings retrieved"
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.settingsFlow.GetSettings(h.createRequestContext(c, "/api/v1/settings"), customerID)
	if err != nil {
		return h.settingsError(c, err, "Settings retrieval failed", "SETTINGS_FETCH_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", result)
}

// UpdateSettings handles upserting profile settings
// @Summary Update Settings
// @Description Upsert the customer's profile settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateSettingsRequest true "Settings fields"
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse} "Settings updated"
// @Router /api/v1/settings [put]
func (h *SettingsHandler) UpdateSettings(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.UpdateSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CustomerID = customerID
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.settingsFlow.UpdateSettings(h.createRequestContext(c, "/api/v1/settings"), &req, metadata)
	if err != nil {
		return h.settingsError(c, err, "Settings update failed", "SETTINGS_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Settings updated", result)
}

// GetDashboardStatus handles the setup widget states
// @Summary Get Dashboard Status
// @Description Derive one setup widget state each for ICP, knowledge, and settings
// @Tags Settings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DashboardStatusResponse} "Dashboard status retrieved"
// @Router /api/v1/dashboard/status [get]
func (h *SettingsHandler) GetDashboardStatus(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.settingsFlow.GetDashboardStatus(h.createRequestContext(c, "/api/v1/dashboard/status"), customerID)
	if err != nil {
		return h.settingsError(c, err, "Dashboard status retrieval failed", "DASHBOARD_STATUS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard status retrieved", result)
}

// MarkGenerating handles the optimistic generating flag
// @Summary Mark Widget Generating
// @Description Flag a setup widget as generating before the workflow confirms
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.MarkGeneratingRequest true "Widget name"
// @Success 202 {object} dto.APIResponse "Widget flagged"
// @Router /api/v1/dashboard/mark-generating [post]
func (h *SettingsHandler) MarkGenerating(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.MarkGeneratingRequest
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

	if err := h.settingsFlow.MarkGenerating(h.createRequestContext(c, "/api/v1/dashboard/mark-generating"), customerID, req.Widget); err != nil {
		return h.settingsError(c, err, "Widget flag failed", "MARK_GENERATING_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusAccepted, "Widget flagged as generating", nil)
}

func (h *SettingsHandler) settingsError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCustomerNotFound(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	case businessflow.IsLinkedInURLInvalid(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "LinkedIn URL must be a linkedin.com profile link", "LINKEDIN_URL_INVALID", nil)
	case businessflow.IsUnknownPreset(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown dashboard widget", "UNKNOWN_WIDGET", nil)
	default:
		log.Println(fallbackMessage, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

func (h *SettingsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
