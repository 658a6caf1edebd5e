package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/middleware"
	businessflow "github.com/reachlyhq/reachly/business_flow"
)

// KnowledgeHandlerInterface defines the contract for knowledge base handlers
type KnowledgeHandlerInterface interface {
	CreateEntry(c fiber.Ctx) error
	ListEntries(c fiber.Ctx) error
	GetEntry(c fiber.Ctx) error
	UpdateEntry(c fiber.Ctx) error
	DeleteEntry(c fiber.Ctx) error
	RestoreEntry(c fiber.Ctx) error
}

// KnowledgeHandler handles knowledge base HTTP requests
type KnowledgeHandler struct {
	knowledgeFlow businessflow.KnowledgeFlow
	validator     *validator.Validate
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledgeFlow businessflow.KnowledgeFlow) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeFlow: knowledgeFlow,
		validator:     validator.New(),
	}
}

func (h *KnowledgeHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *KnowledgeHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateEntry handles knowledge entry creation
// @Summary Create Knowledge Entry
// @Description Store a knowledge entry and mirror it to the automation workflow
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body dto.CreateKnowledgeEntryRequest true "Entry data"
// @Success 201 {object} dto.APIResponse{data=dto.KnowledgeEntryResponse} "Entry created"
// @Router /api/v1/knowledge [post]
func (h *KnowledgeHandler) CreateEntry(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.CreateKnowledgeEntryRequest
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
	result, err := h.knowledgeFlow.CreateEntry(h.createRequestContext(c, "/api/v1/knowledge"), &req, metadata)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge entry creation failed", "KNOWLEDGE_CREATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Knowledge entry created", result)
}

// ListEntries handles listing the customer's knowledge base
// @Summary List Knowledge Entries
// @Description Return the customer's knowledge base, optionally with restorable deleted entries
// @Tags Knowledge
// @Produce json
// @Param include_deleted query bool false "Include soft-deleted entries still restorable"
// @Success 200 {object} dto.APIResponse{data=dto.ListKnowledgeEntriesResponse} "Entries retrieved"
// @Router /api/v1/knowledge [get]
func (h *KnowledgeHandler) ListEntries(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	includeDeleted, _ := strconv.ParseBool(c.Query("include_deleted"))
	result, err := h.knowledgeFlow.ListEntries(h.createRequestContext(c, "/api/v1/knowledge"), customerID, includeDeleted)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge listing failed", "KNOWLEDGE_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Knowledge entries retrieved", result)
}

// GetEntry handles fetching one knowledge entry
// @Summary Get Knowledge Entry
// @Description Return one knowledge entry by its UUID
// @Tags Knowledge
// @Produce json
// @Param uuid path string true "Entry UUID"
// @Success 200 {object} dto.APIResponse{data=dto.KnowledgeEntryResponse} "Entry retrieved"
// @Router /api/v1/knowledge/{uuid} [get]
func (h *KnowledgeHandler) GetEntry(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	entryUUID := c.Params("uuid")
	result, err := h.knowledgeFlow.GetEntry(h.createRequestContext(c, "/api/v1/knowledge/"+entryUUID), customerID, entryUUID)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge entry retrieval failed", "KNOWLEDGE_GET_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Knowledge entry retrieved", result)
}

// UpdateEntry handles saving edits to a knowledge entry
// @Summary Update Knowledge Entry
// @Description Save user edits and mirror them to the automation workflow
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param uuid path string true "Entry UUID"
// @Param request body dto.UpdateKnowledgeEntryRequest true "Entry edits"
// @Success 200 {object} dto.APIResponse{data=dto.KnowledgeEntryResponse} "Entry updated"
// @Router /api/v1/knowledge/{uuid} [put]
func (h *KnowledgeHandler) UpdateEntry(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.UpdateKnowledgeEntryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CustomerID = customerID
	req.EntryUUID = c.Params("uuid")
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.knowledgeFlow.UpdateEntry(h.createRequestContext(c, "/api/v1/knowledge/"+req.EntryUUID), &req, metadata)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge entry update failed", "KNOWLEDGE_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Knowledge entry updated", result)
}

// DeleteEntry handles soft-deleting a knowledge entry
// @Summary Delete Knowledge Entry
// @Description Soft-delete an entry, opening its restore window
// @Tags Knowledge
// @Produce json
// @Param uuid path string true "Entry UUID"
// @Success 200 {object} dto.APIResponse{data=dto.KnowledgeEntryResponse} "Entry deleted"
// @Router /api/v1/knowledge/{uuid} [delete]
func (h *KnowledgeHandler) DeleteEntry(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteKnowledgeEntryRequest{CustomerID: customerID, EntryUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry UUID", "INVALID_ENTRY_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.knowledgeFlow.DeleteEntry(h.createRequestContext(c, "/api/v1/knowledge/"+req.EntryUUID), req, metadata)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge entry deletion failed", "KNOWLEDGE_DELETE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Knowledge entry deleted", result)
}

// RestoreEntry handles undoing a soft delete
// @Summary Restore Knowledge Entry
// @Description Undo a soft delete while the restore window is open
// @Tags Knowledge
// @Produce json
// @Param uuid path string true "Entry UUID"
// @Success 200 {object} dto.APIResponse{data=dto.KnowledgeEntryResponse} "Entry restored"
// @Failure 410 {object} dto.APIResponse "Restore window expired"
// @Router /api/v1/knowledge/{uuid}/restore [post]
func (h *KnowledgeHandler) RestoreEntry(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.RestoreKnowledgeEntryRequest{CustomerID: customerID, EntryUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry UUID", "INVALID_ENTRY_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.knowledgeFlow.RestoreEntry(h.createRequestContext(c, "/api/v1/knowledge/"+req.EntryUUID+"/restore"), req, metadata)
	if err != nil {
		return h.knowledgeError(c, err, "Knowledge entry restore failed", "KNOWLEDGE_RESTORE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Knowledge entry restored", result)
}

func (h *KnowledgeHandler) knowledgeError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCustomerNotFound(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	case businessflow.IsKnowledgeEntryNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Knowledge entry not found", "KNOWLEDGE_NOT_FOUND", nil)
	case businessflow.IsKnowledgeTitleRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Entry title is required", "KNOWLEDGE_TITLE_REQUIRED", nil)
	case businessflow.IsKnowledgeContentRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Entry content is required", "KNOWLEDGE_CONTENT_REQUIRED", nil)
	case businessflow.IsRestoreWindowExpired(err):
		return h.ErrorResponse(c, fiber.StatusGone, "The restore window for this entry has expired", "RESTORE_WINDOW_EXPIRED", nil)
	default:
		log.Println(fallbackMessage, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

func (h *KnowledgeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
