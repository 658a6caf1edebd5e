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

// ICPHandlerInterface defines the contract for ICP handlers
type ICPHandlerInterface interface {
	CreateICP(c fiber.Ctx) error
	ListICPs(c fiber.Ctx) error
	GetICP(c fiber.Ctx) error
	UpdateICP(c fiber.Ctx) error
	ApproveICP(c fiber.Ctx) error
	ActivateICP(c fiber.Ctx) error
	DeleteICP(c fiber.Ctx) error
}

// ICPHandler handles ideal customer profile HTTP requests
type ICPHandler struct {
	icpFlow   businessflow.ICPFlow
	validator *validator.Validate
}

// NewICPHandler creates a new ICP handler
func NewICPHandler(icpFlow businessflow.ICPFlow) *ICPHandler {
	return &ICPHandler{
		icpFlow:   icpFlow,
		validator: validator.New(),
	}
}

func (h *ICPHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ICPHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateICP handles ICP creation
// @Summary Create ICP
// @Description Store the ICP form input and kick off profile generation
// @Tags ICPs
// @Accept json
// @Produce json
// @Param request body dto.CreateICPRequest true "ICP form data"
// @Success 201 {object} dto.APIResponse{data=dto.ICPResponse} "ICP created"
// @Router /api/v1/icps [post]
func (h *ICPHandler) CreateICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.CreateICPRequest
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
	result, err := h.icpFlow.CreateICP(h.createRequestContext(c, "/api/v1/icps"), &req, metadata)
	if err != nil {
		return h.icpError(c, err, "ICP creation failed", "ICP_CREATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "ICP created", result)
}

// ListICPs handles listing all of the customer's ICPs
// @Summary List ICPs
// @Description Return every ICP owned by the authenticated customer
// @Tags ICPs
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListICPsResponse} "ICPs retrieved"
// @Router /api/v1/icps [get]
func (h *ICPHandler) ListICPs(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.icpFlow.ListICPs(h.createRequestContext(c, "/api/v1/icps"), customerID)
	if err != nil {
		return h.icpError(c, err, "ICP listing failed", "ICP_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICPs retrieved", result)
}

// GetICP handles fetching one ICP
// @Summary Get ICP
// @Description Return one ICP by its UUID
// @Tags ICPs
// @Produce json
// @Param uuid path string true "ICP UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ICPResponse} "ICP retrieved"
// @Router /api/v1/icps/{uuid} [get]
func (h *ICPHandler) GetICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	icpUUID := c.Params("uuid")
	result, err := h.icpFlow.GetICP(h.createRequestContext(c, "/api/v1/icps/"+icpUUID), customerID, icpUUID)
	if err != nil {
		return h.icpError(c, err, "ICP retrieval failed", "ICP_GET_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICP retrieved", result)
}

// UpdateICP handles saving user edits to an ICP
// @Summary Update ICP
// @Description Save user edits to an ICP's form fields
// @Tags ICPs
// @Accept json
// @Produce json
// @Param uuid path string true "ICP UUID"
// @Param request body dto.UpdateICPRequest true "ICP edits"
// @Success 200 {object} dto.APIResponse{data=dto.ICPResponse} "ICP updated"
// @Router /api/v1/icps/{uuid} [put]
func (h *ICPHandler) UpdateICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.UpdateICPRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CustomerID = customerID
	req.ICPUUID = c.Params("uuid")
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.icpFlow.UpdateICP(h.createRequestContext(c, "/api/v1/icps/"+req.ICPUUID), &req, metadata)
	if err != nil {
		return h.icpError(c, err, "ICP update failed", "ICP_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICP updated", result)
}

// ApproveICP handles approving a reviewed ICP
// @Summary Approve ICP
// @Description Mark an ICP under review as approved
// @Tags ICPs
// @Produce json
// @Param uuid path string true "ICP UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ICPResponse} "ICP approved"
// @Failure 409 {object} dto.APIResponse "ICP not under review"
// @Router /api/v1/icps/{uuid}/approve [post]
func (h *ICPHandler) ApproveICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ApproveICPRequest{CustomerID: customerID, ICPUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ICP UUID", "INVALID_ICP_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.icpFlow.ApproveICP(h.createRequestContext(c, "/api/v1/icps/"+req.ICPUUID+"/approve"), req, metadata)
	if err != nil {
		return h.icpError(c, err, "ICP approval failed", "ICP_APPROVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICP approved", result)
}

// ActivateICP handles switching the active ICP
// @Summary Activate ICP
// @Description Make an approved ICP the active one, deactivating the previous
// @Tags ICPs
// @Produce json
// @Param uuid path string true "ICP UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ICPResponse} "ICP activated"
// @Failure 409 {object} dto.APIResponse "ICP not approved"
// @Router /api/v1/icps/{uuid}/activate [post]
func (h *ICPHandler) ActivateICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ActivateICPRequest{CustomerID: customerID, ICPUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ICP UUID", "INVALID_ICP_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.icpFlow.ActivateICP(h.createRequestContext(c, "/api/v1/icps/"+req.ICPUUID+"/activate"), req, metadata)
	if err != nil {
		return h.icpError(c, err, "ICP activation failed", "ICP_ACTIVATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICP activated", result)
}

// DeleteICP handles ICP deletion
// @Summary Delete ICP
// @Description Delete an ICP locally and drop its workflow state
// @Tags ICPs
// @Produce json
// @Param uuid path string true "ICP UUID"
// @Success 200 {object} dto.APIResponse "ICP deleted"
// @Router /api/v1/icps/{uuid} [delete]
func (h *ICPHandler) DeleteICP(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteICPRequest{CustomerID: customerID, ICPUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ICP UUID", "INVALID_ICP_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.icpFlow.DeleteICP(h.createRequestContext(c, "/api/v1/icps/"+req.ICPUUID), req, metadata); err != nil {
		return h.icpError(c, err, "ICP deletion failed", "ICP_DELETE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ICP deleted", nil)
}

func (h *ICPHandler) icpError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCustomerNotFound(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	case businessflow.IsICPNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "ICP not found", "ICP_NOT_FOUND", nil)
	case businessflow.IsICPTitleRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "ICP title is required", "ICP_TITLE_REQUIRED", nil)
	case businessflow.IsICPNotApproved(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Only approved ICPs can be activated", "ICP_NOT_APPROVED", nil)
	case businessflow.IsICPNotReviewable(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Only ICPs under review can be approved", "ICP_NOT_REVIEWABLE", nil)
	default:
		log.Println(fallbackMessage, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

func (h *ICPHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
