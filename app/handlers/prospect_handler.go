// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"bufio"
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/middleware"
	"github.com/reachlyhq/reachly/app/reconciler"
	businessflow "github.com/reachlyhq/reachly/business_flow"
)

// ProspectHandlerInterface defines the contract for prospect handlers
type ProspectHandlerInterface interface {
	ListProspects(c fiber.Ctx) error
	GetSummary(c fiber.Ctx) error
	ExportProspects(c fiber.Ctx) error
	StreamProspects(c fiber.Ctx) error
	ArchiveProspect(c fiber.Ctx) error
	DeleteProspect(c fiber.Ctx) error
	GetViewRules(c fiber.Ctx) error
	UpdateViewRules(c fiber.Ctx) error
}

// ProspectHandler handles prospect-related HTTP requests
type ProspectHandler struct {
	prospectFlow businessflow.ProspectFlow
	rc           *redis.Client
	validator    *validator.Validate
}

// NewProspectHandler creates a new prospect handler
func NewProspectHandler(prospectFlow businessflow.ProspectFlow, rc *redis.Client) *ProspectHandler {
	return &ProspectHandler{
		prospectFlow: prospectFlow,
		rc:           rc,
		validator:    validator.New(),
	}
}

func (h *ProspectHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ProspectHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListProspects handles the aggregated prospect list
// @Summary List Prospects
// @Description List aggregated prospects with search, status filter, view rules, sort and pagination
// @Tags Prospects
// @Produce json
// @Param search query string false "Name or headline substring"
// @Param statuses query string false "Comma-separated status filter"
// @Param sort_by query string false "Sort key"
// @Param sort_desc query bool false "Sort descending"
// @Param page query int false "Page number"
// @Success 200 {object} dto.APIResponse{data=dto.ListProspectsResponse} "Prospect list"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/prospects [get]
func (h *ProspectHandler) ListProspects(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := h.listRequestFromQuery(c, customerID)
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.prospectFlow.ListProspects(h.createRequestContext(c, "/api/v1/prospects"), req, metadata)
	if err != nil {
		if businessflow.IsInvalidSortKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid sort key", "INVALID_SORT_KEY", nil)
		}
		if businessflow.IsInvalidStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status filter", "INVALID_STATUS_FILTER", nil)
		}
		log.Println("Prospect listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list prospects", "PROSPECT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Prospects retrieved successfully", result)
}

// GetSummary handles the dashboard summary widget
// @Summary Prospect Summary
// @Description Needs-attention count and per-group prospect counts
// @Tags Prospects
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ProspectsSummaryResponse} "Summary"
// @Router /api/v1/prospects/summary [get]
func (h *ProspectHandler) GetSummary(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.prospectFlow.GetSummary(h.createRequestContext(c, "/api/v1/prospects/summary"), customerID)
	if err != nil {
		log.Println("Prospect summary failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get summary", "PROSPECT_SUMMARY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Summary retrieved successfully", result)
}

// ExportProspects handles the XLSX export of the current filtered view
// @Summary Export Prospects
// @Description Export the filtered prospect list as an XLSX workbook
// @Tags Prospects
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "XLSX workbook"
// @Router /api/v1/prospects/export [get]
func (h *ProspectHandler) ExportProspects(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := h.listRequestFromQuery(c, customerID)
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	payload, filename, err := h.prospectFlow.ExportProspects(h.createRequestContextWithTimeout(c, "/api/v1/prospects/export", 60*time.Second), req, metadata)
	if err != nil {
		log.Println("Prospect export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export prospects", "PROSPECT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(payload)
}

// StreamProspects pushes projection updates over server-sent events. Each
// event is the full re-aggregated prospect list published by the reconciler.
// @Summary Stream Prospect Updates
// @Description Server-sent events stream of prospect projection updates
// @Tags Prospects
// @Produce text/event-stream
// @Router /api/v1/prospects/stream [get]
func (h *ProspectHandler) StreamProspects(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	if h.rc == nil {
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Realtime updates are not available", "STREAM_UNAVAILABLE", nil)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	sub := h.rc.Subscribe(context.Background(), reconciler.UpdateChannel(customerID))

	c.RequestCtx().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		heartbeat := time.NewTicker(25 * time.Second)
		defer heartbeat.Stop()

		ch := sub.Channel()
		for {
			select {
			case msg, open := <-ch:
				if !open {
					return
				}
				if _, err := w.WriteString("event: prospects\ndata: " + msg.Payload + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// ArchiveProspect handles archiving every non-terminal row of a prospect
// @Summary Archive Prospect
// @Description Archive all in-flight message rows of one prospect
// @Tags Prospects
// @Produce json
// @Param uuid path string true "Research cache UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ProspectActionResponse} "Prospect archived"
// @Router /api/v1/prospects/{uuid}/archive [post]
func (h *ProspectHandler) ArchiveProspect(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ArchiveProspectRequest{CustomerID: customerID, CacheUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid prospect UUID", "INVALID_PROSPECT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.prospectFlow.ArchiveProspect(h.createRequestContext(c, "/api/v1/prospects/"+req.CacheUUID+"/archive"), req, metadata)
	if err != nil {
		if businessflow.IsProspectNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", "PROSPECT_NOT_FOUND", nil)
		}
		log.Println("Prospect archive failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to archive prospect", "PROSPECT_ARCHIVE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DeleteProspect handles removing a prospect from all views
// @Summary Delete Prospect
// @Description Soft-delete the prospect's research cache row
// @Tags Prospects
// @Produce json
// @Param uuid path string true "Research cache UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ProspectActionResponse} "Prospect removed"
// @Router /api/v1/prospects/{uuid} [delete]
func (h *ProspectHandler) DeleteProspect(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteProspectRequest{CustomerID: customerID, CacheUUID: c.Params("uuid")}
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid prospect UUID", "INVALID_PROSPECT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.prospectFlow.DeleteProspect(h.createRequestContext(c, "/api/v1/prospects/"+req.CacheUUID), req, metadata)
	if err != nil {
		if businessflow.IsProspectNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", "PROSPECT_NOT_FOUND", nil)
		}
		log.Println("Prospect delete failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete prospect", "PROSPECT_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetViewRules returns the installation's persisted view configuration
// @Summary Get View Rules
// @Description Load the persisted view configuration for this installation
// @Tags Prospects
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ViewRulesResponse} "View rules"
// @Router /api/v1/prospects/view-rules [get]
func (h *ProspectHandler) GetViewRules(c fiber.Ctx) error {
	installationID := middleware.GetInstallationIDFromContext(c)
	if installationID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "X-Installation-ID header is required", "MISSING_INSTALLATION_ID", nil)
	}

	result, err := h.prospectFlow.GetViewRules(h.createRequestContext(c, "/api/v1/prospects/view-rules"), installationID)
	if err != nil {
		log.Println("View rules load failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load view rules", "VIEW_RULES_LOAD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "View rules retrieved successfully", result)
}

// UpdateViewRules persists a view configuration change
// @Summary Update View Rules
// @Description Persist a preset or granular view configuration change
// @Tags Prospects
// @Accept json
// @Produce json
// @Param request body dto.UpdateViewRulesRequest true "View rules update"
// @Success 200 {object} dto.APIResponse{data=dto.ViewRulesResponse} "Updated view rules"
// @Router /api/v1/prospects/view-rules [put]
func (h *ProspectHandler) UpdateViewRules(c fiber.Ctx) error {
	installationID := middleware.GetInstallationIDFromContext(c)
	if installationID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "X-Installation-ID header is required", "MISSING_INSTALLATION_ID", nil)
	}

	var req dto.UpdateViewRulesRequest
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
	req.InstallationID = installationID

	result, err := h.prospectFlow.UpdateViewRules(h.createRequestContext(c, "/api/v1/prospects/view-rules"), &req)
	if err != nil {
		if businessflow.IsUnknownPreset(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown quick preset", "UNKNOWN_PRESET", nil)
		}
		log.Println("View rules update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update view rules", "VIEW_RULES_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "View rules updated successfully", result)
}

// listRequestFromQuery builds a list request from the query string
func (h *ProspectHandler) listRequestFromQuery(c fiber.Ctx, customerID uint) *dto.ListProspectsRequest {
	req := &dto.ListProspectsRequest{
		CustomerID:     customerID,
		InstallationID: middleware.GetInstallationIDFromContext(c),
		Search:         c.Query("search"),
		SortBy:         c.Query("sort_by"),
	}
	if raw := c.Query("statuses"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Statuses = append(req.Statuses, s)
			}
		}
	}
	if desc, err := strconv.ParseBool(c.Query("sort_desc")); err == nil {
		req.SortDesc = desc
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		req.Page = page
	}
	return req
}

func (h *ProspectHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ProspectHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
