package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/middleware"
	businessflow "github.com/reachlyhq/reachly/business_flow"
)

// UsageHandlerInterface defines the contract for usage handlers
type UsageHandlerInterface interface {
	GetMonthlySummary(c fiber.Ctx) error
}

// UsageHandler handles usage reporting HTTP requests
type UsageHandler struct {
	usageFlow businessflow.UsageFlow
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usageFlow businessflow.UsageFlow) *UsageHandler {
	return &UsageHandler{usageFlow: usageFlow}
}

func (h *UsageHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *UsageHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetMonthlySummary handles the monthly usage report
// @Summary Get Usage Summary
// @Description Sum the customer's activity counters over the current calendar month
// @Tags Usage
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.UsageSummaryResponse} "Usage summary retrieved"
// @Router /api/v1/usage/summary [get]
func (h *UsageHandler) GetMonthlySummary(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.usageFlow.GetMonthlySummary(h.createRequestContext(c, "/api/v1/usage/summary"), customerID)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		log.Println("Usage summary retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Usage summary retrieval failed", "USAGE_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Usage summary retrieved", result)
}

func (h *UsageHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, businessflow.CancelFuncKey, cancel)
	return ctx
}
