package businessflow

import (
	"context"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
	"github.com/reachlyhq/reachly/utils"
)

// getCustomer loads an active, non-deleted customer or fails with the
// matching sentinel.
func getCustomer(ctx context.Context, repo repository.CustomerRepository, customerID uint) (models.Customer, error) {
	customer, err := repo.ByID(ctx, customerID)
	if err != nil {
		return models.Customer{}, err
	}
	if customer == nil {
		return models.Customer{}, ErrCustomerNotFound
	}
	if customer.IsDeleted() {
		return models.Customer{}, ErrAccountDeleted
	}
	if !utils.IsTrue(customer.IsActive) {
		return models.Customer{}, ErrAccountInactive
	}
	return *customer, nil
}

// writeAuditLog records one user-triggered action. Audit failures never fail
// the action itself; callers discard the error.
func writeAuditLog(ctx context.Context, repo repository.AuditLogRepository, customer *models.Customer, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var customerID *uint
	if customer != nil {
		customerID = &customer.ID
	}

	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return repo.Save(ctx, audit)
}
