package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/services"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
	"github.com/reachlyhq/reachly/utils"
)

// AccountLinkingOptions carries the redirect endpoints handed to the hosted
// auth provider when a link session is created.
type AccountLinkingOptions struct {
	SuccessURL string
	FailureURL string
	NotifyURL  string
	LinkExpiry time.Duration
}

// AccountFlow handles LinkedIn account linking and account lifecycle
type AccountFlow interface {
	RequestLink(ctx context.Context, req *dto.RequestLinkRequest, metadata *ClientMetadata) (*dto.RequestLinkResponse, error)
	HandleLinkNotify(ctx context.Context, req *dto.LinkNotifyRequest) error
	GetAccountStatus(ctx context.Context, customerID uint) (*dto.AccountStatusResponse, error)
	Disconnect(ctx context.Context, req *dto.DisconnectRequest, metadata *ClientMetadata) (*dto.AccountActionResponse, error)
	RequestDeletion(ctx context.Context, req *dto.DeleteAccountRequest, metadata *ClientMetadata) (*dto.DeleteAccountResponse, error)
	DeletionHistory(ctx context.Context, email string) (*dto.DeletionHistoryResponse, error)
}

// AccountFlowImpl implements the account business flow
type AccountFlowImpl struct {
	accountRepo  repository.LinkedAccountRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	unipile      *services.UnipileClient
	opts         AccountLinkingOptions
	db           *gorm.DB
}

// NewAccountFlow creates a new account flow instance
func NewAccountFlow(
	accountRepo repository.LinkedAccountRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	unipile *services.UnipileClient,
	opts AccountLinkingOptions,
	db *gorm.DB,
) AccountFlow {
	if opts.LinkExpiry <= 0 {
		opts.LinkExpiry = time.Hour
	}
	return &AccountFlowImpl{
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		unipile:      unipile,
		opts:         opts,
		db:           db,
	}
}

// RequestLink starts a hosted-auth session and returns the URL the dashboard
// opens in a popup.
func (s *AccountFlowImpl) RequestLink(ctx context.Context, req *dto.RequestLinkRequest, metadata *ClientMetadata) (*dto.RequestLinkResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if !s.unipile.IsConfigured() {
		return nil, NewBusinessError("LINKING_NOT_CONFIGURED", "Account linking is not configured", ErrLinkingNotConfigured)
	}

	existing, err := s.accountRepo.CurrentByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup linked account", err)
	}
	authType := "create"
	if existing != nil && existing.Status == models.LinkedAccountStatusError {
		authType = "reconnect"
	}

	expiry := utils.UTCNow().Add(s.opts.LinkExpiry).Format(time.RFC3339)
	hosted, err := s.unipile.CreateHostedAuthLink(ctx, services.HostedAuthRequest{
		Type:       authType,
		Providers:  []string{"LINKEDIN"},
		Expiry:     expiry,
		SuccessURL: s.opts.SuccessURL,
		FailureURL: s.opts.FailureURL,
		NotifyURL:  s.opts.NotifyURL,
		Name:       customer.UUID.String(),
	})
	if err != nil {
		errMsg := fmt.Sprintf("Hosted auth request failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionAccountLinkRequested, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("LINK_REQUEST_FAILED", "Failed to start account linking", err)
	}

	msg := "Account link session created"
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionAccountLinkRequested, msg, true, nil, metadata)

	return &dto.RequestLinkResponse{AuthURL: hosted.URL, ExpiresOn: hosted.ExpiresOn}, nil
}

// HandleLinkNotify processes the provider callback after a hosted-auth session
// completes. A profile already linked to a different customer is a conflict:
// the just-created local record is rolled back before the conflict surfaces.
func (s *AccountFlowImpl) HandleLinkNotify(ctx context.Context, req *dto.LinkNotifyRequest) error {
	customer, err := s.customerRepo.ByUUID(ctx, req.CustomerUUID)
	if err != nil {
		return NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	now := utils.UTCNow()
	account := &models.LinkedAccount{
		CustomerID:        customer.ID,
		Provider:          "LINKEDIN",
		ProviderAccountID: req.AccountID,
		Status:            models.LinkedAccountStatusConnected,
		ConnectedAt:       &now,
	}
	if req.Username != "" {
		account.Username = &req.Username
	}
	if len(req.Metadata) > 0 {
		account.Metadata = req.Metadata
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return NewBusinessError("ACCOUNT_SAVE_FAILED", "Failed to save linked account", err)
	}

	other, err := s.accountRepo.ByProviderAccountID(ctx, req.AccountID)
	if err == nil && other != nil && other.CustomerID != customer.ID && other.IsConnected() {
		// Same provider profile already connected for another customer.
		// Roll back the record created above before surfacing the conflict.
		_ = s.accountRepo.Delete(ctx, account.ID)
		_ = s.unipile.DeleteAccount(ctx, req.AccountID)

		errMsg := "LinkedIn profile already linked to another account"
		_ = writeAuditLog(ctx, s.auditRepo, customer, models.AuditActionAccountLinked, errMsg, false, &errMsg, nil)
		return NewBusinessError("ACCOUNT_ALREADY_LINKED", errMsg, ErrAccountAlreadyLinked)
	}

	msg := fmt.Sprintf("LinkedIn account linked: %s", req.AccountID)
	_ = writeAuditLog(ctx, s.auditRepo, customer, models.AuditActionAccountLinked, msg, true, nil, nil)

	return nil
}

// GetAccountStatus reports the current link state, reconciling the local row
// against the provider when one exists.
func (s *AccountFlowImpl) GetAccountStatus(ctx context.Context, customerID uint) (*dto.AccountStatusResponse, error) {
	account, err := s.accountRepo.CurrentByCustomer(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup linked account", err)
	}
	if account == nil {
		return &dto.AccountStatusResponse{Connected: false}, nil
	}

	// Provider state wins over the local row when reachable; a transient
	// provider error falls back to the last known local state.
	if s.unipile.IsConfigured() {
		status, err := s.unipile.GetAccountStatus(ctx, account.ProviderAccountID)
		if err == nil && !status.Connected && account.IsConnected() {
			account.Status = models.LinkedAccountStatusError
			_ = s.accountRepo.Update(ctx, *account)
		}
	}

	out := &dto.AccountStatusResponse{
		Connected: account.IsConnected(),
		Account: &dto.LinkedAccountDTO{
			UUID:              account.UUID.String(),
			Provider:          account.Provider,
			ProviderAccountID: account.ProviderAccountID,
			Status:            string(account.Status),
			Metadata:          account.Metadata,
		},
	}
	if account.Username != nil {
		out.Account.Username = *account.Username
	}
	if account.ConnectedAt != nil {
		out.Account.ConnectedAt = utils.ToPtr(account.ConnectedAt.Format(time.RFC3339))
	}
	return out, nil
}

// Disconnect unlinks the account. Idempotent: an already-disconnected account
// succeeds, and a remote deletion failure is logged as a warning while the
// local state still clears.
func (s *AccountFlowImpl) Disconnect(ctx context.Context, req *dto.DisconnectRequest, metadata *ClientMetadata) (*dto.AccountActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	account, err := s.accountRepo.CurrentByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup linked account", err)
	}
	if account == nil || account.Status == models.LinkedAccountStatusDisconnected {
		return &dto.AccountActionResponse{Message: "Account disconnected"}, nil
	}

	remoteErr := s.unipile.DeleteAccount(ctx, account.ProviderAccountID)
	if remoteErr != nil && !errors.Is(remoteErr, services.ErrUnipileNotConfigured) {
		warn := fmt.Sprintf("Remote account deletion failed, local disconnect proceeds: %s", remoteErr.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionAccountDisconnected, warn, false, &warn, metadata)
	}

	now := utils.UTCNow()
	account.Status = models.LinkedAccountStatusDisconnected
	account.DisconnectedAt = &now
	if err := s.accountRepo.Update(ctx, *account); err != nil {
		return nil, NewBusinessError("ACCOUNT_DISCONNECT_FAILED", "Failed to disconnect account", err)
	}

	msg := fmt.Sprintf("LinkedIn account disconnected: %s", account.ProviderAccountID)
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionAccountDisconnected, msg, true, nil, metadata)

	return &dto.AccountActionResponse{Message: "Account disconnected"}, nil
}

// RequestDeletion soft-deletes the customer account with a grace period
// before permanent removal.
func (s *AccountFlowImpl) RequestDeletion(ctx context.Context, req *dto.DeleteAccountRequest, metadata *ClientMetadata) (*dto.DeleteAccountResponse, error) {
	customer, err := s.customerRepo.ByID(ctx, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}
	if customer.IsDeleted() {
		return nil, NewBusinessError("DELETION_ALREADY_PENDING", "Account deletion is already pending", ErrDeletionAlreadyPending)
	}

	now := utils.UTCNow()
	softDeleteUntil := now.Add(utils.AccountDeletionGracePeriod)

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.customerRepo.MarkDeleted(txCtx, customer.ID, now, softDeleteUntil); err != nil {
			return err
		}
		// Drop the LinkedIn link along with the account so the grace period
		// cannot keep sending.
		account, err := s.accountRepo.CurrentByCustomer(txCtx, customer.ID)
		if err != nil || account == nil {
			return err
		}
		account.Status = models.LinkedAccountStatusDisconnected
		account.DisconnectedAt = &now
		return s.accountRepo.Update(txCtx, *account)
	})
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_DELETE_FAILED", "Failed to delete account", err)
	}

	customer.DeletedAt = &now
	customer.SoftDeleteUntil = &softDeleteUntil

	msg := fmt.Sprintf("Account deletion requested, permanent after %s", softDeleteUntil.Format(time.RFC3339))
	_ = writeAuditLog(ctx, s.auditRepo, customer, models.AuditActionAccountDeleted, msg, true, nil, metadata)

	return &dto.DeleteAccountResponse{
		SoftDeleteUntil:    softDeleteUntil.Format(time.RFC3339),
		DaysUntilPermanent: customer.DaysUntilPermanentDeletion(now),
	}, nil
}

// DeletionHistory reports whether an email has prior deletion records, used
// by the signup flow to offer recovery instead of a fresh account.
func (s *AccountFlowImpl) DeletionHistory(ctx context.Context, email string) (*dto.DeletionHistoryResponse, error) {
	history, err := s.customerRepo.DeletionHistoryByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("DELETION_HISTORY_FAILED", "Failed to fetch deletion history", err)
	}

	out := &dto.DeletionHistoryResponse{HasDeletedAccount: len(history) > 0}
	now := utils.UTCNow()
	for _, c := range history {
		if c.SoftDeleteUntil != nil && now.Before(*c.SoftDeleteUntil) {
			out.Recoverable = true
			out.SoftDeleteUntil = utils.ToPtr(c.SoftDeleteUntil.Format(time.RFC3339))
			break
		}
	}
	return out, nil
}
