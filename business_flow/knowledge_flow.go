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

// KnowledgeFlow handles knowledge base management. The automation gateway
// mirrors every mutation into the workflow's own store; the local row is the
// dashboard's read model and the source of the restore deadline.
type KnowledgeFlow interface {
	CreateEntry(ctx context.Context, req *dto.CreateKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error)
	ListEntries(ctx context.Context, customerID uint, includeDeleted bool) (*dto.ListKnowledgeEntriesResponse, error)
	GetEntry(ctx context.Context, customerID uint, entryUUID string) (*dto.KnowledgeEntryResponse, error)
	UpdateEntry(ctx context.Context, req *dto.UpdateKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error)
	DeleteEntry(ctx context.Context, req *dto.DeleteKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error)
	RestoreEntry(ctx context.Context, req *dto.RestoreKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error)
}

// KnowledgeFlowImpl implements the knowledge base business flow
type KnowledgeFlowImpl struct {
	entryRepo    repository.KnowledgeEntryRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	automation   *services.AutomationClient
	db           *gorm.DB
}

// NewKnowledgeFlow creates a new knowledge flow instance
func NewKnowledgeFlow(
	entryRepo repository.KnowledgeEntryRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	automation *services.AutomationClient,
	db *gorm.DB,
) KnowledgeFlow {
	return &KnowledgeFlowImpl{
		entryRepo:    entryRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		automation:   automation,
		db:           db,
	}
}

// CreateEntry stores a knowledge entry and mirrors it to the gateway
func (s *KnowledgeFlowImpl) CreateEntry(ctx context.Context, req *dto.CreateKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if req.Title == "" {
		return nil, NewBusinessError("KNOWLEDGE_TITLE_REQUIRED", "Entry title is required", ErrKnowledgeTitleRequired)
	}
	if req.Content == "" {
		return nil, NewBusinessError("KNOWLEDGE_CONTENT_REQUIRED", "Entry content is required", ErrKnowledgeContentRequired)
	}

	entryType := models.KnowledgeEntryType(req.EntryType)
	if !entryType.Valid() {
		entryType = models.KnowledgeEntryTypeOther
	}

	entry := &models.KnowledgeEntry{
		CustomerID: customer.ID,
		EntryType:  entryType,
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.entryRepo.Save(txCtx, entry)
	})
	if err != nil {
		return nil, NewBusinessError("KNOWLEDGE_CREATE_FAILED", "Failed to create knowledge entry", err)
	}

	s.mirror(ctx, &customer, "knowledge_create", entry)

	msg := fmt.Sprintf("Knowledge entry created: %s", entry.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionKnowledgeCreated, msg, true, nil, metadata)

	return toKnowledgeEntryResponse(entry), nil
}

// ListEntries returns the customer's knowledge base, optionally including
// soft-deleted entries still within their restore window.
func (s *KnowledgeFlowImpl) ListEntries(ctx context.Context, customerID uint, includeDeleted bool) (*dto.ListKnowledgeEntriesResponse, error) {
	entries, err := s.entryRepo.ListByCustomer(ctx, customerID, includeDeleted)
	if err != nil {
		return nil, NewBusinessError("KNOWLEDGE_LIST_FAILED", "Failed to list knowledge entries", err)
	}

	now := utils.UTCNow()
	out := make([]dto.KnowledgeEntryDTO, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDeleted() && !entry.CanRestore(now) {
			continue
		}
		out = append(out, toKnowledgeEntryDTO(entry))
	}

	return &dto.ListKnowledgeEntriesResponse{Entries: out}, nil
}

// GetEntry returns one knowledge entry by uuid
func (s *KnowledgeFlowImpl) GetEntry(ctx context.Context, customerID uint, entryUUID string) (*dto.KnowledgeEntryResponse, error) {
	entry, err := s.getOwnedEntry(ctx, entryUUID, customerID)
	if err != nil {
		return nil, err
	}
	return toKnowledgeEntryResponse(entry), nil
}

// UpdateEntry saves user edits and mirrors them to the gateway
func (s *KnowledgeFlowImpl) UpdateEntry(ctx context.Context, req *dto.UpdateKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	entry, err := s.getOwnedEntry(ctx, req.EntryUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if entry.IsDeleted() {
		return nil, NewBusinessError("KNOWLEDGE_NOT_FOUND", "Knowledge entry not found", ErrKnowledgeEntryNotFound)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, NewBusinessError("KNOWLEDGE_TITLE_REQUIRED", "Entry title is required", ErrKnowledgeTitleRequired)
		}
		entry.Title = *req.Title
	}
	if req.Content != nil {
		if *req.Content == "" {
			return nil, NewBusinessError("KNOWLEDGE_CONTENT_REQUIRED", "Entry content is required", ErrKnowledgeContentRequired)
		}
		entry.Content = *req.Content
	}
	if req.Tags != nil {
		entry.Tags = req.Tags
	}
	if req.EntryType != nil {
		entryType := models.KnowledgeEntryType(*req.EntryType)
		if entryType.Valid() {
			entry.EntryType = entryType
		}
	}

	if err := s.entryRepo.Update(ctx, *entry); err != nil {
		return nil, NewBusinessError("KNOWLEDGE_UPDATE_FAILED", "Failed to update knowledge entry", err)
	}

	s.mirror(ctx, &customer, "knowledge_update", entry)

	msg := fmt.Sprintf("Knowledge entry updated: %s", entry.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionKnowledgeUpdated, msg, true, nil, metadata)

	return toKnowledgeEntryResponse(entry), nil
}

// DeleteEntry soft-deletes an entry, opening its restore window. When the
// gateway is unconfigured the local delete still proceeds; the workflow store
// reconciles on its next sync rather than blocking the user.
func (s *KnowledgeFlowImpl) DeleteEntry(ctx context.Context, req *dto.DeleteKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	entry, err := s.getOwnedEntry(ctx, req.EntryUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if entry.IsDeleted() {
		return toKnowledgeEntryResponse(entry), nil
	}

	now := utils.UTCNow()
	canRestoreUntil := now.Add(utils.KnowledgeRestoreWindow)

	if err := s.entryRepo.SoftDelete(ctx, entry.ID, now, canRestoreUntil); err != nil {
		return nil, NewBusinessError("KNOWLEDGE_DELETE_FAILED", "Failed to delete knowledge entry", err)
	}
	entry.DeletedAt = &now
	entry.CanRestoreUntil = &canRestoreUntil

	s.mirror(ctx, &customer, "knowledge_delete", entry)

	msg := fmt.Sprintf("Knowledge entry deleted: %s", entry.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionKnowledgeDeleted, msg, true, nil, metadata)

	return toKnowledgeEntryResponse(entry), nil
}

// RestoreEntry undoes a soft delete while the restore window is open. Expired
// windows are rejected locally; the gateway never sees the request.
func (s *KnowledgeFlowImpl) RestoreEntry(ctx context.Context, req *dto.RestoreKnowledgeEntryRequest, metadata *ClientMetadata) (*dto.KnowledgeEntryResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	entry, err := s.getOwnedEntry(ctx, req.EntryUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !entry.IsDeleted() {
		return toKnowledgeEntryResponse(entry), nil
	}
	if !entry.CanRestore(utils.UTCNow()) {
		return nil, NewBusinessError("RESTORE_WINDOW_EXPIRED", "The restore window for this entry has expired", ErrRestoreWindowExpired)
	}

	if err := s.entryRepo.Restore(ctx, entry.ID); err != nil {
		return nil, NewBusinessError("KNOWLEDGE_RESTORE_FAILED", "Failed to restore knowledge entry", err)
	}
	entry.DeletedAt = nil
	entry.CanRestoreUntil = nil

	s.mirror(ctx, &customer, "knowledge_restore", entry)

	msg := fmt.Sprintf("Knowledge entry restored: %s", entry.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionKnowledgeRestored, msg, true, nil, metadata)

	return toKnowledgeEntryResponse(entry), nil
}

// mirror notifies the gateway of a local mutation. Mirror failures never fail
// the user action; an unconfigured gateway is expected in self-hosted setups.
func (s *KnowledgeFlowImpl) mirror(ctx context.Context, customer *models.Customer, action string, entry *models.KnowledgeEntry) {
	_, err := s.automation.DispatchAction(ctx, services.ActionRequest{
		Action: action,
		UserID: customer.UUID.String(),
		Data: map[string]any{
			"entryId":   entry.UUID.String(),
			"entryType": string(entry.EntryType),
			"title":     entry.Title,
			"content":   entry.Content,
			"tags":      []string(entry.Tags),
		},
	})
	if err != nil && !errors.Is(err, services.ErrGatewayNotConfigured) {
		errMsg := fmt.Sprintf("Gateway mirror %s failed: %s", action, err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, customer, models.AuditActionKnowledgeUpdated, errMsg, false, &errMsg, nil)
	}
}

// getOwnedEntry loads a knowledge entry and checks customer ownership
func (s *KnowledgeFlowImpl) getOwnedEntry(ctx context.Context, entryUUID string, customerID uint) (*models.KnowledgeEntry, error) {
	entry, err := s.entryRepo.ByUUID(ctx, entryUUID)
	if err != nil {
		return nil, NewBusinessError("KNOWLEDGE_LOOKUP_FAILED", "Failed to lookup knowledge entry", err)
	}
	if entry == nil {
		return nil, NewBusinessError("KNOWLEDGE_NOT_FOUND", "Knowledge entry not found", ErrKnowledgeEntryNotFound)
	}
	if entry.CustomerID != customerID {
		return nil, NewBusinessError("KNOWLEDGE_NOT_FOUND", "Knowledge entry not found", ErrKnowledgeEntryNotFound)
	}
	return entry, nil
}

// toKnowledgeEntryDTO converts an entry to its API shape
func toKnowledgeEntryDTO(entry *models.KnowledgeEntry) dto.KnowledgeEntryDTO {
	out := dto.KnowledgeEntryDTO{
		UUID:           entry.UUID.String(),
		EntryType:      string(entry.EntryType),
		Title:          entry.Title,
		Content:        entry.Content,
		Tags:           entry.Tags,
		WorkflowStatus: string(entry.WorkflowStatus),
		ReviewStatus:   string(entry.ReviewStatus),
		Deleted:        entry.IsDeleted(),
		CreatedAt:      entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.CanRestoreUntil != nil {
		out.CanRestoreUntil = utils.ToPtr(entry.CanRestoreUntil.Format(time.RFC3339))
	}
	return out
}

func toKnowledgeEntryResponse(entry *models.KnowledgeEntry) *dto.KnowledgeEntryResponse {
	return &dto.KnowledgeEntryResponse{Entry: toKnowledgeEntryDTO(entry)}
}
