// Package businessflow contains the core business logic and use cases for prospect workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
	"github.com/reachlyhq/reachly/utils"
)

// ProspectFlow handles the prospect list business logic
type ProspectFlow interface {
	ListProspects(ctx context.Context, req *dto.ListProspectsRequest, metadata *ClientMetadata) (*dto.ListProspectsResponse, error)
	GetSummary(ctx context.Context, customerID uint) (*dto.ProspectsSummaryResponse, error)
	ExportProspects(ctx context.Context, req *dto.ListProspectsRequest, metadata *ClientMetadata) ([]byte, string, error)
	ArchiveProspect(ctx context.Context, req *dto.ArchiveProspectRequest, metadata *ClientMetadata) (*dto.ProspectActionResponse, error)
	DeleteProspect(ctx context.Context, req *dto.DeleteProspectRequest, metadata *ClientMetadata) (*dto.ProspectActionResponse, error)
	GetViewRules(ctx context.Context, installationID string) (*dto.ViewRulesResponse, error)
	UpdateViewRules(ctx context.Context, req *dto.UpdateViewRulesRequest) (*dto.ViewRulesResponse, error)
	Snapshot(ctx context.Context, customerID uint) ([]*Prospect, error)
}

// ProspectFlowImpl implements the prospect business flow
type ProspectFlowImpl struct {
	logRepo      repository.MessageGenerationLogRepository
	cacheRepo    repository.ResearchCacheRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	rulesStore   *ViewRulesStore
	rc           *redis.Client
	db           *gorm.DB
}

// NewProspectFlow creates a new prospect flow instance
func NewProspectFlow(
	logRepo repository.MessageGenerationLogRepository,
	cacheRepo repository.ResearchCacheRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	rulesStore *ViewRulesStore,
	db *gorm.DB,
	rc *redis.Client,
) ProspectFlow {
	return &ProspectFlowImpl{
		logRepo:      logRepo,
		cacheRepo:    cacheRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		rulesStore:   rulesStore,
		rc:           rc,
		db:           db,
	}
}

// Snapshot fetches and aggregates the customer's full prospect projection.
// Initial fetches, realtime triggers, and poll ticks all funnel through this
// one function applied to the latest full row set; nothing ever patches a
// previous projection incrementally.
func (s *ProspectFlowImpl) Snapshot(ctx context.Context, customerID uint) ([]*Prospect, error) {
	logs, err := s.logRepo.ListForProjection(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("PROSPECT_FETCH_FAILED", "Failed to fetch prospect rows", err)
	}
	return BuildProspects(logs), nil
}

// ListProspects runs the full pipeline: snapshot, search, status chips, view
// rules, sort, paginate.
func (s *ProspectFlowImpl) ListProspects(ctx context.Context, req *dto.ListProspectsRequest, metadata *ClientMetadata) (*dto.ListProspectsResponse, error) {
	prospects, err := s.Snapshot(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	prospects, err = s.applyFilters(ctx, prospects, req)
	if err != nil {
		return nil, err
	}

	sortKey := SortKey(req.SortBy)
	if req.SortBy == "" {
		sortKey = SortKeyCreatedAt
		req.SortDesc = true
	}
	if !sortKey.Valid() {
		return nil, NewBusinessError("INVALID_SORT_KEY", "Invalid sort key", ErrInvalidSortKey)
	}
	SortProspects(prospects, sortKey, req.SortDesc)

	total := len(prospects)
	pageItems, page, totalPages := Paginate(prospects, req.Page, utils.ProspectPageSize)

	out := make([]dto.ProspectDTO, 0, len(pageItems))
	for _, p := range pageItems {
		out = append(out, toProspectDTO(p))
	}

	return &dto.ListProspectsResponse{
		Prospects:  out,
		Page:       page,
		PageSize:   utils.ProspectPageSize,
		TotalPages: totalPages,
		TotalCount: total,
	}, nil
}

// applyFilters applies search, status chips, and the installation's view rules
func (s *ProspectFlowImpl) applyFilters(ctx context.Context, prospects []*Prospect, req *dto.ListProspectsRequest) ([]*Prospect, error) {
	prospects = FilterBySearch(prospects, req.Search)

	statuses := make([]models.MessageStatus, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status := models.MessageStatus(raw)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_STATUS_FILTER", "Invalid message status in filter", ErrInvalidStatus)
		}
		statuses = append(statuses, status)
	}
	prospects = FilterByStatuses(prospects, statuses)

	if req.InstallationID != "" {
		rules, err := s.rulesStore.Load(ctx, req.InstallationID)
		if err == nil {
			prospects = ApplyViewRules(prospects, rules, utils.UTCNow())
		}
		// Rule-load failures are transient; the unfiltered list is still
		// correct, so they are not surfaced.
	}

	return prospects, nil
}

// GetSummary computes the dashboard summary widget: per-group counts and the
// needs-attention total.
func (s *ProspectFlowImpl) GetSummary(ctx context.Context, customerID uint) (*dto.ProspectsSummaryResponse, error) {
	prospects, err := s.Snapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	needsAttention := 0
	for _, p := range prospects {
		counts[string(p.Status().Group())]++
		if p.NeedsAttention() {
			needsAttention++
		}
	}

	return &dto.ProspectsSummaryResponse{
		TotalProspects: len(prospects),
		NeedsAttention: needsAttention,
		GroupCounts:    counts,
	}, nil
}

// ExportProspects writes the current filtered view to an XLSX workbook
func (s *ProspectFlowImpl) ExportProspects(ctx context.Context, req *dto.ListProspectsRequest, metadata *ClientMetadata) ([]byte, string, error) {
	prospects, err := s.Snapshot(ctx, req.CustomerID)
	if err != nil {
		return nil, "", err
	}

	prospects, err = s.applyFilters(ctx, prospects, req)
	if err != nil {
		return nil, "", err
	}

	sortKey := SortKey(req.SortBy)
	if !sortKey.Valid() {
		sortKey = SortKeyCreatedAt
		req.SortDesc = true
	}
	SortProspects(prospects, sortKey, req.SortDesc)

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Prospects"
	xl.SetSheetName("Sheet1", sheet)

	header := []any{"Name", "Job Title", "Profile URL", "Status", "Messages", "Scheduled For", "Sent At", "Created At"}
	cellRef, _ := excelize.CoordinatesToCellName(1, 1)
	_ = xl.SetSheetRow(sheet, cellRef, &header)

	for i, p := range prospects {
		scheduledFor := ""
		if p.Representative.ScheduledFor != nil {
			scheduledFor = p.Representative.ScheduledFor.UTC().Format(time.RFC3339)
		}
		sentAt := ""
		if p.Representative.SentAt != nil {
			sentAt = p.Representative.SentAt.UTC().Format(time.RFC3339)
		}
		profileURL := ""
		if p.Cache != nil {
			profileURL = p.Cache.ProfileURL
		}

		record := []any{
			p.Name(),
			p.JobTitle(),
			profileURL,
			p.Status().GetStatusDisplayName(),
			p.MessageCount,
			scheduledFor,
			sentAt,
			p.Representative.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build prospect export", err)
	}

	filename := fmt.Sprintf("prospects_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// ArchiveProspect archives every non-terminal log row of one prospect
func (s *ProspectFlowImpl) ArchiveProspect(ctx context.Context, req *dto.ArchiveProspectRequest, metadata *ClientMetadata) (*dto.ProspectActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	cache, err := s.getOwnedCache(ctx, req.CacheUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.logRepo.ArchiveByResearchCacheID(txCtx, req.CustomerID, cache.ID)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Prospect archive failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionProspectArchived, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PROSPECT_ARCHIVE_FAILED", "Failed to archive prospect", err)
	}

	msg := fmt.Sprintf("Prospect archived: %s", cache.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionProspectArchived, msg, true, nil, metadata)

	return &dto.ProspectActionResponse{Message: "Prospect archived successfully"}, nil
}

// DeleteProspect soft-deletes the prospect's research cache row, removing it
// from every view while its log history stays intact.
func (s *ProspectFlowImpl) DeleteProspect(ctx context.Context, req *dto.DeleteProspectRequest, metadata *ClientMetadata) (*dto.ProspectActionResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	cache, err := s.getOwnedCache(ctx, req.CacheUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SoftDelete(ctx, cache.ID); err != nil {
		errMsg := fmt.Sprintf("Prospect delete failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionProspectDeleted, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PROSPECT_DELETE_FAILED", "Failed to delete prospect", err)
	}

	msg := fmt.Sprintf("Prospect deleted: %s", cache.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionProspectDeleted, msg, true, nil, metadata)

	return &dto.ProspectActionResponse{Message: "Prospect removed successfully"}, nil
}

// GetViewRules loads the installation's persisted view rules
func (s *ProspectFlowImpl) GetViewRules(ctx context.Context, installationID string) (*dto.ViewRulesResponse, error) {
	rules, err := s.rulesStore.Load(ctx, installationID)
	if err != nil {
		return nil, NewBusinessError("VIEW_RULES_LOAD_FAILED", "Failed to load view rules", err)
	}
	return toViewRulesResponse(rules), nil
}

// UpdateViewRules persists a rule change, enforcing preset/granular exclusivity
func (s *ProspectFlowImpl) UpdateViewRules(ctx context.Context, req *dto.UpdateViewRulesRequest) (*dto.ViewRulesResponse, error) {
	rules, err := s.rulesStore.Load(ctx, req.InstallationID)
	if err != nil {
		return nil, NewBusinessError("VIEW_RULES_LOAD_FAILED", "Failed to load view rules", err)
	}

	if req.Preset != nil {
		if err := rules.SetPreset(ViewPreset(*req.Preset)); err != nil {
			return nil, NewBusinessError("UNKNOWN_PRESET", "Unknown quick preset", err)
		}
	} else {
		rules.SetGranular(ViewRules{
			HideArchived:       req.HideArchived,
			OnlyAwaitingReply:  req.OnlyAwaitingReply,
			OnlyReplied:        req.OnlyReplied,
			HideReplied:        req.HideReplied,
			ActivityWithinDays: req.ActivityWithinDays,
			AddedWithinDays:    req.AddedWithinDays,
			MinMessageCount:    req.MinMessageCount,
			MaxMessageCount:    req.MaxMessageCount,
		})
	}

	if err := s.rulesStore.Save(ctx, req.InstallationID, rules); err != nil {
		return nil, NewBusinessError("VIEW_RULES_SAVE_FAILED", "Failed to save view rules", err)
	}

	return toViewRulesResponse(rules), nil
}

// getOwnedCache loads a research cache row and checks customer ownership
func (s *ProspectFlowImpl) getOwnedCache(ctx context.Context, cacheUUID string, customerID uint) (*models.ResearchCache, error) {
	cache, err := s.cacheRepo.ByUUID(ctx, cacheUUID)
	if err != nil {
		return nil, NewBusinessError("PROSPECT_LOOKUP_FAILED", "Failed to lookup prospect", err)
	}
	if cache == nil {
		return nil, NewBusinessError("PROSPECT_NOT_FOUND", "Prospect not found", ErrProspectNotFound)
	}
	if cache.CustomerID != customerID {
		return nil, NewBusinessError("PROSPECT_NOT_FOUND", "Prospect not found", ErrProspectNotFound)
	}
	return cache, nil
}

// toProspectDTO converts a projection to its API shape
func toProspectDTO(p *Prospect) dto.ProspectDTO {
	rep := p.Representative

	out := dto.ProspectDTO{
		ResearchCacheID: p.ResearchCacheID,
		Loaded:          p.Loaded(),
		Name:            p.Name(),
		JobTitle:        p.JobTitle(),
		Status:          string(rep.MessageStatus),
		StatusGroup:     string(rep.MessageStatus.Group()),
		StatusDisplay:   rep.MessageStatus.GetStatusDisplayName(),
		MessageCount:    p.MessageCount,
		NeedsAttention:  p.NeedsAttention(),
		MessageUUID:     rep.UUID.String(),
		CreatedAt:       rep.CreatedAt.Format(time.RFC3339),
	}

	allStatuses := make([]string, 0, len(p.AllStatuses))
	for _, s := range p.AllStatuses {
		allStatuses = append(allStatuses, string(s))
	}
	out.AllStatuses = allStatuses

	if p.Cache != nil {
		out.CacheUUID = p.Cache.UUID.String()
		out.ProfileURL = p.Cache.ProfileURL
		out.ProfilePictureURL = p.Cache.ProfilePictureURL
		if p.Cache.ResearchData.Company != nil {
			out.Company = *p.Cache.ResearchData.Company
		}
		if p.Cache.ResearchData.Location != nil {
			out.Location = *p.Cache.ResearchData.Location
		}
	}

	if text := rep.MessageText(); text != "" {
		out.MessageText = &text
	}
	if rep.ScheduledFor != nil {
		out.ScheduledFor = utils.ToPtr(rep.ScheduledFor.Format(time.RFC3339))
	}
	if rep.SentAt != nil {
		out.SentAt = utils.ToPtr(rep.SentAt.Format(time.RFC3339))
	}
	if rep.MessageMetadata.ICPMatchScore != nil {
		out.ICPMatchScore = rep.MessageMetadata.ICPMatchScore
	}

	return out
}

// toViewRulesResponse converts a rule set to its API shape
func toViewRulesResponse(rules ViewRules) *dto.ViewRulesResponse {
	return &dto.ViewRulesResponse{
		Version:            rules.Version,
		Preset:             string(rules.Preset),
		HideArchived:       rules.HideArchived,
		OnlyAwaitingReply:  rules.OnlyAwaitingReply,
		OnlyReplied:        rules.OnlyReplied,
		HideReplied:        rules.HideReplied,
		ActivityWithinDays: rules.ActivityWithinDays,
		AddedWithinDays:    rules.AddedWithinDays,
		MinMessageCount:    rules.MinMessageCount,
		MaxMessageCount:    rules.MaxMessageCount,
	}
}
