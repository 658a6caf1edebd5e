package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
)

const (
	widgetICP       = "icp"
	widgetKnowledge = "knowledge"
)

// SettingsFlow handles profile settings and the dashboard setup widgets
type SettingsFlow interface {
	GetSettings(ctx context.Context, customerID uint) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest, metadata *ClientMetadata) (*dto.SettingsResponse, error)
	GetDashboardStatus(ctx context.Context, customerID uint) (*dto.DashboardStatusResponse, error)
	MarkGenerating(ctx context.Context, customerID uint, widget string) error
}

// SettingsFlowImpl implements the settings business flow
type SettingsFlowImpl struct {
	settingsRepo repository.ProfileSettingsRepository
	icpRepo      repository.ICPRepository
	entryRepo    repository.KnowledgeEntryRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	optimistic   *optimisticGenerating
	db           *gorm.DB
}

// NewSettingsFlow creates a new settings flow instance
func NewSettingsFlow(
	settingsRepo repository.ProfileSettingsRepository,
	icpRepo repository.ICPRepository,
	entryRepo repository.KnowledgeEntryRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	rc *redis.Client,
) SettingsFlow {
	return &SettingsFlowImpl{
		settingsRepo: settingsRepo,
		icpRepo:      icpRepo,
		entryRepo:    entryRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		optimistic:   newOptimisticGenerating(rc),
		db:           db,
	}
}

// GetSettings returns the customer's profile settings with per-section
// completeness. A customer with no row yet gets an empty settings shape.
func (s *SettingsFlowImpl) GetSettings(ctx context.Context, customerID uint) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.ByCustomerID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_FETCH_FAILED", "Failed to fetch settings", err)
	}
	if settings == nil {
		settings = &models.ProfileSettings{CustomerID: customerID}
	}
	return toSettingsResponse(settings), nil
}

// UpdateSettings upserts the customer's profile settings. LinkedIn URL format
// is validated before any write.
func (s *SettingsFlowImpl) UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest, metadata *ClientMetadata) (*dto.SettingsResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if req.LinkedInURL != nil && *req.LinkedInURL != "" && !validLinkedInURL(*req.LinkedInURL) {
		return nil, NewBusinessError("LINKEDIN_URL_INVALID", "LinkedIn URL must be a linkedin.com profile link", ErrLinkedInURLInvalid)
	}

	settings, err := s.settingsRepo.ByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_FETCH_FAILED", "Failed to fetch settings", err)
	}
	if settings == nil {
		settings = &models.ProfileSettings{CustomerID: customer.ID}
	}

	applySettingsUpdate(settings, req)

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.settingsRepo.Upsert(txCtx, settings)
	})
	if err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update settings", err)
	}

	msg := fmt.Sprintf("Settings updated for customer %s", customer.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionSettingsUpdated, msg, true, nil, metadata)

	return toSettingsResponse(settings), nil
}

// GetDashboardStatus derives one widget state per setup entity. The optimistic
// generating flag overrides only the non-generating derivations; once the
// workflow has confirmed (or the flag expires), the DB state is authoritative.
func (s *SettingsFlowImpl) GetDashboardStatus(ctx context.Context, customerID uint) (*dto.DashboardStatusResponse, error) {
	settings, err := s.settingsRepo.ByCustomerID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_FETCH_FAILED", "Failed to fetch settings", err)
	}

	icp, err := s.icpRepo.ActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ICP_FETCH_FAILED", "Failed to fetch active ICP", err)
	}
	if icp == nil {
		// No active ICP: fall back to the most recent one so an in-flight
		// generation still surfaces on the widget.
		icps, listErr := s.icpRepo.ListByCustomer(ctx, customerID)
		if listErr != nil {
			return nil, NewBusinessError("ICP_FETCH_FAILED", "Failed to fetch ICPs", listErr)
		}
		if len(icps) > 0 {
			icp = icps[0]
		}
	}

	entries, err := s.entryRepo.ListByCustomer(ctx, customerID, false)
	if err != nil {
		return nil, NewBusinessError("KNOWLEDGE_FETCH_FAILED", "Failed to fetch knowledge entries", err)
	}
	var latestEntry *models.KnowledgeEntry
	if len(entries) > 0 {
		latestEntry = entries[0]
	}

	icpState := DeriveICPWidgetState(icp)
	if icpState != WidgetStateGenerating && s.optimistic.active(ctx, customerID, widgetICP) {
		icpState = WidgetStateGenerating
	} else if icpState == WidgetStateGenerating {
		s.optimistic.clear(ctx, customerID, widgetICP)
	}

	knowledgeState := DeriveKnowledgeWidgetState(latestEntry)
	if knowledgeState != WidgetStateGenerating && s.optimistic.active(ctx, customerID, widgetKnowledge) {
		knowledgeState = WidgetStateGenerating
	} else if knowledgeState == WidgetStateGenerating {
		s.optimistic.clear(ctx, customerID, widgetKnowledge)
	}

	return &dto.DashboardStatusResponse{
		ICPStatus:       string(icpState),
		KnowledgeStatus: string(knowledgeState),
		SettingsStatus:  string(DeriveSettingsWidgetState(settings)),
	}, nil
}

// MarkGenerating sets the optimistic generating flag for a widget. The flag
// self-expires; callers never clear it on failure paths.
func (s *SettingsFlowImpl) MarkGenerating(ctx context.Context, customerID uint, widget string) error {
	if widget != widgetICP && widget != widgetKnowledge {
		return NewBusinessError("UNKNOWN_WIDGET", "Unknown dashboard widget", ErrUnknownPreset)
	}
	s.optimistic.set(ctx, customerID, widget)
	return nil
}

// validLinkedInURL checks the minimal shape of a LinkedIn profile link
func validLinkedInURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "http://") {
		return false
	}
	return strings.Contains(lower, "linkedin.com/in/")
}

// applySettingsUpdate copies the non-nil request fields onto the settings row
func applySettingsUpdate(settings *models.ProfileSettings, req *dto.UpdateSettingsRequest) {
	if req.LinkedInURL != nil {
		settings.LinkedInURL = req.LinkedInURL
	}
	if req.FullName != nil {
		settings.FullName = req.FullName
	}
	if req.CompanyName != nil {
		settings.CompanyName = req.CompanyName
	}
	if req.CompanyWebsite != nil {
		settings.CompanyWebsite = req.CompanyWebsite
	}
	if req.ValueProposition != nil {
		settings.ValueProposition = req.ValueProposition
	}
	if req.Tone != nil {
		settings.Tone = req.Tone
	}
	if req.Signature != nil {
		settings.Signature = req.Signature
	}
	if req.CalendarLink != nil {
		settings.CalendarLink = req.CalendarLink
	}
}

// toSettingsResponse converts a settings row to its API shape
func toSettingsResponse(settings *models.ProfileSettings) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		LinkedInURL:      settings.LinkedInURL,
		FullName:         settings.FullName,
		CompanyName:      settings.CompanyName,
		CompanyWebsite:   settings.CompanyWebsite,
		ValueProposition: settings.ValueProposition,
		Tone:             settings.Tone,
		Signature:        settings.Signature,
		CalendarLink:     settings.CalendarLink,
		Sections: dto.SettingsSections{
			User:          settings.UserProfileComplete(),
			Business:      settings.BusinessProfileComplete(),
			Communication: settings.CommunicationProfileComplete(),
			Complete:      settings.Complete(),
		},
	}
}
