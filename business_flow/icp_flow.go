package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/services"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
)

// ICPFlow handles ideal customer profile management. Writes fan out to the
// automation gateway, which owns the generation pipeline; the local row is the
// dashboard's read model.
type ICPFlow interface {
	CreateICP(ctx context.Context, req *dto.CreateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error)
	ListICPs(ctx context.Context, customerID uint) (*dto.ListICPsResponse, error)
	GetICP(ctx context.Context, customerID uint, icpUUID string) (*dto.ICPResponse, error)
	UpdateICP(ctx context.Context, req *dto.UpdateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error)
	ApproveICP(ctx context.Context, req *dto.ApproveICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error)
	ActivateICP(ctx context.Context, req *dto.ActivateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error)
	DeleteICP(ctx context.Context, req *dto.DeleteICPRequest, metadata *ClientMetadata) error
}

// ICPFlowImpl implements the ICP business flow
type ICPFlowImpl struct {
	icpRepo      repository.ICPRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	automation   *services.AutomationClient
	db           *gorm.DB
	rc           *redis.Client
}

// NewICPFlow creates a new ICP flow instance
func NewICPFlow(
	icpRepo repository.ICPRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	automation *services.AutomationClient,
	db *gorm.DB,
	rc *redis.Client,
) ICPFlow {
	return &ICPFlowImpl{
		icpRepo:      icpRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		automation:   automation,
		db:           db,
		rc:           rc,
	}
}

// CreateICP stores the form input and asks the gateway to start generation
func (s *ICPFlowImpl) CreateICP(ctx context.Context, req *dto.CreateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if req.Title == "" {
		return nil, NewBusinessError("ICP_TITLE_REQUIRED", "ICP title is required", ErrICPTitleRequired)
	}

	icp := &models.ICP{
		CustomerID:     customer.ID,
		Title:          req.Title,
		WorkflowStatus: models.ICPWorkflowStatusForm,
		ReviewStatus:   models.ReviewStatusPending,
		Industries:     req.Industries,
		Roles:          req.Roles,
		CompanySizes:   req.CompanySizes,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.icpRepo.Save(txCtx, icp)
	})
	if err != nil {
		return nil, NewBusinessError("ICP_CREATE_FAILED", "Failed to create ICP", err)
	}

	// Generation is asynchronous; a gateway dispatch failure leaves the row
	// in form state, retriable from the UI.
	_, dispatchErr := s.automation.DispatchAction(ctx, services.ActionRequest{
		Action: "icp_generate",
		UserID: customer.UUID.String(),
		Data: map[string]any{
			"icpId":        icp.UUID.String(),
			"title":        icp.Title,
			"industries":   []string(icp.Industries),
			"roles":        []string(icp.Roles),
			"companySizes": []string(icp.CompanySizes),
		},
	})
	if dispatchErr == nil {
		_ = s.icpRepo.Update(ctx, withICPStatus(*icp, models.ICPWorkflowStatusGenerating))
		icp.WorkflowStatus = models.ICPWorkflowStatusGenerating
	}

	msg := fmt.Sprintf("ICP created: %s", icp.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionICPCreated, msg, true, nil, metadata)

	return toICPResponse(icp), nil
}

// ListICPs returns every ICP owned by the customer
func (s *ICPFlowImpl) ListICPs(ctx context.Context, customerID uint) (*dto.ListICPsResponse, error) {
	icps, err := s.icpRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ICP_LIST_FAILED", "Failed to list ICPs", err)
	}

	out := make([]dto.ICPDTO, 0, len(icps))
	for _, icp := range icps {
		out = append(out, toICPDTO(icp))
	}

	return &dto.ListICPsResponse{ICPs: out}, nil
}

// GetICP returns one ICP by uuid
func (s *ICPFlowImpl) GetICP(ctx context.Context, customerID uint, icpUUID string) (*dto.ICPResponse, error) {
	icp, err := s.getOwnedICP(ctx, icpUUID, customerID)
	if err != nil {
		return nil, err
	}
	return toICPResponse(icp), nil
}

// UpdateICP saves user edits to an ICP's form fields and narrative
func (s *ICPFlowImpl) UpdateICP(ctx context.Context, req *dto.UpdateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	icp, err := s.getOwnedICP(ctx, req.ICPUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, NewBusinessError("ICP_TITLE_REQUIRED", "ICP title is required", ErrICPTitleRequired)
		}
		icp.Title = *req.Title
	}
	if req.Industries != nil {
		icp.Industries = req.Industries
	}
	if req.Roles != nil {
		icp.Roles = req.Roles
	}
	if req.CompanySizes != nil {
		icp.CompanySizes = req.CompanySizes
	}

	if err := s.icpRepo.Update(ctx, *icp); err != nil {
		return nil, NewBusinessError("ICP_UPDATE_FAILED", "Failed to update ICP", err)
	}

	msg := fmt.Sprintf("ICP updated: %s", icp.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionICPUpdated, msg, true, nil, metadata)

	return toICPResponse(icp), nil
}

// ApproveICP marks a reviewed ICP as approved. Only ICPs sitting in the
// reviewing stage accept approval; the gateway is told so its workflow can
// move on, but the local review status is the user-facing truth either way.
func (s *ICPFlowImpl) ApproveICP(ctx context.Context, req *dto.ApproveICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	icp, err := s.getOwnedICP(ctx, req.ICPUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if icp.WorkflowStatus != models.ICPWorkflowStatusReviewing {
		return nil, NewBusinessError("ICP_NOT_REVIEWABLE", "Only ICPs under review can be approved", ErrICPNotReviewable)
	}

	icp.ReviewStatus = models.ReviewStatusApproved
	if err := s.icpRepo.Update(ctx, *icp); err != nil {
		return nil, NewBusinessError("ICP_APPROVE_FAILED", "Failed to approve ICP", err)
	}

	_, _ = s.automation.DispatchAction(ctx, services.ActionRequest{
		Action: "icp_approve",
		UserID: customer.UUID.String(),
		Data:   map[string]any{"icpId": icp.UUID.String()},
	})

	msg := fmt.Sprintf("ICP approved: %s", icp.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionICPApproved, msg, true, nil, metadata)

	return toICPResponse(icp), nil
}

// ActivateICP switches the active ICP. Only approved drafts can activate; the
// previous active ICP is deactivated in the same transaction.
func (s *ICPFlowImpl) ActivateICP(ctx context.Context, req *dto.ActivateICPRequest, metadata *ClientMetadata) (*dto.ICPResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	icp, err := s.getOwnedICP(ctx, req.ICPUUID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !icp.CanActivate() {
		return nil, NewBusinessError("ICP_NOT_APPROVED", "Only approved ICPs can be activated", ErrICPNotApproved)
	}

	if err := s.icpRepo.Activate(ctx, customer.ID, icp.ID); err != nil {
		return nil, NewBusinessError("ICP_ACTIVATE_FAILED", "Failed to activate ICP", err)
	}
	icp.IsActive = true
	icp.WorkflowStatus = models.ICPWorkflowStatusActive

	msg := fmt.Sprintf("ICP activated: %s", icp.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionICPActivated, msg, true, nil, metadata)

	return toICPResponse(icp), nil
}

// DeleteICP removes an ICP locally and tells the gateway to drop its workflow
// state. A gateway failure does not resurrect the row; the local delete is the
// user-facing truth.
func (s *ICPFlowImpl) DeleteICP(ctx context.Context, req *dto.DeleteICPRequest, metadata *ClientMetadata) error {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	icp, err := s.getOwnedICP(ctx, req.ICPUUID, req.CustomerID)
	if err != nil {
		return err
	}

	if err := s.icpRepo.Delete(ctx, icp.ID); err != nil {
		return NewBusinessError("ICP_DELETE_FAILED", "Failed to delete ICP", err)
	}

	_, _ = s.automation.DispatchAction(ctx, services.ActionRequest{
		Action: "icp_delete",
		UserID: customer.UUID.String(),
		Data:   map[string]any{"icpId": icp.UUID.String()},
	})

	msg := fmt.Sprintf("ICP deleted: %s", icp.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &customer, models.AuditActionICPDeleted, msg, true, nil, metadata)

	return nil
}

// getOwnedICP loads an ICP and checks customer ownership
func (s *ICPFlowImpl) getOwnedICP(ctx context.Context, icpUUID string, customerID uint) (*models.ICP, error) {
	icp, err := s.icpRepo.ByUUID(ctx, icpUUID)
	if err != nil {
		return nil, NewBusinessError("ICP_LOOKUP_FAILED", "Failed to lookup ICP", err)
	}
	if icp == nil {
		return nil, NewBusinessError("ICP_NOT_FOUND", "ICP not found", ErrICPNotFound)
	}
	if icp.CustomerID != customerID {
		return nil, NewBusinessError("ICP_NOT_FOUND", "ICP not found", ErrICPNotFound)
	}
	return icp, nil
}

func withICPStatus(icp models.ICP, status models.ICPWorkflowStatus) models.ICP {
	icp.WorkflowStatus = status
	return icp
}

// toICPDTO converts an ICP to its API shape
func toICPDTO(icp *models.ICP) dto.ICPDTO {
	out := dto.ICPDTO{
		UUID:           icp.UUID.String(),
		Title:          icp.Title,
		WorkflowStatus: string(icp.WorkflowStatus),
		ReviewStatus:   string(icp.ReviewStatus),
		IsActive:       icp.IsActive,
		Industries:     icp.Industries,
		Roles:          icp.Roles,
		CompanySizes:   icp.CompanySizes,
		PainPoints:     icp.ICPData.PainPoints,
		BuyingSignals:  icp.ICPData.BuyingSignals,
		CreatedAt:      icp.CreatedAt.Format(time.RFC3339),
	}
	if icp.ICPData.Summary != nil {
		out.Summary = icp.ICPData.Summary
	}
	if icp.ICPData.Messaging != nil {
		out.Messaging = icp.ICPData.Messaging
	}
	return out
}

func toICPResponse(icp *models.ICP) *dto.ICPResponse {
	return &dto.ICPResponse{ICP: toICPDTO(icp)}
}
