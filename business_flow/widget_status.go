package businessflow

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
)

// WidgetState is the single UI state a dashboard widget renders. Exactly one
// state applies per entity; the derivation predicates are evaluated in a fixed
// priority order so overlapping external states resolve deterministically.
type WidgetState string

const (
	WidgetStateEmpty        WidgetState = "empty"
	WidgetStateGenerating   WidgetState = "generating"
	WidgetStateReviewing    WidgetState = "reviewing"
	WidgetStateDraftPending WidgetState = "draftPending"
	WidgetStateActive       WidgetState = "active"
)

// DeriveICPWidgetState maps an ICP's workflow/review tuple to one widget
// state, first match wins. A nil ICP means the user has not created one yet.
func DeriveICPWidgetState(icp *models.ICP) WidgetState {
	switch {
	case icp == nil:
		return WidgetStateEmpty
	case icp.IsGenerating():
		return WidgetStateGenerating
	case icp.WorkflowStatus == models.ICPWorkflowStatusReviewing && icp.ReviewStatus == models.ReviewStatusApproved:
		return WidgetStateReviewing
	case icp.WorkflowStatus == models.ICPWorkflowStatusDraft && icp.ReviewStatus == models.ReviewStatusPending:
		return WidgetStateDraftPending
	default:
		return WidgetStateActive
	}
}

// DeriveKnowledgeWidgetState maps a knowledge entry's workflow/review tuple to
// one widget state, same priority order as the ICP widget.
func DeriveKnowledgeWidgetState(entry *models.KnowledgeEntry) WidgetState {
	switch {
	case entry == nil:
		return WidgetStateEmpty
	case entry.WorkflowStatus == models.ICPWorkflowStatusProcessing ||
		entry.WorkflowStatus == models.ICPWorkflowStatusGenerating:
		return WidgetStateGenerating
	case entry.WorkflowStatus == models.ICPWorkflowStatusReviewing && entry.ReviewStatus == models.ReviewStatusApproved:
		return WidgetStateReviewing
	case entry.WorkflowStatus == models.ICPWorkflowStatusDraft && entry.ReviewStatus == models.ReviewStatusPending:
		return WidgetStateDraftPending
	default:
		return WidgetStateActive
	}
}

// DeriveSettingsWidgetState maps profile completeness to a widget state
func DeriveSettingsWidgetState(settings *models.ProfileSettings) WidgetState {
	switch {
	case settings == nil:
		return WidgetStateEmpty
	case settings.Complete():
		return WidgetStateActive
	default:
		return WidgetStateDraftPending
	}
}

// optimisticGenerating tracks a short-lived "generating" guess per widget
// while the workflow confirms. The flag self-expires; the authoritative DB
// state always wins once the TTL lapses, so the guess can never permanently
// diverge from the backend.
type optimisticGenerating struct {
	rc  *redis.Client
	ttl time.Duration
}

func newOptimisticGenerating(rc *redis.Client) *optimisticGenerating {
	return &optimisticGenerating{rc: rc, ttl: utils.OptimisticGeneratingTTL}
}

func optimisticKey(customerID uint, widget string) string {
	return "reachly:optimistic_generating:" + widget + ":" + strconv.FormatUint(uint64(customerID), 10)
}

// set marks the widget as optimistically generating
func (o *optimisticGenerating) set(ctx context.Context, customerID uint, widget string) {
	if o.rc == nil {
		return
	}
	_ = o.rc.Set(ctx, optimisticKey(customerID, widget), "1", o.ttl).Err()
}

// active reports whether the optimistic flag is still alive
func (o *optimisticGenerating) active(ctx context.Context, customerID uint, widget string) bool {
	if o.rc == nil {
		return false
	}
	exists, err := o.rc.Exists(ctx, optimisticKey(customerID, widget)).Result()
	return err == nil && exists > 0
}

// clear drops the flag once authoritative state has caught up
func (o *optimisticGenerating) clear(ctx context.Context, customerID uint, widget string) {
	if o.rc == nil {
		return
	}
	_ = o.rc.Del(ctx, optimisticKey(customerID, widget)).Err()
}
