package businessflow

import (
	"context"
	"time"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
	"github.com/reachlyhq/reachly/utils"
)

// UsageFlow reports dashboard activity counters
type UsageFlow interface {
	GetMonthlySummary(ctx context.Context, customerID uint) (*dto.UsageSummaryResponse, error)
	RecordUsage(ctx context.Context, customerID uint, metric models.UsageMetric, delta int64) error
}

// UsageFlowImpl implements the usage business flow
type UsageFlowImpl struct {
	usageRepo    repository.UsageCounterRepository
	customerRepo repository.CustomerRepository
}

// NewUsageFlow creates a new usage flow instance
func NewUsageFlow(usageRepo repository.UsageCounterRepository, customerRepo repository.CustomerRepository) UsageFlow {
	return &UsageFlowImpl{usageRepo: usageRepo, customerRepo: customerRepo}
}

// GetMonthlySummary sums the customer's daily counters over the current
// calendar month, one total per metric.
func (s *UsageFlowImpl) GetMonthlySummary(ctx context.Context, customerID uint) (*dto.UsageSummaryResponse, error) {
	now := utils.UTCNow()
	from := utils.StartOfMonthUTC(now)

	counters, err := s.usageRepo.ListForRange(ctx, customerID, from, now)
	if err != nil {
		return nil, NewBusinessError("USAGE_FETCH_FAILED", "Failed to fetch usage counters", err)
	}

	totals := make(map[models.UsageMetric]int64)
	for _, counter := range counters {
		totals[counter.Metric] += counter.Count
	}

	return &dto.UsageSummaryResponse{
		PeriodStart:       from.Format(time.RFC3339),
		PeriodEnd:         now.Format(time.RFC3339),
		MessagesGenerated: totals[models.UsageMetricMessagesGenerated],
		MessagesSent:      totals[models.UsageMetricMessagesSent],
		ProspectsAdded:    totals[models.UsageMetricProspectsAdded],
		RepliesReceived:   totals[models.UsageMetricRepliesReceived],
	}, nil
}

// RecordUsage bumps today's counter for one metric
func (s *UsageFlowImpl) RecordUsage(ctx context.Context, customerID uint, metric models.UsageMetric, delta int64) error {
	if !metric.Valid() {
		return NewBusinessError("INVALID_USAGE_METRIC", "Unknown usage metric", ErrInvalidStatus)
	}
	day := utils.StartOfDayUTC(utils.UTCNow())
	if err := s.usageRepo.Increment(ctx, customerID, day, metric, delta); err != nil {
		return NewBusinessError("USAGE_RECORD_FAILED", "Failed to record usage", err)
	}
	return nil
}
