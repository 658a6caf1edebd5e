package repository

import (
	"context"
	"time"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageCounterRepositoryImpl implements the UsageCounterRepository interface
type UsageCounterRepositoryImpl struct {
	*BaseRepository[models.UsageCounter, models.UsageCounterFilter]
}

// NewUsageCounterRepository creates a new usage counter repository
func NewUsageCounterRepository(db *gorm.DB) UsageCounterRepository {
	return &UsageCounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UsageCounter, models.UsageCounterFilter](db),
	}
}

// ListForRange retrieves a customer's daily counters within [from, to)
func (r *UsageCounterRepositoryImpl) ListForRange(ctx context.Context, customerID uint, from, to time.Time) ([]*models.UsageCounter, error) {
	filter := models.UsageCounterFilter{
		CustomerID: &customerID,
		DayFrom:    &from,
		DayTo:      &to,
	}
	return r.ByFilter(ctx, filter, "day ASC", 0, 0)
}

// Increment adds delta to one (customer, day, metric) counter, creating the
// row on first use of the day.
func (r *UsageCounterRepositoryImpl) Increment(ctx context.Context, customerID uint, day time.Time, metric models.UsageMetric, delta int64) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	counter := models.UsageCounter{
		CustomerID: customerID,
		Day:        utils.StartOfDayUTC(day),
		Metric:     metric,
		Count:      delta,
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "day"}, {Name: "metric"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("usage_counters.count + ?", delta),
			"updated_at": utils.UTCNow(),
		}),
	}).Create(&counter).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves usage counters based on filter criteria
func (r *UsageCounterRepositoryImpl) ByFilter(ctx context.Context, filter models.UsageCounterFilter, orderBy string, limit, offset int) ([]*models.UsageCounter, error) {
	db := r.getDB(ctx)

	var counters []*models.UsageCounter
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&counters).Error
	if err != nil {
		return nil, err
	}

	return counters, nil
}

// Count returns the number of counters matching the filter
func (r *UsageCounterRepositoryImpl) Count(ctx context.Context, filter models.UsageCounterFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.UsageCounter{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any counter matching the filter exists
func (r *UsageCounterRepositoryImpl) Exists(ctx context.Context, filter models.UsageCounterFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *UsageCounterRepositoryImpl) applyFilter(db *gorm.DB, filter models.UsageCounterFilter) *gorm.DB {
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Metric != nil {
		db = db.Where("metric = ?", *filter.Metric)
	}
	if filter.DayFrom != nil {
		db = db.Where("day >= ?", *filter.DayFrom)
	}
	if filter.DayTo != nil {
		db = db.Where("day < ?", *filter.DayTo)
	}

	return db
}
