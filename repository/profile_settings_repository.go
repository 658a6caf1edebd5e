package repository

import (
	"context"

	"github.com/reachlyhq/reachly/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileSettingsRepositoryImpl implements the ProfileSettingsRepository interface
type ProfileSettingsRepositoryImpl struct {
	*BaseRepository[models.ProfileSettings, models.ProfileSettingsFilter]
}

// NewProfileSettingsRepository creates a new profile settings repository
func NewProfileSettingsRepository(db *gorm.DB) ProfileSettingsRepository {
	return &ProfileSettingsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProfileSettings, models.ProfileSettingsFilter](db),
	}
}

// ByCustomerID retrieves a customer's settings row, nil when none exists yet
func (r *ProfileSettingsRepositoryImpl) ByCustomerID(ctx context.Context, customerID uint) (*models.ProfileSettings, error) {
	filter := models.ProfileSettingsFilter{CustomerID: &customerID}
	rows, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// Upsert creates or replaces the customer's single settings row
func (r *ProfileSettingsRepositoryImpl) Upsert(ctx context.Context, settings *models.ProfileSettings) error {
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

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"linkedin_url", "full_name",
			"company_name", "company_website", "value_proposition",
			"tone", "signature", "calendar_link",
			"updated_at",
		}),
	}).Create(settings).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves settings rows based on filter criteria
func (r *ProfileSettingsRepositoryImpl) ByFilter(ctx context.Context, filter models.ProfileSettingsFilter, orderBy string, limit, offset int) ([]*models.ProfileSettings, error) {
	db := r.getDB(ctx)

	var rows []*models.ProfileSettings
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

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of settings rows matching the filter
func (r *ProfileSettingsRepositoryImpl) Count(ctx context.Context, filter models.ProfileSettingsFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ProfileSettings{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any settings row matching the filter exists
func (r *ProfileSettingsRepositoryImpl) Exists(ctx context.Context, filter models.ProfileSettingsFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ProfileSettingsRepositoryImpl) applyFilter(db *gorm.DB, filter models.ProfileSettingsFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}

	return db
}
