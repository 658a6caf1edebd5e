package repository

import (
	"context"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// ResearchCacheRepositoryImpl implements the ResearchCacheRepository interface
type ResearchCacheRepositoryImpl struct {
	*BaseRepository[models.ResearchCache, models.ResearchCacheFilter]
}

// NewResearchCacheRepository creates a new research cache repository
func NewResearchCacheRepository(db *gorm.DB) ResearchCacheRepository {
	return &ResearchCacheRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ResearchCache, models.ResearchCacheFilter](db),
	}
}

// ByUUID retrieves a research cache row by UUID
func (r *ResearchCacheRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.ResearchCache, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.ResearchCacheFilter{UUID: &parsed, IncludeDeleted: true}
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// SoftDelete marks a research cache row deleted; log rows referencing it stop
// surfacing in prospect views immediately.
func (r *ResearchCacheRepositoryImpl) SoftDelete(ctx context.Context, id uint) error {
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

	now := utils.UTCNow()
	err = db.Model(&models.ResearchCache{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at": now,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves research cache rows based on filter criteria
func (r *ResearchCacheRepositoryImpl) ByFilter(ctx context.Context, filter models.ResearchCacheFilter, orderBy string, limit, offset int) ([]*models.ResearchCache, error) {
	db := r.getDB(ctx)

	var rows []*models.ResearchCache
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

// Count returns the number of research cache rows matching the filter
func (r *ResearchCacheRepositoryImpl) Count(ctx context.Context, filter models.ResearchCacheFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ResearchCache{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any research cache row matching the filter exists
func (r *ResearchCacheRepositoryImpl) Exists(ctx context.Context, filter models.ResearchCacheFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ResearchCacheRepositoryImpl) applyFilter(db *gorm.DB, filter models.ResearchCacheFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProfileURL != nil {
		db = db.Where("profile_url = ?", *filter.ProfileURL)
	}
	if filter.ProfileType != nil {
		db = db.Where("profile_type = ?", *filter.ProfileType)
	}
	if !filter.IncludeDeleted {
		db = db.Where("deleted_at IS NULL")
	}

	return db
}
