package repository

import (
	"context"
	"time"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// KnowledgeEntryRepositoryImpl implements the KnowledgeEntryRepository interface
type KnowledgeEntryRepositoryImpl struct {
	*BaseRepository[models.KnowledgeEntry, models.KnowledgeEntryFilter]
}

// NewKnowledgeEntryRepository creates a new knowledge entry repository
func NewKnowledgeEntryRepository(db *gorm.DB) KnowledgeEntryRepository {
	return &KnowledgeEntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.KnowledgeEntry, models.KnowledgeEntryFilter](db),
	}
}

// ByUUID retrieves a knowledge entry by UUID, deleted rows included so the
// restore flow can find them.
func (r *KnowledgeEntryRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.KnowledgeEntry, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.KnowledgeEntryFilter{UUID: &parsed, IncludeDeleted: true}
	entries, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return entries[0], nil
}

// ListByCustomer retrieves a customer's knowledge entries, newest first
func (r *KnowledgeEntryRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, includeDeleted bool) ([]*models.KnowledgeEntry, error) {
	filter := models.KnowledgeEntryFilter{CustomerID: &customerID, IncludeDeleted: includeDeleted}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// Update updates a knowledge entry
func (r *KnowledgeEntryRepositoryImpl) Update(ctx context.Context, entry models.KnowledgeEntry) error {
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
	entry.UpdatedAt = &now

	err = db.Save(&entry).Error
	if err != nil {
		return err
	}

	return nil
}

// SoftDelete marks the entry deleted with its restore deadline
func (r *KnowledgeEntryRepositoryImpl) SoftDelete(ctx context.Context, id uint, deletedAt, canRestoreUntil time.Time) error {
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

	err = db.Model(&models.KnowledgeEntry{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at":        deletedAt,
			"can_restore_until": canRestoreUntil,
			"updated_at":        utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// Restore clears the soft-delete marker and restore deadline
func (r *KnowledgeEntryRepositoryImpl) Restore(ctx context.Context, id uint) error {
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

	err = db.Model(&models.KnowledgeEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at":        nil,
			"can_restore_until": nil,
			"updated_at":        utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves knowledge entries based on filter criteria
func (r *KnowledgeEntryRepositoryImpl) ByFilter(ctx context.Context, filter models.KnowledgeEntryFilter, orderBy string, limit, offset int) ([]*models.KnowledgeEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.KnowledgeEntry
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

	err := query.Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Count returns the number of knowledge entries matching the filter
func (r *KnowledgeEntryRepositoryImpl) Count(ctx context.Context, filter models.KnowledgeEntryFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.KnowledgeEntry{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any knowledge entry matching the filter exists
func (r *KnowledgeEntryRepositoryImpl) Exists(ctx context.Context, filter models.KnowledgeEntryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *KnowledgeEntryRepositoryImpl) applyFilter(db *gorm.DB, filter models.KnowledgeEntryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.EntryType != nil {
		db = db.Where("entry_type = ?", *filter.EntryType)
	}
	if filter.WorkflowStatus != nil {
		db = db.Where("workflow_status = ?", *filter.WorkflowStatus)
	}
	if filter.ReviewStatus != nil {
		db = db.Where("review_status = ?", *filter.ReviewStatus)
	}
	if !filter.IncludeDeleted {
		db = db.Where("deleted_at IS NULL")
	}

	return db
}
