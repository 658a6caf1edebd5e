package repository

import (
	"context"
	"errors"
	"time"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// MessageGenerationLogRepositoryImpl implements the MessageGenerationLogRepository interface
type MessageGenerationLogRepositoryImpl struct {
	*BaseRepository[models.MessageGenerationLog, models.MessageGenerationLogFilter]
}

// NewMessageGenerationLogRepository creates a new message generation log repository
func NewMessageGenerationLogRepository(db *gorm.DB) MessageGenerationLogRepository {
	return &MessageGenerationLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MessageGenerationLog, models.MessageGenerationLogFilter](db),
	}
}

// ByID retrieves a log row by ID with its research cache preloaded
func (r *MessageGenerationLogRepositoryImpl) ByID(ctx context.Context, id uint) (*models.MessageGenerationLog, error) {
	db := r.getDB(ctx)

	var log models.MessageGenerationLog
	err := db.Preload("ResearchCache").Last(&log, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &log, nil
}

// ByUUID retrieves a log row by UUID
func (r *MessageGenerationLogRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.MessageGenerationLog, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.MessageGenerationLogFilter{UUID: &parsedUUID}
	logs, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(logs) == 0 {
		return nil, nil
	}

	return logs[0], nil
}

// ListForProjection retrieves every log row for a customer with its research
// cache joined, excluding rows whose cache has been soft-deleted. Rows with a
// null research_cache_id are kept; the projection renders them as still
// researching. This is the single fetch that feeds the aggregation pipeline.
func (r *MessageGenerationLogRepositoryImpl) ListForProjection(ctx context.Context, customerID uint) ([]*models.MessageGenerationLog, error) {
	db := r.getDB(ctx)

	var logs []*models.MessageGenerationLog
	err := db.
		Joins("LEFT JOIN research_cache ON research_cache.id = message_generation_logs.research_cache_id").
		Where("message_generation_logs.customer_id = ?", customerID).
		Where("message_generation_logs.research_cache_id IS NULL OR research_cache.deleted_at IS NULL").
		Preload("ResearchCache").
		Order("message_generation_logs.created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// UpdateStatus updates only the status of a log row
func (r *MessageGenerationLogRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.MessageStatus) error {
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

	updates := map[string]any{
		"message_status": status,
		"updated_at":     utils.UTCNow(),
	}
	if status == models.MessageStatusSent {
		updates["sent_at"] = utils.UTCNow()
	}

	err = db.Model(&models.MessageGenerationLog{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateScheduledFor sets the queued send time and moves the row to the given
// pipeline status in one write.
func (r *MessageGenerationLogRepositoryImpl) UpdateScheduledFor(ctx context.Context, id uint, scheduledFor time.Time, status models.MessageStatus) error {
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

	err = db.Model(&models.MessageGenerationLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"scheduled_for":  scheduledFor,
			"message_status": status,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateEditedMessage stores the user's edit of the generated draft
func (r *MessageGenerationLogRepositoryImpl) UpdateEditedMessage(ctx context.Context, id uint, edited string) error {
	db := r.getDB(ctx)
	return db.Model(&models.MessageGenerationLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"edited_message": edited,
			"updated_at":     utils.UTCNow(),
		}).Error
}

// ArchiveByResearchCacheID archives every non-terminal log row of one prospect
func (r *MessageGenerationLogRepositoryImpl) ArchiveByResearchCacheID(ctx context.Context, customerID, researchCacheID uint) error {
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

	err = db.Model(&models.MessageGenerationLog{}).
		Where("customer_id = ? AND research_cache_id = ?", customerID, researchCacheID).
		Where("message_status NOT IN ?", []models.MessageStatus{models.MessageStatusArchived, models.MessageStatusFailed}).
		Updates(map[string]any{
			"message_status": models.MessageStatusArchived,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// CountInStatuses counts a customer's rows currently in any of the given statuses
func (r *MessageGenerationLogRepositoryImpl) CountInStatuses(ctx context.Context, customerID uint, statuses []models.MessageStatus) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.MessageGenerationLog{}).
		Where("customer_id = ?", customerID).
		Where("message_status IN ?", statuses).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ByFilter retrieves log rows based on filter criteria
func (r *MessageGenerationLogRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageGenerationLogFilter, orderBy string, limit, offset int) ([]*models.MessageGenerationLog, error) {
	db := r.getDB(ctx)

	var logs []*models.MessageGenerationLog
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

	query = query.Preload("ResearchCache")

	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Count returns the number of log rows matching the filter
func (r *MessageGenerationLogRepositoryImpl) Count(ctx context.Context, filter models.MessageGenerationLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.MessageGenerationLog{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any log row matching the filter exists
func (r *MessageGenerationLogRepositoryImpl) Exists(ctx context.Context, filter models.MessageGenerationLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *MessageGenerationLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.MessageGenerationLogFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ResearchCacheID != nil {
		db = db.Where("research_cache_id = ?", *filter.ResearchCacheID)
	}
	if filter.Status != nil {
		db = db.Where("message_status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("message_status IN ?", filter.Statuses)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.UpdatedAfter != nil {
		db = db.Where("updated_at > ?", *filter.UpdatedAfter)
	}
	if filter.UpdatedBefore != nil {
		db = db.Where("updated_at < ?", *filter.UpdatedBefore)
	}

	return db
}
