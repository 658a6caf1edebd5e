package repository

import (
	"context"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// ICPRepositoryImpl implements the ICPRepository interface
type ICPRepositoryImpl struct {
	*BaseRepository[models.ICP, models.ICPFilter]
}

// NewICPRepository creates a new ICP repository
func NewICPRepository(db *gorm.DB) ICPRepository {
	return &ICPRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ICP, models.ICPFilter](db),
	}
}

// ByUUID retrieves an ICP by UUID
func (r *ICPRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.ICP, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.ICPFilter{UUID: &parsed}
	icps, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(icps) == 0 {
		return nil, nil
	}

	return icps[0], nil
}

// ListByCustomer retrieves all ICPs of a customer, newest first
func (r *ICPRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*models.ICP, error) {
	filter := models.ICPFilter{CustomerID: &customerID}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// ActiveByCustomer retrieves the customer's single active ICP, nil when none
func (r *ICPRepositoryImpl) ActiveByCustomer(ctx context.Context, customerID uint) (*models.ICP, error) {
	active := true
	filter := models.ICPFilter{CustomerID: &customerID, IsActive: &active}
	icps, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(icps) == 0 {
		return nil, nil
	}

	return icps[0], nil
}

// Activate makes one ICP active and deactivates the customer's others inside
// the same transaction, keeping the one-active-per-customer invariant.
func (r *ICPRepositoryImpl) Activate(ctx context.Context, customerID, icpID uint) error {
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
	err = db.Model(&models.ICP{}).
		Where("customer_id = ? AND is_active = ?", customerID, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}

	err = db.Model(&models.ICP{}).
		Where("id = ? AND customer_id = ?", icpID, customerID).
		Updates(map[string]any{
			"is_active":       true,
			"workflow_status": models.ICPWorkflowStatusActive,
			"updated_at":      now,
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// Update updates an ICP
func (r *ICPRepositoryImpl) Update(ctx context.Context, icp models.ICP) error {
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
	icp.UpdatedAt = &now

	err = db.Save(&icp).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes an ICP permanently
func (r *ICPRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.ICP{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves ICPs based on filter criteria
func (r *ICPRepositoryImpl) ByFilter(ctx context.Context, filter models.ICPFilter, orderBy string, limit, offset int) ([]*models.ICP, error) {
	db := r.getDB(ctx)

	var icps []*models.ICP
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

	err := query.Find(&icps).Error
	if err != nil {
		return nil, err
	}

	return icps, nil
}

// Count returns the number of ICPs matching the filter
func (r *ICPRepositoryImpl) Count(ctx context.Context, filter models.ICPFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ICP{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any ICP matching the filter exists
func (r *ICPRepositoryImpl) Exists(ctx context.Context, filter models.ICPFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ICPRepositoryImpl) applyFilter(db *gorm.DB, filter models.ICPFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.WorkflowStatus != nil {
		db = db.Where("workflow_status = ?", *filter.WorkflowStatus)
	}
	if filter.ReviewStatus != nil {
		db = db.Where("review_status = ?", *filter.ReviewStatus)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
