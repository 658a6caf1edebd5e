package repository

import (
	"context"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
	"gorm.io/gorm"
)

// LinkedAccountRepositoryImpl implements the LinkedAccountRepository interface
type LinkedAccountRepositoryImpl struct {
	*BaseRepository[models.LinkedAccount, models.LinkedAccountFilter]
}

// NewLinkedAccountRepository creates a new linked account repository
func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepository {
	return &LinkedAccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LinkedAccount, models.LinkedAccountFilter](db),
	}
}

// ByUUID retrieves a linked account by UUID
func (r *LinkedAccountRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.LinkedAccount, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.LinkedAccountFilter{UUID: &parsed}
	accounts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// CurrentByCustomer retrieves the customer's most recent linked account
// regardless of status; the flow decides what connection state means.
func (r *LinkedAccountRepositoryImpl) CurrentByCustomer(ctx context.Context, customerID uint) (*models.LinkedAccount, error) {
	filter := models.LinkedAccountFilter{CustomerID: &customerID}
	accounts, err := r.ByFilter(ctx, filter, "created_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// ByProviderAccountID retrieves a linked account by its provider-side id,
// used for duplicate-link conflict detection across customers.
func (r *LinkedAccountRepositoryImpl) ByProviderAccountID(ctx context.Context, providerAccountID string) (*models.LinkedAccount, error) {
	filter := models.LinkedAccountFilter{ProviderAccountID: &providerAccountID}
	accounts, err := r.ByFilter(ctx, filter, "created_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// Update updates a linked account
func (r *LinkedAccountRepositoryImpl) Update(ctx context.Context, account models.LinkedAccount) error {
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
	account.UpdatedAt = &now

	err = db.Save(&account).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a linked account record, used to roll back a partially
// created link when the provider reports a conflict.
func (r *LinkedAccountRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.LinkedAccount{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves linked accounts based on filter criteria
func (r *LinkedAccountRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkedAccountFilter, orderBy string, limit, offset int) ([]*models.LinkedAccount, error) {
	db := r.getDB(ctx)

	var accounts []*models.LinkedAccount
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

	err := query.Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Count returns the number of linked accounts matching the filter
func (r *LinkedAccountRepositoryImpl) Count(ctx context.Context, filter models.LinkedAccountFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.LinkedAccount{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any linked account matching the filter exists
func (r *LinkedAccountRepositoryImpl) Exists(ctx context.Context, filter models.LinkedAccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *LinkedAccountRepositoryImpl) applyFilter(db *gorm.DB, filter models.LinkedAccountFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProviderAccountID != nil {
		db = db.Where("provider_account_id = ?", *filter.ProviderAccountID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
