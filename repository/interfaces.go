// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/reachlyhq/reachly/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	MarkDeleted(ctx context.Context, customerID uint, deletedAt, softDeleteUntil time.Time) error
	DeletionHistoryByEmail(ctx context.Context, email string) ([]*models.Customer, error)
}

// MessageGenerationLogRepository defines operations for message generation logs
type MessageGenerationLogRepository interface {
	Repository[models.MessageGenerationLog, models.MessageGenerationLogFilter]
	ByUUID(ctx context.Context, uuid string) (*models.MessageGenerationLog, error)
	ListForProjection(ctx context.Context, customerID uint) ([]*models.MessageGenerationLog, error)
	UpdateStatus(ctx context.Context, id uint, status models.MessageStatus) error
	UpdateScheduledFor(ctx context.Context, id uint, scheduledFor time.Time, status models.MessageStatus) error
	UpdateEditedMessage(ctx context.Context, id uint, edited string) error
	ArchiveByResearchCacheID(ctx context.Context, customerID, researchCacheID uint) error
	CountInStatuses(ctx context.Context, customerID uint, statuses []models.MessageStatus) (int64, error)
}

// ResearchCacheRepository defines operations for research cache rows
type ResearchCacheRepository interface {
	Repository[models.ResearchCache, models.ResearchCacheFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ResearchCache, error)
	SoftDelete(ctx context.Context, id uint) error
}

// ICPRepository defines operations for ideal customer profiles
type ICPRepository interface {
	Repository[models.ICP, models.ICPFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ICP, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]*models.ICP, error)
	ActiveByCustomer(ctx context.Context, customerID uint) (*models.ICP, error)
	Activate(ctx context.Context, customerID, icpID uint) error
	Update(ctx context.Context, icp models.ICP) error
	Delete(ctx context.Context, id uint) error
}

// KnowledgeEntryRepository defines operations for knowledge base entries
type KnowledgeEntryRepository interface {
	Repository[models.KnowledgeEntry, models.KnowledgeEntryFilter]
	ByUUID(ctx context.Context, uuid string) (*models.KnowledgeEntry, error)
	ListByCustomer(ctx context.Context, customerID uint, includeDeleted bool) ([]*models.KnowledgeEntry, error)
	Update(ctx context.Context, entry models.KnowledgeEntry) error
	SoftDelete(ctx context.Context, id uint, deletedAt, canRestoreUntil time.Time) error
	Restore(ctx context.Context, id uint) error
}

// ProfileSettingsRepository defines operations for per-customer settings
type ProfileSettingsRepository interface {
	Repository[models.ProfileSettings, models.ProfileSettingsFilter]
	ByCustomerID(ctx context.Context, customerID uint) (*models.ProfileSettings, error)
	Upsert(ctx context.Context, settings *models.ProfileSettings) error
}

// UsageCounterRepository defines operations for usage counters
type UsageCounterRepository interface {
	Repository[models.UsageCounter, models.UsageCounterFilter]
	ListForRange(ctx context.Context, customerID uint, from, to time.Time) ([]*models.UsageCounter, error)
	Increment(ctx context.Context, customerID uint, day time.Time, metric models.UsageMetric, delta int64) error
}

// LinkedAccountRepository defines operations for linked provider accounts
type LinkedAccountRepository interface {
	Repository[models.LinkedAccount, models.LinkedAccountFilter]
	ByUUID(ctx context.Context, uuid string) (*models.LinkedAccount, error)
	CurrentByCustomer(ctx context.Context, customerID uint) (*models.LinkedAccount, error)
	ByProviderAccountID(ctx context.Context, providerAccountID string) (*models.LinkedAccount, error)
	Update(ctx context.Context, account models.LinkedAccount) error
	Delete(ctx context.Context, id uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
