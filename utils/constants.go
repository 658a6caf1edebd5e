package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Dashboard constants
const (
	// ProspectPageSize is the fixed page size for prospect list views
	ProspectPageSize = 20

	// OptimisticGeneratingTTL is how long an optimistic "generating" flag
	// survives before falling back to authoritative database state
	OptimisticGeneratingTTL = 60 * time.Second

	// KnowledgeRestoreWindow is how long a soft-deleted knowledge entry
	// stays restorable
	KnowledgeRestoreWindow = 30 * 24 * time.Hour

	// AccountDeletionGracePeriod is how long a soft-deleted account stays
	// recoverable before permanent removal
	AccountDeletionGracePeriod = 30 * 24 * time.Hour

	// ActionLockTTL bounds the per-prospect in-flight write lock so a
	// crashed request cannot wedge a prospect forever
	ActionLockTTL = 30 * time.Second

	// ViewRulesSchemaVersion is bumped whenever the persisted rule shape
	// changes; stored rules with another version are discarded on load
	ViewRulesSchemaVersion = 1
)
