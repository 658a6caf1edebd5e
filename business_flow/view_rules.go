package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
)

// ViewPreset names one of the quick-preset predicates. A preset fully
// overrides the granular rule fields while active; only one preset or the
// granular set applies at a time, never both.
type ViewPreset string

const (
	PresetNone            ViewPreset = ""
	PresetHotLeads        ViewPreset = "hotLeads"
	PresetActiveOutreach  ViewPreset = "activeOutreach"
	PresetReadyToSchedule ViewPreset = "readyToSchedule"
	PresetColdLeads       ViewPreset = "coldLeads"
	PresetCleanView       ViewPreset = "cleanView"
)

// Valid checks if the preset is one of the known quick presets
func (p ViewPreset) Valid() bool {
	switch p {
	case PresetNone, PresetHotLeads, PresetActiveOutreach,
		PresetReadyToSchedule, PresetColdLeads, PresetCleanView:
		return true
	default:
		return false
	}
}

// Preset age windows in days
const (
	hotLeadWindowDays      = 7
	coldLeadThresholdDays  = 14
)

// ViewRules is a named predicate evaluated per prospect, orthogonal to the
// status-chip filter. Granular fields and the quick preset are mutually
// exclusive: setting one side clears the other.
type ViewRules struct {
	Version int `json:"version"`

	// Granular fields
	HideArchived       bool `json:"hide_archived"`
	OnlyAwaitingReply  bool `json:"only_awaiting_reply"`
	OnlyReplied        bool `json:"only_replied"`
	HideReplied        bool `json:"hide_replied"`
	ActivityWithinDays *int `json:"activity_within_days,omitempty"`
	AddedWithinDays    *int `json:"added_within_days,omitempty"`
	MinMessageCount    *int `json:"min_message_count,omitempty"`
	MaxMessageCount    *int `json:"max_message_count,omitempty"`

	// Quick preset, empty when the granular fields apply
	Preset ViewPreset `json:"preset,omitempty"`
}

// DefaultViewRules returns the rule set applied when nothing is persisted
func DefaultViewRules() ViewRules {
	return ViewRules{Version: utils.ViewRulesSchemaVersion}
}

// HasGranularFields reports whether any granular field deviates from zero
func (r *ViewRules) HasGranularFields() bool {
	return r.HideArchived || r.OnlyAwaitingReply || r.OnlyReplied || r.HideReplied ||
		r.ActivityWithinDays != nil || r.AddedWithinDays != nil ||
		r.MinMessageCount != nil || r.MaxMessageCount != nil
}

// SetPreset activates a quick preset, clearing every granular field
func (r *ViewRules) SetPreset(preset ViewPreset) error {
	if !preset.Valid() {
		return ErrUnknownPreset
	}
	*r = ViewRules{Version: r.Version, Preset: preset}
	return nil
}

// ClearPreset drops the active preset, leaving the granular fields in force.
func (r *ViewRules) ClearPreset() {
	r.Preset = PresetNone
}

// SetGranular replaces the granular fields and disables any active preset,
// so the two sides never apply together.
func (r *ViewRules) SetGranular(update ViewRules) {
	version := r.Version
	update.Version = version
	update.Preset = PresetNone
	*r = update
}

// Matches evaluates the rule set against one prospect at the given time.
// With a preset active the granular fields are ignored entirely.
func (r *ViewRules) Matches(p *Prospect, now time.Time) bool {
	if r.Preset != PresetNone {
		return r.matchesPreset(p, now)
	}
	return r.matchesGranular(p, now)
}

func (r *ViewRules) matchesGranular(p *Prospect, now time.Time) bool {
	status := p.Status()

	if r.HideArchived && status == models.MessageStatusArchived {
		return false
	}
	if r.OnlyAwaitingReply && status != models.MessageStatusSent {
		return false
	}
	if r.OnlyReplied && status != models.MessageStatusReplyReceived && status != models.MessageStatusReplySent {
		return false
	}
	if r.HideReplied && (status == models.MessageStatusReplyReceived || status == models.MessageStatusReplySent) {
		return false
	}
	if r.ActivityWithinDays != nil {
		updatedAt := p.Representative.CreatedAt
		if p.Representative.UpdatedAt != nil {
			updatedAt = *p.Representative.UpdatedAt
		}
		if now.Sub(updatedAt) > time.Duration(*r.ActivityWithinDays)*24*time.Hour {
			return false
		}
	}
	if r.AddedWithinDays != nil {
		if now.Sub(p.Representative.CreatedAt) > time.Duration(*r.AddedWithinDays)*24*time.Hour {
			return false
		}
	}
	if r.MinMessageCount != nil && p.MessageCount < *r.MinMessageCount {
		return false
	}
	if r.MaxMessageCount != nil && p.MessageCount > *r.MaxMessageCount {
		return false
	}

	return true
}

// matchesPreset evaluates the active quick preset.
//
// Known inconsistency carried over deliberately: cold leads age sent rows by
// updated_at while hot leads age replied rows by created_at. Unifying the
// timestamps changes which prospects surface, so it stays until product
// settles which field is authoritative for each.
func (r *ViewRules) matchesPreset(p *Prospect, now time.Time) bool {
	status := p.Status()

	switch r.Preset {
	case PresetHotLeads:
		if status != models.MessageStatusReplyReceived {
			return false
		}
		return now.Sub(p.Representative.CreatedAt) <= hotLeadWindowDays*24*time.Hour
	case PresetActiveOutreach:
		return status.InActivePipeline()
	case PresetReadyToSchedule:
		if status == models.MessageStatusGenerated {
			return true
		}
		// Archived without ever having been contacted still needs a
		// decision; archived-after-contact does not.
		return status == models.MessageStatusArchived && !p.EverContacted()
	case PresetColdLeads:
		if status != models.MessageStatusSent {
			return false
		}
		updatedAt := p.Representative.CreatedAt
		if p.Representative.UpdatedAt != nil {
			updatedAt = *p.Representative.UpdatedAt
		}
		return now.Sub(updatedAt) >= coldLeadThresholdDays*24*time.Hour
	case PresetCleanView:
		return status != models.MessageStatusArchived && status != models.MessageStatusFailed
	default:
		return true
	}
}

// ApplyViewRules filters prospects through the rule set
func ApplyViewRules(prospects []*Prospect, rules ViewRules, now time.Time) []*Prospect {
	out := make([]*Prospect, 0, len(prospects))
	for _, p := range prospects {
		if rules.Matches(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// ViewRulesStore persists rule sets keyed by installation ID (an opaque
// client token, not the user identity) so a view configuration survives
// reloads on the same installation.
type ViewRulesStore struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewViewRulesStore creates a new view rules store
func NewViewRulesStore(rc *redis.Client, ttl time.Duration) *ViewRulesStore {
	return &ViewRulesStore{rc: rc, ttl: ttl}
}

func viewRulesKey(installationID string) string {
	return "reachly:view_rules:" + installationID
}

// Load retrieves the persisted rules for an installation. A missing key or a
// schema-version mismatch yields the defaults; guessing a migration for an
// old shape is worse than starting clean.
func (s *ViewRulesStore) Load(ctx context.Context, installationID string) (ViewRules, error) {
	if installationID == "" {
		return DefaultViewRules(), ErrInstallationIDRequired
	}
	if s.rc == nil {
		return DefaultViewRules(), ErrCacheNotAvailable
	}

	raw, err := s.rc.Get(ctx, viewRulesKey(installationID)).Result()
	if err == redis.Nil {
		return DefaultViewRules(), nil
	}
	if err != nil {
		return DefaultViewRules(), fmt.Errorf("failed to load view rules: %w", err)
	}

	var rules ViewRules
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return DefaultViewRules(), nil
	}
	if rules.Version != utils.ViewRulesSchemaVersion {
		return DefaultViewRules(), nil
	}

	return rules, nil
}

// Save persists the rules for an installation
func (s *ViewRulesStore) Save(ctx context.Context, installationID string, rules ViewRules) error {
	if installationID == "" {
		return ErrInstallationIDRequired
	}
	if s.rc == nil {
		return ErrCacheNotAvailable
	}

	rules.Version = utils.ViewRulesSchemaVersion
	encoded, err := json.Marshal(rules)
	if err != nil {
		return err
	}

	if err := s.rc.Set(ctx, viewRulesKey(installationID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save view rules: %w", err)
	}

	return nil
}
