package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/utils"
)

func prospectWithStatus(status models.MessageStatus, createdAt time.Time) *Prospect {
	p := &Prospect{
		Representative: logRow(1, status, createdAt),
		MessageCount:   1,
		AllStatuses:    []models.MessageStatus{status},
	}
	return p
}

func TestViewPresetValid(t *testing.T) {
	valid := []ViewPreset{PresetNone, PresetHotLeads, PresetActiveOutreach, PresetReadyToSchedule, PresetColdLeads, PresetCleanView}
	for _, p := range valid {
		assert.True(t, p.Valid(), "preset %q", p)
	}
	assert.False(t, ViewPreset("warmLeads").Valid())
}

func TestViewRulesSetPresetClearsGranular(t *testing.T) {
	rules := DefaultViewRules()
	rules.HideArchived = true
	rules.MinMessageCount = intPtr(2)

	require.NoError(t, rules.SetPreset(PresetHotLeads))

	assert.Equal(t, PresetHotLeads, rules.Preset)
	assert.False(t, rules.HasGranularFields())
	assert.Equal(t, utils.ViewRulesSchemaVersion, rules.Version)
}

func TestViewRulesSetPresetUnknown(t *testing.T) {
	rules := DefaultViewRules()
	err := rules.SetPreset(ViewPreset("warmLeads"))
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, PresetNone, rules.Preset)
}

func TestViewRulesSetGranularClearsPreset(t *testing.T) {
	rules := DefaultViewRules()
	require.NoError(t, rules.SetPreset(PresetColdLeads))

	rules.SetGranular(ViewRules{HideArchived: true})

	assert.Equal(t, PresetNone, rules.Preset)
	assert.True(t, rules.HideArchived)
	assert.Equal(t, utils.ViewRulesSchemaVersion, rules.Version)
}

func TestViewRulesDefaultMatchesEverything(t *testing.T) {
	now := time.Now().UTC()
	rules := DefaultViewRules()

	for _, s := range []models.MessageStatus{
		models.MessageStatusAnalysingProspect,
		models.MessageStatusGenerated,
		models.MessageStatusSent,
		models.MessageStatusArchived,
		models.MessageStatusFailed,
	} {
		assert.True(t, rules.Matches(prospectWithStatus(s, now), now), "status %q", s)
	}
}

func TestViewRulesGranular(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rules    ViewRules
		prospect *Prospect
		expected bool
	}{
		{
			"hide archived drops archived",
			ViewRules{HideArchived: true},
			prospectWithStatus(models.MessageStatusArchived, now),
			false,
		},
		{
			"hide archived keeps the rest",
			ViewRules{HideArchived: true},
			prospectWithStatus(models.MessageStatusSent, now),
			true,
		},
		{
			"only awaiting reply keeps sent",
			ViewRules{OnlyAwaitingReply: true},
			prospectWithStatus(models.MessageStatusSent, now),
			true,
		},
		{
			"only awaiting reply drops replied",
			ViewRules{OnlyAwaitingReply: true},
			prospectWithStatus(models.MessageStatusReplyReceived, now),
			false,
		},
		{
			"only replied keeps reply received",
			ViewRules{OnlyReplied: true},
			prospectWithStatus(models.MessageStatusReplyReceived, now),
			true,
		},
		{
			"only replied keeps reply sent",
			ViewRules{OnlyReplied: true},
			prospectWithStatus(models.MessageStatusReplySent, now),
			true,
		},
		{
			"only replied drops sent",
			ViewRules{OnlyReplied: true},
			prospectWithStatus(models.MessageStatusSent, now),
			false,
		},
		{
			"hide replied drops reply received",
			ViewRules{HideReplied: true},
			prospectWithStatus(models.MessageStatusReplyReceived, now),
			false,
		},
		{
			"added within window keeps recent",
			ViewRules{AddedWithinDays: intPtr(7)},
			prospectWithStatus(models.MessageStatusSent, now.Add(-3*24*time.Hour)),
			true,
		},
		{
			"added within window drops old",
			ViewRules{AddedWithinDays: intPtr(7)},
			prospectWithStatus(models.MessageStatusSent, now.Add(-10*24*time.Hour)),
			false,
		},
		{
			"min message count",
			ViewRules{MinMessageCount: intPtr(2)},
			prospectWithStatus(models.MessageStatusSent, now),
			false,
		},
		{
			"max message count",
			ViewRules{MaxMessageCount: intPtr(1)},
			prospectWithStatus(models.MessageStatusSent, now),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rules.Matches(tt.prospect, now))
		})
	}
}

func TestViewRulesActivityWindowUsesUpdatedAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rules := ViewRules{ActivityWithinDays: intPtr(7)}

	// Created long ago but touched yesterday
	p := prospectWithStatus(models.MessageStatusSent, now.Add(-30*24*time.Hour))
	p.Representative.UpdatedAt = timePtr(now.Add(-24 * time.Hour))
	assert.True(t, rules.Matches(p, now))

	// No update falls back to created_at
	stale := prospectWithStatus(models.MessageStatusSent, now.Add(-30*24*time.Hour))
	assert.False(t, rules.Matches(stale, now))
}

func TestViewRulesPresetHotLeads(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rules := ViewRules{Preset: PresetHotLeads}

	recent := prospectWithStatus(models.MessageStatusReplyReceived, now.Add(-2*24*time.Hour))
	assert.True(t, rules.Matches(recent, now))

	old := prospectWithStatus(models.MessageStatusReplyReceived, now.Add(-10*24*time.Hour))
	assert.False(t, rules.Matches(old, now))

	notReplied := prospectWithStatus(models.MessageStatusSent, now.Add(-2*24*time.Hour))
	assert.False(t, rules.Matches(notReplied, now))
}

func TestViewRulesPresetActiveOutreach(t *testing.T) {
	now := time.Now().UTC()
	rules := ViewRules{Preset: PresetActiveOutreach}

	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusScheduled, now), now))
	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusSent, now), now))
	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusGenerated, now), now))
	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusArchived, now), now))
}

func TestViewRulesPresetReadyToSchedule(t *testing.T) {
	now := time.Now().UTC()
	rules := ViewRules{Preset: PresetReadyToSchedule}

	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusGenerated, now), now))

	// Archived without contact still needs a decision
	neverContacted := prospectWithStatus(models.MessageStatusArchived, now)
	neverContacted.AllStatuses = []models.MessageStatus{models.MessageStatusGenerated, models.MessageStatusArchived}
	assert.True(t, rules.Matches(neverContacted, now))

	// Archived after contact is settled history
	afterContact := prospectWithStatus(models.MessageStatusArchived, now)
	afterContact.AllStatuses = []models.MessageStatus{models.MessageStatusSent, models.MessageStatusArchived}
	assert.False(t, rules.Matches(afterContact, now))

	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusSent, now), now))
}

func TestViewRulesPresetColdLeads(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rules := ViewRules{Preset: PresetColdLeads}

	stale := prospectWithStatus(models.MessageStatusSent, now.Add(-20*24*time.Hour))
	assert.True(t, rules.Matches(stale, now))

	fresh := prospectWithStatus(models.MessageStatusSent, now.Add(-2*24*time.Hour))
	assert.False(t, rules.Matches(fresh, now))

	// Ages by updated_at when present
	touched := prospectWithStatus(models.MessageStatusSent, now.Add(-20*24*time.Hour))
	touched.Representative.UpdatedAt = timePtr(now.Add(-24 * time.Hour))
	assert.False(t, rules.Matches(touched, now))

	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusReplyReceived, now.Add(-20*24*time.Hour)), now))
}

func TestViewRulesPresetCleanView(t *testing.T) {
	now := time.Now().UTC()
	rules := ViewRules{Preset: PresetCleanView}

	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusSent, now), now))
	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusGenerated, now), now))
	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusArchived, now), now))
	assert.False(t, rules.Matches(prospectWithStatus(models.MessageStatusFailed, now), now))
}

func TestViewRulesPresetIgnoresGranular(t *testing.T) {
	now := time.Now().UTC()

	// A preset fully overrides granular fields that would otherwise exclude
	// the prospect.
	rules := ViewRules{Preset: PresetActiveOutreach, HideArchived: true, MinMessageCount: intPtr(99)}
	assert.True(t, rules.Matches(prospectWithStatus(models.MessageStatusSent, now), now))
}

func TestApplyViewRules(t *testing.T) {
	now := time.Now().UTC()
	sent := prospectWithStatus(models.MessageStatusSent, now)
	archived := prospectWithStatus(models.MessageStatusArchived, now)

	rules := ViewRules{HideArchived: true}
	out := ApplyViewRules([]*Prospect{sent, archived}, rules, now)
	require.Len(t, out, 1)
	assert.Same(t, sent, out[0])
}

func TestViewRulesStoreWithoutCache(t *testing.T) {
	store := NewViewRulesStore(nil, time.Hour)

	rules, err := store.Load(t.Context(), "inst-1")
	assert.ErrorIs(t, err, ErrCacheNotAvailable)
	assert.Equal(t, DefaultViewRules(), rules)

	err = store.Save(t.Context(), "inst-1", DefaultViewRules())
	assert.ErrorIs(t, err, ErrCacheNotAvailable)
}

func TestViewRulesStoreRequiresInstallationID(t *testing.T) {
	store := NewViewRulesStore(nil, time.Hour)

	_, err := store.Load(t.Context(), "")
	assert.ErrorIs(t, err, ErrInstallationIDRequired)

	err = store.Save(t.Context(), "", DefaultViewRules())
	assert.ErrorIs(t, err, ErrInstallationIDRequired)
}
