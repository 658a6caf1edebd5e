package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageStatusGroup(t *testing.T) {
	tests := []struct {
		name     string
		status   MessageStatus
		expected StatusGroup
	}{
		{"analysing prospect is generating", MessageStatusAnalysingProspect, StatusGroupGenerating},
		{"researching product is generating", MessageStatusResearchingProduct, StatusGroupGenerating},
		{"analysing icp is generating", MessageStatusAnalysingICP, StatusGroupGenerating},
		{"generating message is generating", MessageStatusGeneratingMessage, StatusGroupGenerating},
		{"generated is actionable", MessageStatusGenerated, StatusGroupActionable},
		{"pending scheduled is pipeline", MessageStatusPendingScheduled, StatusGroupPipeline},
		{"scheduled is pipeline", MessageStatusScheduled, StatusGroupPipeline},
		{"sent is terminal success", MessageStatusSent, StatusGroupTerminalSuccess},
		{"reply received is terminal success", MessageStatusReplyReceived, StatusGroupTerminalSuccess},
		{"reply sent is terminal success", MessageStatusReplySent, StatusGroupTerminalSuccess},
		{"archived is terminal other", MessageStatusArchived, StatusGroupTerminalOther},
		{"failed is terminal other", MessageStatusFailed, StatusGroupTerminalOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Group())
		})
	}
}

func TestMessageStatusGroupUnknown(t *testing.T) {
	// Statuses outside the known set must classify as their own distinct
	// group, never fall through to another one.
	unknowns := []MessageStatus{"", "awaiting_review", "SENT", "sent "}
	for _, s := range unknowns {
		assert.Equal(t, StatusGroupUnknown, s.Group(), "status %q", s)
		assert.False(t, s.Valid(), "status %q", s)
	}
}

func TestMessageStatusInActivePipeline(t *testing.T) {
	active := []MessageStatus{
		MessageStatusPendingScheduled,
		MessageStatusScheduled,
		MessageStatusSent,
		MessageStatusReplyReceived,
		MessageStatusReplySent,
	}
	inactive := []MessageStatus{
		MessageStatusAnalysingProspect,
		MessageStatusResearchingProduct,
		MessageStatusAnalysingICP,
		MessageStatusGeneratingMessage,
		MessageStatusGenerated,
		MessageStatusArchived,
		MessageStatusFailed,
	}

	for _, s := range active {
		assert.True(t, s.InActivePipeline(), "status %q", s)
	}
	for _, s := range inactive {
		assert.False(t, s.InActivePipeline(), "status %q", s)
	}
}

func TestMessageStatusEverContacted(t *testing.T) {
	assert.True(t, MessageStatusSent.EverContacted())
	assert.True(t, MessageStatusScheduled.EverContacted())
	assert.True(t, MessageStatusPendingScheduled.EverContacted())

	assert.False(t, MessageStatusGenerated.EverContacted())
	assert.False(t, MessageStatusReplyReceived.EverContacted())
	assert.False(t, MessageStatusArchived.EverContacted())
	assert.False(t, MessageStatusFailed.EverContacted())
}

func TestMessageStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     MessageStatus
		to       MessageStatus
		expected bool
	}{
		{"generation progresses forward", MessageStatusAnalysingProspect, MessageStatusResearchingProduct, true},
		{"generated can go straight to sent", MessageStatusGenerated, MessageStatusSent, true},
		{"generated can queue", MessageStatusGenerated, MessageStatusPendingScheduled, true},
		{"sent can receive a reply", MessageStatusSent, MessageStatusReplyReceived, true},
		{"reply threads alternate", MessageStatusReplySent, MessageStatusReplyReceived, true},
		{"no skipping generation stages", MessageStatusAnalysingProspect, MessageStatusGenerated, false},
		{"no going backwards", MessageStatusSent, MessageStatusGenerated, false},
		{"archive reachable from non-terminal", MessageStatusGenerated, MessageStatusArchived, true},
		{"failure reachable from generating", MessageStatusGeneratingMessage, MessageStatusFailed, true},
		{"archived is frozen", MessageStatusArchived, MessageStatusGenerated, false},
		{"archived cannot fail", MessageStatusArchived, MessageStatusFailed, false},
		{"failed is frozen", MessageStatusFailed, MessageStatusSent, false},
		{"invalid source rejected", MessageStatus("bogus"), MessageStatusSent, false},
		{"invalid target rejected", MessageStatusGenerated, MessageStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMessageStatusValue(t *testing.T) {
	v, err := MessageStatusSent.Value()
	assert.NoError(t, err)
	assert.Equal(t, "sent", v)

	_, err = MessageStatus("bogus").Value()
	assert.Error(t, err)
}

func TestMessageStatusScan(t *testing.T) {
	var s MessageStatus
	assert.NoError(t, s.Scan("scheduled"))
	assert.Equal(t, MessageStatusScheduled, s)

	assert.NoError(t, s.Scan([]byte("failed")))
	assert.Equal(t, MessageStatusFailed, s)

	assert.NoError(t, s.Scan(nil))
	assert.Equal(t, MessageStatus(""), s)

	assert.Error(t, s.Scan(42))
}
