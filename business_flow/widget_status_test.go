package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reachlyhq/reachly/models"
)

func TestDeriveICPWidgetState(t *testing.T) {
	tests := []struct {
		name     string
		icp      *models.ICP
		expected WidgetState
	}{
		{"no icp yet", nil, WidgetStateEmpty},
		{
			"generating",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusGenerating, ReviewStatus: models.ReviewStatusPending},
			WidgetStateGenerating,
		},
		{
			"processing counts as generating",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusProcessing, ReviewStatus: models.ReviewStatusPending},
			WidgetStateGenerating,
		},
		{
			"reviewing approved",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusReviewing, ReviewStatus: models.ReviewStatusApproved},
			WidgetStateReviewing,
		},
		{
			"draft pending review",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusDraft, ReviewStatus: models.ReviewStatusPending},
			WidgetStateDraftPending,
		},
		{
			"active",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusActive, ReviewStatus: models.ReviewStatusApproved},
			WidgetStateActive,
		},
		{
			// Reviewing without approval falls through to active rather
			// than rendering a review card the user cannot act on.
			"reviewing unapproved falls through",
			&models.ICP{WorkflowStatus: models.ICPWorkflowStatusReviewing, ReviewStatus: models.ReviewStatusPending},
			WidgetStateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveICPWidgetState(tt.icp))
		})
	}
}

func TestDeriveKnowledgeWidgetState(t *testing.T) {
	tests := []struct {
		name     string
		entry    *models.KnowledgeEntry
		expected WidgetState
	}{
		{"no entry yet", nil, WidgetStateEmpty},
		{
			"processing",
			&models.KnowledgeEntry{WorkflowStatus: models.ICPWorkflowStatusProcessing, ReviewStatus: models.ReviewStatusPending},
			WidgetStateGenerating,
		},
		{
			"generating",
			&models.KnowledgeEntry{WorkflowStatus: models.ICPWorkflowStatusGenerating, ReviewStatus: models.ReviewStatusPending},
			WidgetStateGenerating,
		},
		{
			"reviewing approved",
			&models.KnowledgeEntry{WorkflowStatus: models.ICPWorkflowStatusReviewing, ReviewStatus: models.ReviewStatusApproved},
			WidgetStateReviewing,
		},
		{
			"draft pending review",
			&models.KnowledgeEntry{WorkflowStatus: models.ICPWorkflowStatusDraft, ReviewStatus: models.ReviewStatusPending},
			WidgetStateDraftPending,
		},
		{
			"active",
			&models.KnowledgeEntry{WorkflowStatus: models.ICPWorkflowStatusActive, ReviewStatus: models.ReviewStatusApproved},
			WidgetStateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveKnowledgeWidgetState(tt.entry))
		})
	}
}

func TestDeriveSettingsWidgetState(t *testing.T) {
	assert.Equal(t, WidgetStateEmpty, DeriveSettingsWidgetState(nil))

	partial := &models.ProfileSettings{
		LinkedInURL: strPtr("https://www.linkedin.com/in/example"),
		FullName:    strPtr("Ada Lovelace"),
	}
	assert.Equal(t, WidgetStateDraftPending, DeriveSettingsWidgetState(partial))

	complete := &models.ProfileSettings{
		LinkedInURL:      strPtr("https://www.linkedin.com/in/example"),
		FullName:         strPtr("Ada Lovelace"),
		CompanyName:      strPtr("Analytical Engines Ltd"),
		ValueProposition: strPtr("Programs for machines that do not exist yet"),
		Tone:             strPtr("direct"),
	}
	assert.Equal(t, WidgetStateActive, DeriveSettingsWidgetState(complete))
}

func TestOptimisticGeneratingWithoutCache(t *testing.T) {
	// Without a cache the flag degrades to a no-op rather than erroring
	o := newOptimisticGenerating(nil)

	o.set(t.Context(), 1, "icp")
	assert.False(t, o.active(t.Context(), 1, "icp"))
	o.clear(t.Context(), 1, "icp")
}
