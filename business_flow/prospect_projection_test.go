package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachlyhq/reachly/models"
)

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func logRow(cacheID uint, status models.MessageStatus, createdAt time.Time) *models.MessageGenerationLog {
	return &models.MessageGenerationLog{
		ResearchCacheID: uintPtr(cacheID),
		MessageStatus:   status,
		CreatedAt:       createdAt,
	}
}

func cacheRow(id uint, name, headline string) *models.ResearchCache {
	return &models.ResearchCache{
		ID:         id,
		ProfileURL: "https://www.linkedin.com/in/example",
		ResearchData: models.ResearchData{
			Name:     strPtr(name),
			Headline: strPtr(headline),
		},
	}
}

func TestBuildProspectsGroupsByCacheID(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	logs := []*models.MessageGenerationLog{
		logRow(1, models.MessageStatusGenerated, base),
		logRow(2, models.MessageStatusSent, base.Add(time.Hour)),
		logRow(1, models.MessageStatusFailed, base.Add(2*time.Hour)),
	}

	prospects := BuildProspects(logs)
	require.Len(t, prospects, 2)

	// First-seen order is preserved
	assert.Equal(t, uint(1), prospects[0].ResearchCacheID)
	assert.Equal(t, uint(2), prospects[1].ResearchCacheID)

	assert.Equal(t, 2, prospects[0].MessageCount)
	assert.Equal(t, 1, prospects[1].MessageCount)
}

func TestBuildProspectsDiscardsNullCacheID(t *testing.T) {
	orphan := &models.MessageGenerationLog{
		MessageStatus: models.MessageStatusGenerated,
		CreatedAt:     time.Now().UTC(),
	}

	prospects := BuildProspects([]*models.MessageGenerationLog{orphan})
	assert.Empty(t, prospects)
}

func TestBuildProspectsRepresentativeIsLatest(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	older := logRow(1, models.MessageStatusFailed, base)
	newer := logRow(1, models.MessageStatusGenerated, base.Add(time.Hour))

	prospects := BuildProspects([]*models.MessageGenerationLog{older, newer})
	require.Len(t, prospects, 1)

	assert.Same(t, newer, prospects[0].Representative)
	assert.Equal(t, models.MessageStatusGenerated, prospects[0].Status())
}

func TestBuildProspectsActivePipelineBeatsArchived(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	sent := logRow(1, models.MessageStatusSent, base)
	archived := logRow(1, models.MessageStatusArchived, base.Add(time.Hour))

	prospects := BuildProspects([]*models.MessageGenerationLog{sent, archived})
	require.Len(t, prospects, 1)

	// The archived row is newer but the live pipeline row wins, and the
	// count reflects the exclusion.
	assert.Same(t, sent, prospects[0].Representative)
	assert.Equal(t, 1, prospects[0].MessageCount)

	// The full history still records both statuses in row order
	assert.Equal(t, []models.MessageStatus{
		models.MessageStatusSent,
		models.MessageStatusArchived,
	}, prospects[0].AllStatuses)
}

func TestBuildProspectsArchivedBothSidesOfSent(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// archived, then sent, then archived again: the sent row wins even
	// though the newest row is archived.
	first := logRow(1, models.MessageStatusArchived, base)
	sent := logRow(1, models.MessageStatusSent, base.Add(time.Hour))
	last := logRow(1, models.MessageStatusArchived, base.Add(2*time.Hour))

	prospects := BuildProspects([]*models.MessageGenerationLog{first, sent, last})
	require.Len(t, prospects, 1)

	assert.Same(t, sent, prospects[0].Representative)
	assert.Equal(t, 1, prospects[0].MessageCount)
	assert.Equal(t, []models.MessageStatus{
		models.MessageStatusArchived,
		models.MessageStatusSent,
		models.MessageStatusArchived,
	}, prospects[0].AllStatuses)
}

func TestBuildProspectsArchivedKeptWithoutActivePipeline(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	generated := logRow(1, models.MessageStatusGenerated, base)
	archived := logRow(1, models.MessageStatusArchived, base.Add(time.Hour))

	prospects := BuildProspects([]*models.MessageGenerationLog{generated, archived})
	require.Len(t, prospects, 1)

	assert.Same(t, archived, prospects[0].Representative)
	assert.Equal(t, 2, prospects[0].MessageCount)
}

func TestBuildProspectsCacheFromAnyRow(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache := cacheRow(1, "Ada Lovelace", "Engineer")

	first := logRow(1, models.MessageStatusGenerated, base)
	second := logRow(1, models.MessageStatusFailed, base.Add(time.Hour))
	second.ResearchCache = cache

	prospects := BuildProspects([]*models.MessageGenerationLog{first, second})
	require.Len(t, prospects, 1)

	assert.Same(t, cache, prospects[0].Cache)
	assert.True(t, prospects[0].Loaded())
	assert.Equal(t, "Ada Lovelace", prospects[0].Name())
	assert.Equal(t, "Engineer", prospects[0].JobTitle())
}

func TestProspectUnloaded(t *testing.T) {
	p := &Prospect{Representative: logRow(1, models.MessageStatusAnalysingProspect, time.Now().UTC())}

	assert.False(t, p.Loaded())
	assert.Empty(t, p.Name())
	assert.Empty(t, p.JobTitle())
}

func TestProspectNeedsAttention(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.MessageStatus
		expected bool
	}{
		{"still generating", []models.MessageStatus{models.MessageStatusAnalysingProspect}, true},
		{"awaiting decision", []models.MessageStatus{models.MessageStatusGenerated}, true},
		{"reply waiting", []models.MessageStatus{models.MessageStatusSent, models.MessageStatusReplyReceived}, true},
		{"failed", []models.MessageStatus{models.MessageStatusFailed}, true},
		{"archived never contacted", []models.MessageStatus{models.MessageStatusGenerated, models.MessageStatusArchived}, true},
		{"archived after contact is settled", []models.MessageStatus{models.MessageStatusSent, models.MessageStatusArchived}, false},
		{"scheduled is fine", []models.MessageStatus{models.MessageStatusScheduled}, false},
		{"sent is fine", []models.MessageStatus{models.MessageStatusSent}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
			logs := make([]*models.MessageGenerationLog, 0, len(tt.statuses))
			for i, s := range tt.statuses {
				logs = append(logs, logRow(1, s, base.Add(time.Duration(i)*time.Hour)))
			}

			prospects := BuildProspects(logs)
			require.Len(t, prospects, 1)
			assert.Equal(t, tt.expected, prospects[0].NeedsAttention())
		})
	}
}

func TestFilterBySearch(t *testing.T) {
	loaded := &Prospect{
		Cache:          cacheRow(1, "Grace Hopper", "Rear Admiral"),
		Representative: logRow(1, models.MessageStatusGenerated, time.Now().UTC()),
	}
	other := &Prospect{
		Cache:          cacheRow(2, "Alan Kay", "Computer Scientist"),
		Representative: logRow(2, models.MessageStatusGenerated, time.Now().UTC()),
	}
	unloaded := &Prospect{
		Representative: logRow(3, models.MessageStatusAnalysingProspect, time.Now().UTC()),
	}
	all := []*Prospect{loaded, other, unloaded}

	// Empty query keeps everything, loading cards included
	assert.Len(t, FilterBySearch(all, ""), 3)
	assert.Len(t, FilterBySearch(all, "   "), 3)

	// Case-insensitive match on name
	result := FilterBySearch(all, "grace")
	require.Len(t, result, 1)
	assert.Same(t, loaded, result[0])

	// Match on headline
	result = FilterBySearch(all, "SCIENTIST")
	require.Len(t, result, 1)
	assert.Same(t, other, result[0])

	// Still-researching prospects drop out of non-empty searches
	assert.Empty(t, FilterBySearch([]*Prospect{unloaded}, "grace"))
}

func TestFilterByStatuses(t *testing.T) {
	generated := &Prospect{Representative: logRow(1, models.MessageStatusGenerated, time.Now().UTC())}
	sent := &Prospect{Representative: logRow(2, models.MessageStatusSent, time.Now().UTC())}
	failed := &Prospect{Representative: logRow(3, models.MessageStatusFailed, time.Now().UTC())}
	all := []*Prospect{generated, sent, failed}

	// Empty set means all
	assert.Len(t, FilterByStatuses(all, nil), 3)

	// OR semantics
	result := FilterByStatuses(all, []models.MessageStatus{models.MessageStatusSent, models.MessageStatusFailed})
	require.Len(t, result, 2)
	assert.Same(t, sent, result[0])
	assert.Same(t, failed, result[1])

	assert.Empty(t, FilterByStatuses(all, []models.MessageStatus{models.MessageStatusScheduled}))
}

func TestSortKeyValid(t *testing.T) {
	valid := []SortKey{SortKeyName, SortKeyJobTitle, SortKeyStatus, SortKeyMessageCount, SortKeyCreatedAt, SortKeyScheduledFor}
	for _, k := range valid {
		assert.True(t, k.Valid(), "key %q", k)
	}
	assert.False(t, SortKey("updatedAt").Valid())
	assert.False(t, SortKey("").Valid())
}

func TestSortProspectsByName(t *testing.T) {
	now := time.Now().UTC()
	bob := &Prospect{Cache: cacheRow(1, "bob", ""), Representative: logRow(1, models.MessageStatusGenerated, now)}
	alice := &Prospect{Cache: cacheRow(2, "Alice", ""), Representative: logRow(2, models.MessageStatusGenerated, now)}
	carol := &Prospect{Cache: cacheRow(3, "Carol", ""), Representative: logRow(3, models.MessageStatusGenerated, now)}

	prospects := []*Prospect{bob, alice, carol}
	SortProspects(prospects, SortKeyName, false)
	assert.Equal(t, []*Prospect{alice, bob, carol}, prospects)

	SortProspects(prospects, SortKeyName, true)
	assert.Equal(t, []*Prospect{carol, bob, alice}, prospects)
}

func TestSortProspectsByMessageCount(t *testing.T) {
	now := time.Now().UTC()
	one := &Prospect{MessageCount: 1, Representative: logRow(1, models.MessageStatusGenerated, now)}
	three := &Prospect{MessageCount: 3, Representative: logRow(2, models.MessageStatusGenerated, now)}
	two := &Prospect{MessageCount: 2, Representative: logRow(3, models.MessageStatusGenerated, now)}

	prospects := []*Prospect{one, three, two}
	SortProspects(prospects, SortKeyMessageCount, true)
	assert.Equal(t, []*Prospect{three, two, one}, prospects)
}

func TestSortProspectsByCreatedAt(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	oldest := &Prospect{Representative: logRow(1, models.MessageStatusGenerated, base)}
	newest := &Prospect{Representative: logRow(2, models.MessageStatusGenerated, base.Add(2*time.Hour))}
	middle := &Prospect{Representative: logRow(3, models.MessageStatusGenerated, base.Add(time.Hour))}

	prospects := []*Prospect{newest, oldest, middle}
	SortProspects(prospects, SortKeyCreatedAt, false)
	assert.Equal(t, []*Prospect{oldest, middle, newest}, prospects)
}

func TestSortProspectsScheduledForNullsLast(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	early := &Prospect{Representative: &models.MessageGenerationLog{
		ResearchCacheID: uintPtr(1),
		MessageStatus:   models.MessageStatusScheduled,
		ScheduledFor:    timePtr(base),
		CreatedAt:       base,
	}}
	late := &Prospect{Representative: &models.MessageGenerationLog{
		ResearchCacheID: uintPtr(2),
		MessageStatus:   models.MessageStatusScheduled,
		ScheduledFor:    timePtr(base.Add(time.Hour)),
		CreatedAt:       base,
	}}
	unscheduled := &Prospect{Representative: logRow(3, models.MessageStatusGenerated, base)}

	prospects := []*Prospect{unscheduled, late, early}
	SortProspects(prospects, SortKeyScheduledFor, false)
	assert.Equal(t, []*Prospect{early, late, unscheduled}, prospects)

	// Nulls stay last even when descending
	prospects = []*Prospect{unscheduled, early, late}
	SortProspects(prospects, SortKeyScheduledFor, true)
	assert.Equal(t, []*Prospect{late, early, unscheduled}, prospects)
}

func TestPaginate(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prospects := make([]*Prospect, 0, 5)
	for i := 0; i < 5; i++ {
		prospects = append(prospects, &Prospect{Representative: logRow(uint(i+1), models.MessageStatusGenerated, base)})
	}

	tests := []struct {
		name          string
		page          int
		pageSize      int
		expectedLen   int
		expectedPage  int
		expectedTotal int
	}{
		{"first page", 1, 2, 2, 1, 3},
		{"middle page", 2, 2, 2, 2, 3},
		{"last partial page", 3, 2, 1, 3, 3},
		{"page below one clamps to one", 0, 2, 2, 1, 3},
		{"page past the end clamps to one", 9, 2, 2, 1, 3},
		{"page size covers everything", 1, 10, 5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, page, total := Paginate(prospects, tt.page, tt.pageSize)
			assert.Len(t, items, tt.expectedLen)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	items, page, total := Paginate(nil, 3, 20)
	assert.Empty(t, items)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, total)
}
