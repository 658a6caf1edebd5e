package businessflow

import (
	"sort"
	"strings"

	"github.com/reachlyhq/reachly/models"
)

// Prospect is a projection over a prospect's message generation log rows. It
// is never persisted; every fetch and every realtime trigger rebuilds it from
// the raw rows.
type Prospect struct {
	ResearchCacheID uint                          `json:"research_cache_id"`
	Cache           *models.ResearchCache         `json:"cache,omitempty"`
	Representative  *models.MessageGenerationLog  `json:"representative"`
	MessageCount    int                           `json:"message_count"`
	AllStatuses     []models.MessageStatus        `json:"all_statuses"`
}

// Loaded reports whether the research cache join has arrived. A prospect with
// log rows but no cache row yet is present but incomplete, rendered as a
// loading card rather than excluded.
func (p *Prospect) Loaded() bool {
	return p.Cache != nil
}

// Name returns the researched display name, empty while still researching
func (p *Prospect) Name() string {
	if p.Cache == nil {
		return ""
	}
	return p.Cache.DisplayName()
}

// JobTitle returns the researched headline, empty while still researching
func (p *Prospect) JobTitle() string {
	if p.Cache == nil || p.Cache.ResearchData.Headline == nil {
		return ""
	}
	return *p.Cache.ResearchData.Headline
}

// Status returns the representative row's status
func (p *Prospect) Status() models.MessageStatus {
	return p.Representative.MessageStatus
}

// EverContacted reports whether any row in the prospect's full history ever
// reached a queued or sent state, including rows excluded by the tie-break.
func (p *Prospect) EverContacted() bool {
	for _, s := range p.AllStatuses {
		if s.EverContacted() {
			return true
		}
	}
	return false
}

// NeedsAttention reports whether the prospect belongs in the attention
// summary: anything still generating, anything awaiting a user decision
// (generated, reply received, failed), or a prospect archived without ever
// having been contacted. Archived-after-contact is settled history and stays
// out.
func (p *Prospect) NeedsAttention() bool {
	status := p.Status()
	switch {
	case status.IsGenerating():
		return true
	case status == models.MessageStatusGenerated,
		status == models.MessageStatusReplyReceived,
		status == models.MessageStatusFailed:
		return true
	case status == models.MessageStatusArchived:
		return !p.EverContacted()
	default:
		return false
	}
}

// BuildProspects groups log rows by research cache id and selects one
// representative row per prospect. Rows must arrive pre-scoped to one
// customer with soft-deleted cache rows already excluded; rows with a null
// research cache id are discarded here.
//
// Tie-break: if any row of a prospect sits in the active pipeline, that
// prospect's archived rows are excluded before picking the most recent row,
// so a live pipeline always wins visibility over a stale archived attempt.
// MessageCount counts the rows that survive that exclusion, not the raw
// total. AllStatuses keeps every status in original row order.
func BuildProspects(logs []*models.MessageGenerationLog) []*Prospect {
	groups := make(map[uint][]*models.MessageGenerationLog)
	order := make([]uint, 0)
	for _, log := range logs {
		if log.ResearchCacheID == nil {
			continue
		}
		id := *log.ResearchCacheID
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], log)
	}

	prospects := make([]*Prospect, 0, len(order))
	for _, id := range order {
		rows := groups[id]

		allStatuses := make([]models.MessageStatus, 0, len(rows))
		hasActivePipeline := false
		for _, row := range rows {
			allStatuses = append(allStatuses, row.MessageStatus)
			if row.MessageStatus.InActivePipeline() {
				hasActivePipeline = true
			}
		}

		considered := rows
		if hasActivePipeline {
			considered = make([]*models.MessageGenerationLog, 0, len(rows))
			for _, row := range rows {
				if row.MessageStatus != models.MessageStatusArchived {
					considered = append(considered, row)
				}
			}
		}

		representative := considered[0]
		for _, row := range considered[1:] {
			if row.CreatedAt.After(representative.CreatedAt) {
				representative = row
			}
		}

		var cache *models.ResearchCache
		for _, row := range rows {
			if row.ResearchCache != nil {
				cache = row.ResearchCache
				break
			}
		}

		prospects = append(prospects, &Prospect{
			ResearchCacheID: id,
			Cache:           cache,
			Representative:  representative,
			MessageCount:    len(considered),
			AllStatuses:     allStatuses,
		})
	}

	return prospects
}

// FilterBySearch keeps prospects whose name or headline contains the query,
// case-insensitive. An empty query keeps everything. Prospects still
// researching have no name to match and drop out of non-empty searches.
func FilterBySearch(prospects []*Prospect, query string) []*Prospect {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return prospects
	}

	out := make([]*Prospect, 0, len(prospects))
	for _, p := range prospects {
		name := strings.ToLower(p.Name())
		headline := strings.ToLower(p.JobTitle())
		if strings.Contains(name, query) || strings.Contains(headline, query) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByStatuses keeps prospects whose representative status is in the
// given set, OR semantics. An empty set is the implicit "all" sentinel.
func FilterByStatuses(prospects []*Prospect, statuses []models.MessageStatus) []*Prospect {
	if len(statuses) == 0 {
		return prospects
	}

	wanted := make(map[models.MessageStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	out := make([]*Prospect, 0, len(prospects))
	for _, p := range prospects {
		if wanted[p.Status()] {
			out = append(out, p)
		}
	}
	return out
}

// SortKey names a prospect list ordering
type SortKey string

const (
	SortKeyName         SortKey = "name"
	SortKeyJobTitle     SortKey = "jobTitle"
	SortKeyStatus       SortKey = "status"
	SortKeyMessageCount SortKey = "messageCount"
	SortKeyCreatedAt    SortKey = "createdAt"
	SortKeyScheduledFor SortKey = "scheduledFor"
)

// Valid checks if the sort key is one of the supported orderings
func (k SortKey) Valid() bool {
	switch k {
	case SortKeyName, SortKeyJobTitle, SortKeyStatus,
		SortKeyMessageCount, SortKeyCreatedAt, SortKeyScheduledFor:
		return true
	default:
		return false
	}
}

// SortProspects orders the list in place by the given key. scheduledFor
// places prospects without a scheduled time at the end regardless of
// direction.
func SortProspects(prospects []*Prospect, key SortKey, descending bool) {
	less := func(a, b *Prospect) bool { return a.Representative.CreatedAt.Before(b.Representative.CreatedAt) }

	switch key {
	case SortKeyName:
		less = func(a, b *Prospect) bool {
			return strings.ToLower(a.Name()) < strings.ToLower(b.Name())
		}
	case SortKeyJobTitle:
		less = func(a, b *Prospect) bool {
			return strings.ToLower(a.JobTitle()) < strings.ToLower(b.JobTitle())
		}
	case SortKeyStatus:
		less = func(a, b *Prospect) bool {
			return a.Status() < b.Status()
		}
	case SortKeyMessageCount:
		less = func(a, b *Prospect) bool {
			return a.MessageCount < b.MessageCount
		}
	case SortKeyCreatedAt:
		less = func(a, b *Prospect) bool {
			return a.Representative.CreatedAt.Before(b.Representative.CreatedAt)
		}
	case SortKeyScheduledFor:
		sort.SliceStable(prospects, func(i, j int) bool {
			a, b := prospects[i].Representative.ScheduledFor, prospects[j].Representative.ScheduledFor
			if a == nil && b == nil {
				return false
			}
			if a == nil {
				return false // nulls last
			}
			if b == nil {
				return true
			}
			if descending {
				return a.After(*b)
			}
			return a.Before(*b)
		})
		return
	}

	sort.SliceStable(prospects, func(i, j int) bool {
		if descending {
			return less(prospects[j], prospects[i])
		}
		return less(prospects[i], prospects[j])
	})
}

// Paginate slices one page out of the filtered list. The returned page number
// is clamped to [1, totalPages] so a shrinking result set can never leave the
// caller stranded past the end.
func Paginate(prospects []*Prospect, page, pageSize int) (pageItems []*Prospect, clampedPage, totalPages int) {
	if pageSize <= 0 {
		pageSize = 1
	}

	totalPages = (len(prospects) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start >= len(prospects) {
		return []*Prospect{}, page, totalPages
	}
	if end > len(prospects) {
		end = len(prospects)
	}

	return prospects[start:end], page, totalPages
}
