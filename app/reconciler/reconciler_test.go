package reconciler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	businessflow "github.com/reachlyhq/reachly/business_flow"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
)

// stubFlow counts Snapshot calls; the embedded interface panics on anything
// else, which is the point: the reconciler must only ever call Snapshot.
type stubFlow struct {
	businessflow.ProspectFlow
	snapshots atomic.Int64
	delay     time.Duration
}

func (s *stubFlow) Snapshot(ctx context.Context, customerID uint) ([]*businessflow.Prospect, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.snapshots.Add(1)
	return nil, nil
}

type stubLogRepo struct {
	repository.MessageGenerationLogRepository
	generating int64
}

func (s *stubLogRepo) CountInStatuses(ctx context.Context, customerID uint, statuses []models.MessageStatus) (int64, error) {
	return s.generating, nil
}

func newTestReconciler(t *testing.T, flow *stubFlow, logRepo *stubLogRepo) *Reconciler {
	t.Helper()
	return New(Config{
		DebounceWindow: 20 * time.Millisecond,
		PollInterval:   time.Hour,
		LogPath:        filepath.Join(t.TempDir(), "reconciler.log"),
	}, flow, logRepo, nil)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "reachly:prospect_snapshot:42", SnapshotKey(42))
	assert.Equal(t, "reachly:prospect_updates:42", UpdateChannel(42))
}

func TestTriggerDebounceCoalesces(t *testing.T) {
	flow := &stubFlow{}
	rec := newTestReconciler(t, flow, &stubLogRepo{})

	// A burst of triggers within the window collapses into one rebuild
	for i := 0; i < 5; i++ {
		rec.Trigger(t.Context(), 7, "test")
	}

	assert.Eventually(t, func() bool {
		return flow.snapshots.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// And stays at one
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), flow.snapshots.Load())
}

func TestTriggerSeparateCustomers(t *testing.T) {
	flow := &stubFlow{}
	rec := newTestReconciler(t, flow, &stubLogRepo{})

	rec.Trigger(t.Context(), 1, "test")
	rec.Trigger(t.Context(), 2, "test")

	assert.Eventually(t, func() bool {
		return flow.snapshots.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTriggerAfterWindowRebuildsAgain(t *testing.T) {
	flow := &stubFlow{}
	rec := newTestReconciler(t, flow, &stubLogRepo{})

	rec.Trigger(t.Context(), 3, "test")
	assert.Eventually(t, func() bool {
		return flow.snapshots.Load() == 1
	}, time.Second, 5*time.Millisecond)

	rec.Trigger(t.Context(), 3, "test")
	assert.Eventually(t, func() bool {
		return flow.snapshots.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPollEligibleStatuses(t *testing.T) {
	eligible := map[models.MessageStatus]bool{}
	for _, s := range pollEligibleStatuses {
		eligible[s] = true
	}

	// Generating stages and the awaiting-review draft keep polling alive
	assert.True(t, eligible[models.MessageStatusAnalysingProspect])
	assert.True(t, eligible[models.MessageStatusResearchingProduct])
	assert.True(t, eligible[models.MessageStatusAnalysingICP])
	assert.True(t, eligible[models.MessageStatusGeneratingMessage])
	assert.True(t, eligible[models.MessageStatusGenerated])

	// Queued, settled, and terminal states do not
	assert.False(t, eligible[models.MessageStatusScheduled])
	assert.False(t, eligible[models.MessageStatusSent])
	assert.False(t, eligible[models.MessageStatusArchived])
	assert.False(t, eligible[models.MessageStatusFailed])
}

func TestPollingStateEntersAndLeaves(t *testing.T) {
	flow := &stubFlow{}
	logRepo := &stubLogRepo{generating: 1}
	rec := newTestReconciler(t, flow, logRepo)

	rec.updatePollingState(t.Context(), 9)
	rec.mu.Lock()
	_, polling := rec.polling[9]
	rec.mu.Unlock()
	assert.True(t, polling)

	// Polling stops as soon as nothing is poll-eligible
	logRepo.generating = 0
	rec.updatePollingState(t.Context(), 9)
	rec.mu.Lock()
	_, polling = rec.polling[9]
	rec.mu.Unlock()
	assert.False(t, polling)
}

func TestCachedSnapshotWithoutCache(t *testing.T) {
	rec := newTestReconciler(t, &stubFlow{}, &stubLogRepo{})

	_, err := rec.CachedSnapshot(t.Context(), 1)
	assert.Error(t, err)
}
