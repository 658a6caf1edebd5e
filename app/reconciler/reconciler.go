// Package reconciler keeps per-customer prospect projections in sync with the
// message generation log. The primary signal is Postgres LISTEN/NOTIFY on log
// writes; a conditional poll ticker covers missed notifications while any
// prospect is still generating.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	businessflow "github.com/reachlyhq/reachly/business_flow"
	"github.com/reachlyhq/reachly/models"
	"github.com/reachlyhq/reachly/repository"
)

var (
	rebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_rebuilds_total",
			Help: "Total prospect projection rebuilds by trigger source",
		},
		[]string{"source"},
	)

	rebuildsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_rebuilds_discarded_total",
			Help: "Rebuilds discarded because a newer trigger superseded them",
		},
	)

	notificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_notifications_total",
			Help: "Change notifications received on the log channel",
		},
	)

	listenerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_listener_errors_total",
			Help: "Errors reported by the Postgres listener",
		},
	)

	pollingCustomers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconciler_polling_customers",
			Help: "Customers currently covered by the fallback poll ticker",
		},
	)
)

// Statuses that keep the fallback poll ticker alive for a customer: the four
// generating stages, where the automation layer writes next, plus generated,
// the review stage a draft sits in until the user or the workflow moves it.
var pollEligibleStatuses = []models.MessageStatus{
	models.MessageStatusAnalysingProspect,
	models.MessageStatusResearchingProduct,
	models.MessageStatusAnalysingICP,
	models.MessageStatusGeneratingMessage,
	models.MessageStatusGenerated,
}

// Config carries the reconciler tuning knobs
type Config struct {
	ListenDSN       string
	Channel         string
	DebounceWindow  time.Duration
	PollInterval    time.Duration
	SnapshotTTL     time.Duration
	LogPath         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
}

// Reconciler rebuilds the full prospect projection for a customer on every
// change signal. Rebuilds are always full recomputes of the latest rows; the
// reconciler never patches a previous projection incrementally, trading
// efficiency for correctness under out-of-order delivery.
type Reconciler struct {
	cfg     Config
	flow    businessflow.ProspectFlow
	logRepo repository.MessageGenerationLogRepository
	rc      *redis.Client
	logger  *log.Logger

	mu         sync.Mutex
	generation map[uint]uint64
	debounce   map[uint]*time.Timer
	polling    map[uint]struct{}
}

// New creates a reconciler. The log file rotates via lumberjack so long-lived
// deployments do not fill the disk.
func New(cfg Config, flow businessflow.ProspectFlow, logRepo repository.MessageGenerationLogRepository, rc *redis.Client) *Reconciler {
	if cfg.Channel == "" {
		cfg.Channel = "message_log_changes"
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 250 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 10 * time.Minute
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "data/reconciler.log"
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    max(cfg.LogMaxSizeMB, 10),
		MaxBackups: max(cfg.LogMaxBackups, 3),
		MaxAge:     max(cfg.LogMaxAgeDays, 14),
		Compress:   true,
	}
	out := io.MultiWriter(os.Stdout, rotated)

	return &Reconciler{
		cfg:        cfg,
		flow:       flow,
		logRepo:    logRepo,
		rc:         rc,
		logger:     log.New(out, "reconciler ", log.LstdFlags|log.Lmicroseconds|log.LUTC),
		generation: make(map[uint]uint64),
		debounce:   make(map[uint]*time.Timer),
		polling:    make(map[uint]struct{}),
	}
}

// SnapshotKey returns the Redis key holding a customer's cached projection
func SnapshotKey(customerID uint) string {
	return "reachly:prospect_snapshot:" + strconv.FormatUint(uint64(customerID), 10)
}

// UpdateChannel returns the Redis pub/sub channel for a customer's updates
func UpdateChannel(customerID uint) string {
	return "reachly:prospect_updates:" + strconv.FormatUint(uint64(customerID), 10)
}

// Start launches the listener and poll loops and returns a stop function
func (r *Reconciler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	listener := pq.NewListener(r.cfg.ListenDSN, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			listenerErrors.Inc()
			r.logger.Printf("listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(r.cfg.Channel); err != nil {
		r.logger.Printf("failed to listen on %s: %v", r.cfg.Channel, err)
	}

	go r.listenLoop(ctx, listener)
	go r.pollLoop(ctx)

	return func() {
		cancel()
		_ = listener.Close()
	}
}

// listenLoop consumes NOTIFY payloads. The payload is the affected customer's
// numeric id; everything else about the change is ignored because the rebuild
// refetches all rows anyway.
func (r *Reconciler) listenLoop(ctx context.Context, listener *pq.Listener) {
	keepalive := time.NewTicker(90 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// nil signals a connection reset; re-fetch on the next
				// notification or poll tick.
				continue
			}
			notificationsTotal.Inc()
			customerID, err := strconv.ParseUint(n.Extra, 10, 64)
			if err != nil {
				r.logger.Printf("ignoring malformed notify payload %q", n.Extra)
				continue
			}
			r.Trigger(ctx, uint(customerID), "notify")
		case <-keepalive.C:
			go func() {
				if err := listener.Ping(); err != nil {
					listenerErrors.Inc()
					r.logger.Printf("listener ping failed: %v", err)
				}
			}()
		}
	}
}

// Trigger schedules a rebuild for one customer. Bursts of triggers within the
// debounce window coalesce into a single rebuild of the final state.
func (r *Reconciler) Trigger(ctx context.Context, customerID uint, source string) {
	r.mu.Lock()
	r.generation[customerID]++
	gen := r.generation[customerID]

	if timer, ok := r.debounce[customerID]; ok {
		timer.Stop()
	}
	r.debounce[customerID] = time.AfterFunc(r.cfg.DebounceWindow, func() {
		r.rebuild(ctx, customerID, gen, source)
	})
	r.mu.Unlock()
}

// rebuild recomputes and publishes one customer's projection. A rebuild whose
// generation is no longer current discards its result: a newer trigger has
// already scheduled a rebuild of newer data, and publishing stale output
// out of order would let an older projection overwrite a newer one.
func (r *Reconciler) rebuild(ctx context.Context, customerID uint, gen uint64, source string) {
	prospects, err := r.flow.Snapshot(ctx, customerID)
	if err != nil {
		r.logger.Printf("rebuild failed for customer %d: %v", customerID, err)
		return
	}

	r.mu.Lock()
	current := r.generation[customerID]
	r.mu.Unlock()
	if gen != current {
		rebuildsDiscarded.Inc()
		return
	}

	rebuildsTotal.WithLabelValues(source).Inc()

	if r.rc != nil {
		encoded, err := json.Marshal(prospects)
		if err == nil {
			_ = r.rc.Set(ctx, SnapshotKey(customerID), encoded, r.cfg.SnapshotTTL).Err()
			_ = r.rc.Publish(ctx, UpdateChannel(customerID), encoded).Err()
		}
	}

	r.updatePollingState(ctx, customerID)
}

// updatePollingState enters or leaves the fallback polling set based on
// whether any of the customer's rows is still generating. Polling stops as
// soon as nothing is poll-eligible, so idle customers cost nothing.
func (r *Reconciler) updatePollingState(ctx context.Context, customerID uint) {
	count, err := r.logRepo.CountInStatuses(ctx, customerID, pollEligibleStatuses)
	if err != nil {
		r.logger.Printf("poll eligibility check failed for customer %d: %v", customerID, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if count > 0 {
		if _, ok := r.polling[customerID]; !ok {
			r.polling[customerID] = struct{}{}
			pollingCustomers.Set(float64(len(r.polling)))
		}
	} else if _, ok := r.polling[customerID]; ok {
		delete(r.polling, customerID)
		pollingCustomers.Set(float64(len(r.polling)))
	}
}

// pollLoop re-triggers rebuilds for customers with in-flight generations, a
// safety net for notifications lost to connection resets.
func (r *Reconciler) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			ids := make([]uint, 0, len(r.polling))
			for id := range r.polling {
				ids = append(ids, id)
			}
			r.mu.Unlock()

			for _, id := range ids {
				r.Trigger(ctx, id, "poll")
			}
		}
	}
}

// CachedSnapshot returns the last published projection for a customer, if any
func (r *Reconciler) CachedSnapshot(ctx context.Context, customerID uint) (json.RawMessage, error) {
	if r.rc == nil {
		return nil, fmt.Errorf("snapshot cache not available")
	}
	raw, err := r.rc.Get(ctx, SnapshotKey(customerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
