// Package syncer implements the reconciliation service: a debounced,
// coalesced outbound push of the local snapshot through a bounded-retry
// outbox, and an inbound merge that treats the remote copy as
// authoritative. Push failures are retried with exponential backoff and
// recorded in the sync log rather than silently dropped.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/metrics"
	"github.com/momentum-app/momentum/internal/infra/remote"
	"github.com/momentum-app/momentum/internal/infra/sqlite"
)

// RetryConfig bounds the outbox retry behavior.
type RetryConfig struct {
	MaxAttempts int           // attempts per push before giving up
	BaseDelay   time.Duration // initial backoff delay (doubles each retry)
	MaxDelay    time.Duration // cap on backoff delay
}

// DefaultRetryConfig returns production retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Config configures the syncer.
type Config struct {
	Debounce    time.Duration // outbound push debounce window
	PushTimeout time.Duration // per-attempt deadline
	Retry       RetryConfig
}

// DefaultConfig returns production syncer defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:    300 * time.Millisecond,
		PushTimeout: 30 * time.Second,
		Retry:       DefaultRetryConfig(),
	}
}

// Stats is a snapshot of outbox counters.
type Stats struct {
	Pushed  int64 `json:"pushed"`
	Failed  int64 `json:"failed"`
	Retried int64 `json:"retried"`
}

// Syncer mirrors the local snapshot to the authoritative backend and pulls
// the authoritative copy back in.
type Syncer struct {
	store   *progress.Store
	backend remote.Backend
	db      *sqlite.DB
	cfg     Config

	mu    sync.Mutex
	timer *time.Timer

	jobs chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	pushed  atomic.Int64
	failed  atomic.Int64
	retried atomic.Int64
}

// New creates a syncer and starts its outbox worker. Callers must Close it.
func New(store *progress.Store, backend remote.Backend, db *sqlite.DB, cfg Config) *Syncer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	s := &Syncer{
		store:   store,
		backend: backend,
		db:      db,
		cfg:     cfg,
		jobs:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Notify schedules an outbound push after the debounce window. Rapid
// successive saves coalesce into a single push; a new save resets the
// window. Satisfies progress.Pusher.
func (s *Syncer) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		s.timer = time.AfterFunc(s.cfg.Debounce, s.enqueue)
		return
	}
	s.timer.Reset(s.cfg.Debounce)
}

// enqueue hands the push to the worker. The channel holds one slot, so a
// push already queued absorbs the new request.
func (s *Syncer) enqueue() {
	select {
	case s.jobs <- struct{}{}:
	default:
	}
}

func (s *Syncer) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.jobs:
			s.push()
		}
	}
}

// push snapshots the current state and mirrors it outward, retrying with
// exponential backoff. Exhausted pushes are dropped; the next local
// mutation schedules a fresh one.
func (s *Syncer) push() {
	state, err := s.store.Load()
	if err != nil {
		log.Printf("[syncer] load before push: %v", err)
		return
	}
	if state == nil {
		return
	}

	jobID := uuid.NewString()
	delay := s.cfg.Retry.BaseDelay

	for attempt := 1; attempt <= s.cfg.Retry.MaxAttempts; attempt++ {
		start := time.Now()
		err := s.pushOnce(state)
		metrics.SyncPushDuration.Observe(time.Since(start).Seconds())
		s.logAttempt(jobID, attempt, err)

		if err == nil {
			s.pushed.Add(1)
			metrics.SyncPushes.WithLabelValues("ok").Inc()
			return
		}

		log.Printf("[syncer] push attempt %d/%d failed: %v",
			attempt, s.cfg.Retry.MaxAttempts, err)

		if attempt == s.cfg.Retry.MaxAttempts {
			break
		}
		s.retried.Add(1)
		metrics.SyncRetries.Inc()

		select {
		case <-s.done:
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.cfg.Retry.MaxDelay {
			delay = s.cfg.Retry.MaxDelay
		}
	}

	s.failed.Add(1)
	metrics.SyncPushes.WithLabelValues("failed").Inc()
	log.Printf("[syncer] push dropped after %d attempts", s.cfg.Retry.MaxAttempts)
}

// pushOnce upserts the profile summary and every day record.
func (s *Syncer) pushOnce(state *domain.ProgressState) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PushTimeout)
	defer cancel()

	userID := s.store.Session().UserID

	err := s.backend.UpsertProfileSummary(ctx, remote.ProfileSummary{
		UserID:   userID,
		Level:    state.Level,
		XP:       state.XP,
		Streak:   state.Streak,
		TodayDay: state.TodayDay,
	})
	if err != nil {
		return err
	}

	for i := range state.Days {
		d := &state.Days[i]
		err := s.backend.UpsertDayRow(ctx, remote.DayRow{
			UserID:           userID,
			Day:              d.Day,
			DateISO:          d.DateISO,
			Completed:        d.Completed,
			CreditedToStreak: d.CreditedToStreak,
			UsedGrace:        d.UsedGrace,
			HabitMinutes:     d.HabitMinutes,
			CompletedAt:      d.CompletedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) logAttempt(jobID string, attempt int, pushErr error) {
	entry := sqlite.SyncLogEntry{
		ID:        fmt.Sprintf("%s-%d", jobID, attempt),
		Kind:      "push",
		Attempt:   attempt,
		OK:        pushErr == nil,
		CreatedAt: time.Now(),
	}
	if pushErr != nil {
		entry.Error = pushErr.Error()
	}
	if err := s.db.InsertSyncLog(entry); err != nil {
		log.Printf("[syncer] record sync log: %v", err)
	}
}

// Refresh pulls the authoritative remote copy and merges it into the local
// snapshot: day rows overwrite local records field-by-field, the remote
// aggregate XP overwrites the local total outright, and the enrollment
// start date re-anchors today's day index. The merged snapshot is saved
// without re-triggering an outbound push.
func (s *Syncer) Refresh(ctx context.Context) (*domain.ProgressState, error) {
	userID := s.store.Session().UserID

	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = domain.NewProgressState(s.store.Now().Format("2006-01-02"))
	}

	rows, err := s.backend.FetchDayRows(ctx, userID)
	if err != nil {
		metrics.SyncPulls.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("fetch day rows: %w", err)
	}
	for _, row := range rows {
		rec := state.EnsureDay(row.Day, row.DateISO)
		rec.Completed = row.Completed
		rec.CompletedAt = row.CompletedAt
		rec.CreditedToStreak = row.CreditedToStreak
		rec.UsedGrace = row.UsedGrace
		rec.HabitMinutes = row.HabitMinutes
		if row.DateISO != "" {
			rec.DateISO = row.DateISO
		}
	}
	state.Streak = progress.ComputeStreak(state.Days, 0)

	// The remote total is authoritative — XP earned on another device must
	// not be double-counted locally.
	if xp, ok, err := s.backend.FetchAggregateXP(ctx, userID); err != nil {
		log.Printf("[syncer] fetch aggregate xp: %v", err)
	} else if ok {
		state.XP = xp
		state.Level = progress.LevelForXP(xp)
	}

	if start, ok, err := s.backend.FetchEnrollmentStartDate(ctx, userID, s.store.Session().JourneyName); err != nil {
		log.Printf("[syncer] fetch enrollment start: %v", err)
	} else if ok {
		state.StartDateISO = start
		state.TodayDay = progress.TodayDayAt(start, s.store.Now())
	}

	if err := s.store.SaveQuiet(state); err != nil {
		metrics.SyncPulls.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.SyncPulls.WithLabelValues("ok").Inc()
	return state, nil
}

// Stats returns a snapshot of the outbox counters.
func (s *Syncer) Stats() Stats {
	return Stats{
		Pushed:  s.pushed.Load(),
		Failed:  s.failed.Load(),
		Retried: s.retried.Load(),
	}
}

// Close stops the worker. A pending debounce is flushed synchronously so a
// just-saved snapshot is not lost on shutdown.
func (s *Syncer) Close() {
	s.mu.Lock()
	pending := false
	if s.timer != nil {
		pending = s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	if pending {
		s.push()
	}
}
