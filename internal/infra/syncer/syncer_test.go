package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/remote"
	"github.com/momentum-app/momentum/internal/infra/sqlite"
	"github.com/momentum-app/momentum/internal/infra/syncer"
)

// fakeBackend is an in-memory remote.Backend that can fail on demand.
type fakeBackend struct {
	mu        sync.Mutex
	failNext  int // fail this many upserts before succeeding
	pushCalls int
	summaries []remote.ProfileSummary
	rows      map[int]remote.DayRow

	fetchRows []remote.DayRow
	aggXP     int64
	hasAggXP  bool
	startDate string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: make(map[int]remote.DayRow)}
}

func (f *fakeBackend) UpsertProfileSummary(ctx context.Context, s remote.ProfileSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	if f.failNext > 0 {
		f.failNext--
		return errors.New("backend unavailable")
	}
	f.summaries = append(f.summaries, s)
	return nil
}

func (f *fakeBackend) UpsertDayRow(ctx context.Context, row remote.DayRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row.Day] = row
	return nil
}

func (f *fakeBackend) FetchDayRows(ctx context.Context, userID string) ([]remote.DayRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchRows, nil
}

func (f *fakeBackend) FetchAggregateXP(ctx context.Context, userID string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aggXP, f.hasAggXP, nil
}

func (f *fakeBackend) FetchEnrollmentStartDate(ctx context.Context, userID, journey string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startDate, f.startDate != "", nil
}

func (f *fakeBackend) pushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushCalls
}

func (f *fakeBackend) summaryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}

// newTestSyncer wires a store, fake backend, and syncer with fast timings.
func newTestSyncer(t *testing.T, backend *fakeBackend, cfg syncer.Config) (*progress.Store, *sqlite.DB, *syncer.Syncer) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := progress.NewStore(db, domain.UserSession{UserID: "u1", JourneyName: "challenge30"})
	store.Now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	s := syncer.New(store, backend, db, cfg)
	t.Cleanup(s.Close)
	store.SetPusher(s)
	return store, db, s
}

func fastConfig() syncer.Config {
	return syncer.Config{
		Debounce: 50 * time.Millisecond,
		Retry: syncer.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
		},
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSyncer_DebouncedPushCoalesces(t *testing.T) {
	backend := newFakeBackend()
	store, _, _ := newTestSyncer(t, backend, fastConfig())

	state := domain.NewProgressState("2025-07-01")

	// Five rapid saves inside one debounce window.
	for i := 0; i < 5; i++ {
		state.XP = int64(i * 10)
		if err := store.Save(state); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	waitFor(t, 2*time.Second, func() bool { return backend.summaryCount() > 0 })

	// The window coalesced everything into one push.
	time.Sleep(100 * time.Millisecond)
	if got := backend.summaryCount(); got != 1 {
		t.Errorf("expected 1 coalesced push, got %d", got)
	}

	// The push carried the latest snapshot.
	backend.mu.Lock()
	last := backend.summaries[len(backend.summaries)-1]
	backend.mu.Unlock()
	if last.XP != 40 {
		t.Errorf("pushed XP = %d, want 40 (latest save)", last.XP)
	}
}

func TestSyncer_RetriesWithBackoff(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext = 2
	store, db, s := newTestSyncer(t, backend, fastConfig())

	if err := store.Save(domain.NewProgressState("2025-07-01")); err != nil {
		t.Fatalf("save: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return s.Stats().Pushed == 1 })

	if got := backend.pushes(); got != 3 {
		t.Errorf("expected 3 attempts (2 failures + success), got %d", got)
	}
	stats := s.Stats()
	if stats.Retried != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 retried, 0 failed", stats)
	}

	// Every attempt is observable in the sync log.
	recent, err := db.RecentSyncLog(10)
	if err != nil {
		t.Fatalf("sync log: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 log entries, got %d", len(recent))
	}
}

func TestSyncer_ExhaustedPushDropped(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext = 100
	store, _, s := newTestSyncer(t, backend, fastConfig())

	if err := store.Save(domain.NewProgressState("2025-07-01")); err != nil {
		t.Fatalf("save: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return s.Stats().Failed == 1 })

	if got := backend.pushes(); got != 3 {
		t.Errorf("expected MaxAttempts=3 attempts, got %d", got)
	}
	if s.Stats().Pushed != 0 {
		t.Errorf("expected no successful pushes, got %d", s.Stats().Pushed)
	}
}

func TestSyncer_PushMirrorsDayRows(t *testing.T) {
	backend := newFakeBackend()
	store, _, s := newTestSyncer(t, backend, fastConfig())

	state := domain.NewProgressState("2025-07-01")
	rec := state.EnsureDay(1, "2025-07-01")
	rec.Completed = true
	rec.CreditedToStreak = true
	rec.HabitMinutes = 25
	if err := store.Save(state); err != nil {
		t.Fatalf("save: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return s.Stats().Pushed == 1 })

	backend.mu.Lock()
	row, ok := backend.rows[1]
	backend.mu.Unlock()
	if !ok {
		t.Fatal("day 1 row not mirrored")
	}
	if row.UserID != "u1" || !row.Completed || !row.CreditedToStreak || row.HabitMinutes != 25 {
		t.Errorf("mirrored row = %+v", row)
	}
}

func TestSyncer_RefreshMergesRemote(t *testing.T) {
	backend := newFakeBackend()
	store, _, s := newTestSyncer(t, backend, fastConfig())

	// Local copy: day 1 completed, 50 XP.
	state := domain.NewProgressState("2025-07-01")
	rec := state.EnsureDay(1, "2025-07-01")
	rec.Completed = true
	rec.CreditedToStreak = true
	state.XP = 50
	state.Streak = 1
	if err := store.SaveQuiet(state); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Remote copy: day 1 overridden (not credited), day 2 new, higher
	// aggregate XP from another device, and a shifted enrollment date.
	backend.fetchRows = []remote.DayRow{
		{UserID: "u1", Day: 1, DateISO: "2025-07-03", Completed: true, CreditedToStreak: false},
		{UserID: "u1", Day: 2, DateISO: "2025-07-04", Completed: true, CreditedToStreak: true},
	}
	backend.aggXP = 500
	backend.hasAggXP = true
	backend.startDate = "2025-07-03"

	merged, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Remote wins field-by-field.
	d1 := merged.Day(1)
	if d1 == nil || d1.CreditedToStreak {
		t.Errorf("day 1 = %+v, want remote un-credit applied", d1)
	}
	if merged.Day(2) == nil {
		t.Error("day 2 not created from remote row")
	}
	// Day 1 uncredited breaks the streak at 0.
	if merged.Streak != 0 {
		t.Errorf("streak = %d, want 0", merged.Streak)
	}
	// Remote aggregate overwrites XP and level outright.
	if merged.XP != 500 || merged.Level != progress.LevelForXP(500) {
		t.Errorf("xp/level = %d/%d, want 500/%d", merged.XP, merged.Level, progress.LevelForXP(500))
	}
	// Enrollment date re-anchors today's index: July 3 → July 10 is day 8.
	if merged.StartDateISO != "2025-07-03" || merged.TodayDay != 8 {
		t.Errorf("start/today = %s/%d, want 2025-07-03/8", merged.StartDateISO, merged.TodayDay)
	}

	// Refresh persists without an outbound push.
	time.Sleep(100 * time.Millisecond)
	if backend.pushes() != 0 {
		t.Errorf("refresh triggered %d outbound pushes, want 0", backend.pushes())
	}
}

func TestSyncer_RefreshWithoutLocalState(t *testing.T) {
	backend := newFakeBackend()
	backend.fetchRows = []remote.DayRow{
		{UserID: "u1", Day: 1, Completed: true, CreditedToStreak: true},
	}
	backend.startDate = "2025-07-09"
	_, _, s := newTestSyncer(t, backend, fastConfig())

	merged, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if merged.Streak != 1 || merged.TodayDay != 2 {
		t.Errorf("streak/today = %d/%d, want 1/2", merged.Streak, merged.TodayDay)
	}
}
