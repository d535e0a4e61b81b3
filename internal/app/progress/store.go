package progress

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/metrics"
	"github.com/momentum-app/momentum/internal/infra/sqlite"
)

// snapshotKeyBase prefixes every per-user snapshot key. Snapshots written
// before users were namespaced live under the bare base key and are
// migrated on first load.
const snapshotKeyBase = "progress"

// challengeDays is the conventional length of a challenge. Only the derived
// "today" index is clamped to it; day records beyond it are not rejected.
const challengeDays = 30

// Pusher is the outbound half of the reconciliation service. Save calls
// Notify after each successful local write.
type Pusher interface {
	Notify()
}

// Store is the single point of truth for the serialized snapshot.
// It is constructed with an explicit session — there is no process-global
// active user or storage key.
type Store struct {
	db      *sqlite.DB
	session domain.UserSession

	// Now is the clock used to derive today's day index. Overridable in
	// tests.
	Now func() time.Time

	mu        sync.Mutex
	listeners []func(domain.ProgressState)
	pusher    Pusher
}

// NewStore creates a store bound to one user session.
func NewStore(db *sqlite.DB, session domain.UserSession) *Store {
	return &Store{db: db, session: session, Now: time.Now}
}

// Session returns the session this store operates for.
func (s *Store) Session() domain.UserSession { return s.session }

// SetPusher wires the outbound reconciliation trigger. Optional; a store
// without a pusher simply persists locally.
func (s *Store) SetPusher(p Pusher) { s.pusher = p }

// Subscribe registers a listener invoked after every persisted update.
// Listeners receive a value copy and run synchronously on the saving call.
func (s *Store) Subscribe(fn func(domain.ProgressState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// key returns the namespaced snapshot key for this session. A session with
// no user yet falls back to the legacy un-namespaced key.
func (s *Store) key() string {
	if s.session.UserID == "" {
		return snapshotKeyBase
	}
	return snapshotKeyBase + ":" + s.session.UserID
}

// Load reads the snapshot for this session, migrating a legacy
// un-namespaced snapshot into the namespaced key the first time a user is
// identified. Returns (nil, nil) when no snapshot exists. TodayDay is
// re-derived from the start date on every load.
func (s *Store) Load() (*domain.ProgressState, error) {
	raw, err := s.db.GetProgress(s.key())
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if raw == "" && s.session.UserID != "" {
		raw, err = s.migrateLegacy()
		if err != nil {
			return nil, err
		}
	}
	if raw == "" {
		return nil, nil
	}

	var state domain.ProgressState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	state.TodayDay = TodayDayAt(state.StartDateISO, s.Now())
	return &state, nil
}

// migrateLegacy copies a pre-namespacing snapshot into this session's key,
// then deletes the legacy key. Returns the raw document ("" if none).
func (s *Store) migrateLegacy() (string, error) {
	raw, err := s.db.GetProgress(snapshotKeyBase)
	if err != nil {
		return "", fmt.Errorf("load legacy snapshot: %w", err)
	}
	if raw == "" {
		return "", nil
	}
	if err := s.db.SetProgress(s.key(), raw); err != nil {
		return "", fmt.Errorf("migrate legacy snapshot: %w", err)
	}
	if err := s.db.DeleteProgress(snapshotKeyBase); err != nil {
		return "", fmt.Errorf("delete legacy snapshot: %w", err)
	}
	return raw, nil
}

// Init loads the snapshot, creating a fresh one anchored at startDateISO
// (today when empty) if none exists yet.
func (s *Store) Init(startDateISO string) (*domain.ProgressState, error) {
	state, err := s.Load()
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	if startDateISO == "" {
		startDateISO = s.Now().Format("2006-01-02")
	}
	state = domain.NewProgressState(startDateISO)
	state.TodayDay = TodayDayAt(startDateISO, s.Now())
	if err := s.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Save persists the snapshot, notifies listeners, and triggers the outbound
// reconciliation push.
func (s *Store) Save(state *domain.ProgressState) error {
	if err := s.persist(state); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.Notify()
	}
	return nil
}

// SaveQuiet persists and notifies listeners without triggering an outbound
// push. Used by inbound reconciliation, whose writes originate remotely.
func (s *Store) SaveQuiet(state *domain.ProgressState) error {
	return s.persist(state)
}

func (s *Store) persist(state *domain.ProgressState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.db.SetProgress(s.key(), string(raw)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	metrics.CurrentLevel.Set(float64(state.Level))
	metrics.CurrentStreak.Set(float64(state.Streak))

	s.mu.Lock()
	listeners := make([]func(domain.ProgressState), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(*state)
	}
	return nil
}

// Reload re-reads the snapshot from storage and replays it to listeners.
// Hosts call this instead of relying on ambient storage-change events.
func (s *Store) Reload() (*domain.ProgressState, error) {
	state, err := s.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrNoState
	}

	s.mu.Lock()
	listeners := make([]func(domain.ProgressState), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(*state)
	}
	return state, nil
}

// TodayDayAt derives the 1-based challenge day index from the enrollment
// start date, clamped to [1, challengeDays]. An unparseable start date
// yields day 1.
func TodayDayAt(startDateISO string, now time.Time) int {
	start, err := time.Parse("2006-01-02", startDateISO)
	if err != nil {
		return 1
	}

	// Calendar-day difference. Both midnights are rebuilt in UTC so a DST
	// transition in now's zone cannot skew the 24h division.
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := int(nowDate.Sub(startDate).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	if day > challengeDays {
		return challengeDays
	}
	return day
}
