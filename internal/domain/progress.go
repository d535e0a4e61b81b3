// Package domain holds the progress engine's shared types.
// Types here are pure — no infrastructure dependency.
package domain

import "time"

// ─── Day Records ────────────────────────────────────────────────────────────

// DayRecord tracks one challenge day. Day numbers start at 1 and are unique
// within a ProgressState; the engine does not hard-cap them.
type DayRecord struct {
	Day              int       `json:"day"`
	Completed        bool      `json:"completed"`
	CompletedAt      time.Time `json:"completed_at"`
	CreditedToStreak bool      `json:"credited_to_streak"`
	UsedGrace        bool      `json:"used_grace"`
	HabitMinutes     int       `json:"habit_minutes,omitempty"`
	Sessions         int       `json:"sessions,omitempty"`
	DateISO          string    `json:"date_iso"`
}

// ─── Progress State ─────────────────────────────────────────────────────────

// ProgressState is the aggregate snapshot for one user's challenge.
// It is mutated only through the engine's award/completion operations.
type ProgressState struct {
	StartDateISO      string      `json:"start_date_iso"`
	TodayDay          int         `json:"today_day"` // derived from StartDateISO, never set directly
	Days              []DayRecord `json:"days"`
	Streak            int         `json:"streak"` // cached, recomputed after any day mutation
	GraceUsedThisWeek int         `json:"grace_used_this_week"`
	GraceWeekIndex    int         `json:"grace_week_index"` // week the grace counter applies to
	XP                int64       `json:"xp"`               // monotonically non-decreasing
	Level             int         `json:"level"`            // cached, always LevelForXP(XP)
	XPLog             []XPEntry   `json:"xp_log"`
}

// NewProgressState creates a fresh state anchored at the given start date.
func NewProgressState(startDateISO string) *ProgressState {
	return &ProgressState{
		StartDateISO:   startDateISO,
		TodayDay:       1,
		Level:          1,
		GraceWeekIndex: 1,
	}
}

// Day returns the record for day n, or nil if absent.
func (s *ProgressState) Day(n int) *DayRecord {
	for i := range s.Days {
		if s.Days[i].Day == n {
			return &s.Days[i]
		}
	}
	return nil
}

// EnsureDay returns the record for day n, creating it if absent.
func (s *ProgressState) EnsureDay(n int, dateISO string) *DayRecord {
	if r := s.Day(n); r != nil {
		return r
	}
	s.Days = append(s.Days, DayRecord{Day: n, DateISO: dateISO})
	return &s.Days[len(s.Days)-1]
}

// MaxDay returns the highest day number present, 0 for an empty history.
func (s *ProgressState) MaxDay() int {
	maxDay := 0
	for i := range s.Days {
		if s.Days[i].Day > maxDay {
			maxDay = s.Days[i].Day
		}
	}
	return maxDay
}

// WeekIndex returns the 1-based week for a day index (days 1–7 are week 1).
func WeekIndex(day int) int {
	if day < 1 {
		return 1
	}
	return (day + 6) / 7
}

// ─── Award Ledger ───────────────────────────────────────────────────────────

// AwardReason tags how XP was earned. The (reason, day) or (reason, week)
// pair is the ledger's de-duplication key.
type AwardReason string

const (
	ReasonOnTime      AwardReason = "on_time"
	ReasonGrace       AwardReason = "grace"
	ReasonLate1       AwardReason = "late_1"
	ReasonLate7       AwardReason = "late_7"
	ReasonLate8Plus   AwardReason = "late_8plus"
	ReasonDayComplete AwardReason = "day_complete"
	ReasonWeeklyRetro AwardReason = "weekly_retro"
	ReasonMoodCheckin AwardReason = "mood_checkin"
	ReasonTinyHabit   AwardReason = "tiny_habit"
)

// CompletionReasons are the policy tiers a day completion can be granted
// under. A day holds at most one ledger entry across all of them.
var CompletionReasons = []AwardReason{
	ReasonOnTime, ReasonGrace, ReasonLate1, ReasonLate7, ReasonLate8Plus,
}

// XPEntry is one append-only ledger record of an XP grant.
type XPEntry struct {
	ID           string      `json:"id"`
	Day          int         `json:"day,omitempty"`
	WeekIndex    int         `json:"week_index,omitempty"`
	Amount       int64       `json:"amount"`
	Reason       AwardReason `json:"reason"`
	CreatedAtISO string      `json:"created_at_iso"`
}

// ─── Operation Results ──────────────────────────────────────────────────────

// AwardResult reports the effect of a single award operation.
// A duplicate or missing-state call yields the zero value.
type AwardResult struct {
	Gained   int64 `json:"gained"`
	LevelUp  bool  `json:"level_up"`
	NewLevel int   `json:"new_level"`
}

// PolicyDecision is the completion-policy tier chosen for a target day.
type PolicyDecision struct {
	XPMult          float64     `json:"xp_mult"`
	CountsForStreak bool        `json:"counts_for_streak"`
	UsedGrace       bool        `json:"used_grace"`
	Reason          AwardReason `json:"reason"`
	DaysLate        int         `json:"days_late"`
}

// CompletionResult is returned by the policy-driven completion operation.
type CompletionResult struct {
	OK     bool           `json:"ok"`
	Policy PolicyDecision `json:"policy"`
	Award  AwardResult    `json:"award"`
}

// LevelProgress describes position within the leveling curve, for
// progress-bar rendering.
type LevelProgress struct {
	Level       int     `json:"level"`
	InLevel     int64   `json:"in_level"`
	Needed      int64   `json:"needed"`
	Pct         float64 `json:"pct"` // clamped to [0,1]
	NextLevelAt int64   `json:"next_level_at"`
}

// ─── Session ────────────────────────────────────────────────────────────────

// UserSession identifies the authenticated user a store operates for.
// Passed explicitly to constructors — there is no process-global active user.
type UserSession struct {
	UserID      string
	JourneyName string
}
