package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/metrics"
)

// Award amounts. IDs and amounts are stable because persisted ledgers and
// remote rows reference them.
const (
	dayCompletionBase = 50
	weeklyRetroXP     = 20
	moodCheckinXP     = 5
	tinyHabitXP       = 10

	maxStreakBonus = 30 // streak bonus caps at +30 XP
	ledgerLimit    = 200
)

// Engine runs the award and completion operations over a Store.
// Every operation follows the same guarded shape: missing state and
// duplicate awards both yield a zero-effect result, never an error.
type Engine struct {
	store *Store
}

// NewEngine creates an engine over the given store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Store returns the underlying state store.
func (e *Engine) Store() *Store { return e.store }

// streakBonus returns the day-completion bonus: +10 XP per full streak
// week, capped.
func streakBonus(streak int) int64 {
	bonus := int64(streak / 7 * 10)
	if bonus > maxStreakBonus {
		bonus = maxStreakBonus
	}
	return bonus
}

// hasDayEntry reports whether the ledger already holds a (reason, day) grant.
func hasDayEntry(state *domain.ProgressState, reason domain.AwardReason, day int) bool {
	for i := range state.XPLog {
		if state.XPLog[i].Reason == reason && state.XPLog[i].Day == day {
			return true
		}
	}
	return false
}

// hasWeekEntry reports whether the ledger already holds a (reason, week) grant.
func hasWeekEntry(state *domain.ProgressState, reason domain.AwardReason, week int) bool {
	for i := range state.XPLog {
		if state.XPLog[i].Reason == reason && state.XPLog[i].WeekIndex == week {
			return true
		}
	}
	return false
}

// completionEntry returns the day's existing completion grant, if any. A day
// holds at most one such entry regardless of which tier it landed on.
func completionEntry(state *domain.ProgressState, day int) *domain.XPEntry {
	for i := range state.XPLog {
		if state.XPLog[i].Day != day {
			continue
		}
		for _, reason := range domain.CompletionReasons {
			if state.XPLog[i].Reason == reason {
				return &state.XPLog[i]
			}
		}
	}
	return nil
}

// grant applies an XP entry to the state: adds XP, recomputes the level,
// appends to the bounded ledger, and persists. The ledger guard must have
// run before calling.
func (e *Engine) grant(state *domain.ProgressState, entry domain.XPEntry) (domain.AwardResult, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAtISO = e.store.Now().UTC().Format(time.RFC3339)

	oldLevel := state.Level
	state.XP += entry.Amount
	state.Level = LevelForXP(state.XP)

	state.XPLog = append(state.XPLog, entry)
	if len(state.XPLog) > ledgerLimit {
		state.XPLog = state.XPLog[len(state.XPLog)-ledgerLimit:]
	}

	if err := e.store.Save(state); err != nil {
		return domain.AwardResult{}, err
	}

	metrics.AwardsGranted.WithLabelValues(string(entry.Reason)).Inc()
	metrics.XPGranted.Add(float64(entry.Amount))

	result := domain.AwardResult{
		Gained:   entry.Amount,
		LevelUp:  state.Level > oldLevel,
		NewLevel: state.Level,
	}
	if result.LevelUp {
		metrics.LevelUps.Inc()
	}
	return result, nil
}

// AwardForDayCompletion grants the on-time day completion award:
// base 50 plus the streak bonus. At most once per day.
func (e *Engine) AwardForDayCompletion(day int) (domain.AwardResult, error) {
	if day < 1 {
		return domain.AwardResult{}, domain.ErrInvalidDay
	}
	state, err := e.store.Load()
	if err != nil || state == nil {
		return domain.AwardResult{}, err
	}
	if hasDayEntry(state, domain.ReasonDayComplete, day) {
		metrics.AwardsDeduped.WithLabelValues(string(domain.ReasonDayComplete)).Inc()
		return domain.AwardResult{}, nil
	}

	amount := dayCompletionBase + streakBonus(state.Streak)
	return e.grant(state, domain.XPEntry{
		Day:    day,
		Amount: amount,
		Reason: domain.ReasonDayComplete,
	})
}

// AwardForWeeklyRetro grants the weekly retrospective award, at most once
// per week index.
func (e *Engine) AwardForWeeklyRetro(weekIndex int) (domain.AwardResult, error) {
	if weekIndex < 1 {
		return domain.AwardResult{}, domain.ErrInvalidDay
	}
	state, err := e.store.Load()
	if err != nil || state == nil {
		return domain.AwardResult{}, err
	}
	if hasWeekEntry(state, domain.ReasonWeeklyRetro, weekIndex) {
		metrics.AwardsDeduped.WithLabelValues(string(domain.ReasonWeeklyRetro)).Inc()
		return domain.AwardResult{}, nil
	}

	return e.grant(state, domain.XPEntry{
		WeekIndex: weekIndex,
		Amount:    weeklyRetroXP,
		Reason:    domain.ReasonWeeklyRetro,
	})
}

// AwardForMoodCheckin grants the mood check-in award, at most once per day.
func (e *Engine) AwardForMoodCheckin(day int) (domain.AwardResult, error) {
	return e.awardFlatForDay(day, domain.ReasonMoodCheckin, moodCheckinXP)
}

// AwardForTinyHabit grants the tiny-habit award, at most once per day.
func (e *Engine) AwardForTinyHabit(day int) (domain.AwardResult, error) {
	return e.awardFlatForDay(day, domain.ReasonTinyHabit, tinyHabitXP)
}

func (e *Engine) awardFlatForDay(day int, reason domain.AwardReason, amount int64) (domain.AwardResult, error) {
	if day < 1 {
		return domain.AwardResult{}, domain.ErrInvalidDay
	}
	state, err := e.store.Load()
	if err != nil || state == nil {
		return domain.AwardResult{}, err
	}
	if hasDayEntry(state, reason, day) {
		metrics.AwardsDeduped.WithLabelValues(string(reason)).Inc()
		return domain.AwardResult{}, nil
	}

	return e.grant(state, domain.XPEntry{
		Day:    day,
		Amount: amount,
		Reason: reason,
	})
}
