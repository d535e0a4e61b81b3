package progress

import (
	"math"

	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/metrics"
)

// Completion policy tiers, evaluated in order:
//
//	daysLate 0            → on_time    ×1.0, credited
//	daysLate 1, grace     → grace      ×1.0, credited, consumes grace
//	daysLate 1, no grace  → late_1     ×0.7, not credited
//	daysLate 2–7          → late_7     ×0.5, not credited
//	daysLate 8+           → late_8plus ×0.3, not credited
//
// Grace is a rolling-weekly budget of one, reset lazily when the current
// week index moves past the stored one.

// decidePolicy picks the tier for a completion daysLate days behind today.
func decidePolicy(daysLate int, graceAvailable bool) domain.PolicyDecision {
	switch {
	case daysLate <= 0:
		return domain.PolicyDecision{XPMult: 1.0, CountsForStreak: true, Reason: domain.ReasonOnTime}
	case daysLate == 1 && graceAvailable:
		return domain.PolicyDecision{XPMult: 1.0, CountsForStreak: true, UsedGrace: true, Reason: domain.ReasonGrace, DaysLate: 1}
	case daysLate == 1:
		return domain.PolicyDecision{XPMult: 0.7, Reason: domain.ReasonLate1, DaysLate: 1}
	case daysLate <= 7:
		return domain.PolicyDecision{XPMult: 0.5, Reason: domain.ReasonLate7, DaysLate: daysLate}
	default:
		return domain.PolicyDecision{XPMult: 0.3, Reason: domain.ReasonLate8Plus, DaysLate: daysLate}
	}
}

// resetGraceIfNewWeek lazily rolls the grace budget forward. Mutates state
// but does not persist; the caller's save covers it.
func resetGraceIfNewWeek(state *domain.ProgressState) {
	week := domain.WeekIndex(state.TodayDay)
	if week != state.GraceWeekIndex {
		state.GraceWeekIndex = week
		state.GraceUsedThisWeek = 0
	}
}

// CompleteDay applies the completion policy to a target day: marks the day
// record, credits or penalizes the streak, consumes grace when the tier
// says so, and routes the XP through the guarded award path. Repeated calls
// for the same day are no-ops regardless of tier. Future days are rejected.
func (e *Engine) CompleteDay(targetDay int) (domain.CompletionResult, error) {
	if targetDay < 1 {
		return domain.CompletionResult{}, domain.ErrInvalidDay
	}
	state, err := e.store.Load()
	if err != nil {
		return domain.CompletionResult{}, err
	}
	if state == nil {
		return domain.CompletionResult{}, nil
	}
	if targetDay > state.TodayDay {
		return domain.CompletionResult{}, domain.ErrFutureDay
	}

	resetGraceIfNewWeek(state)

	// Idempotence: one completion grant per day across all tiers. A repeat
	// reports the tier that was applied, never the one a fresh call would
	// land on now.
	if entry := completionEntry(state, targetDay); entry != nil {
		metrics.AwardsDeduped.WithLabelValues(string(entry.Reason)).Inc()
		applied := domain.PolicyDecision{Reason: entry.Reason}
		if rec := state.Day(targetDay); rec != nil {
			applied.CountsForStreak = rec.CreditedToStreak
			applied.UsedGrace = rec.UsedGrace
		}
		return domain.CompletionResult{OK: true, Policy: applied}, nil
	}

	daysLate := state.TodayDay - targetDay
	decision := decidePolicy(daysLate, state.GraceUsedThisWeek == 0)

	now := e.store.Now()
	rec := state.EnsureDay(targetDay, now.Format("2006-01-02"))
	if !rec.Completed {
		rec.Completed = true
		rec.CompletedAt = now
		rec.CreditedToStreak = decision.CountsForStreak
		rec.UsedGrace = decision.UsedGrace
	}
	if decision.UsedGrace {
		state.GraceUsedThisWeek = 1
	}

	state.Streak = ComputeStreak(state.Days, 0)

	amount := int64(dayCompletionBase)
	if decision.CountsForStreak {
		amount += streakBonus(state.Streak)
	}
	gained := int64(math.Round(float64(amount) * decision.XPMult))

	award, err := e.grant(state, domain.XPEntry{
		Day:    targetDay,
		Amount: gained,
		Reason: decision.Reason,
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CompletionResult{OK: true, Policy: decision, Award: award}, nil
}

// PreviewMakeup computes the tier a completion would land on without
// mutating state or consuming grace. Used to show "what would this be
// worth" before committing.
func (e *Engine) PreviewMakeup(targetDay int) (domain.PolicyDecision, error) {
	if targetDay < 1 {
		return domain.PolicyDecision{}, domain.ErrInvalidDay
	}
	state, err := e.store.Load()
	if err != nil {
		return domain.PolicyDecision{}, err
	}
	if state == nil {
		return domain.PolicyDecision{}, domain.ErrNoState
	}
	if targetDay > state.TodayDay {
		return domain.PolicyDecision{}, domain.ErrFutureDay
	}

	// Grace counts as available if unused or stale for the current week.
	graceAvailable := state.GraceUsedThisWeek == 0 ||
		domain.WeekIndex(state.TodayDay) != state.GraceWeekIndex

	return decidePolicy(state.TodayDay-targetDay, graceAvailable), nil
}
