// Package progress implements the Momentum progress engine: streaks, the
// leveling curve, the award ledger guard, and the completion policy.
// Design rule: every award path is idempotent — replaying an operation for
// the same day or week is a no-op.
package progress

import "github.com/momentum-app/momentum/internal/domain"

// ComputeStreak returns the contiguous-completion streak anchored at day 1.
// It walks day = 1, 2, 3, ... up to upToDay (or the highest day present when
// upToDay <= 0) and stops at the first day that is missing, not completed,
// or not credited to the streak. A completed day 5 with days 1–4 incomplete
// therefore contributes 0, not 1.
func ComputeStreak(days []domain.DayRecord, upToDay int) int {
	byDay := make(map[int]*domain.DayRecord, len(days))
	maxDay := 0
	for i := range days {
		byDay[days[i].Day] = &days[i]
		if days[i].Day > maxDay {
			maxDay = days[i].Day
		}
	}

	if upToDay <= 0 {
		upToDay = maxDay
	}

	streak := 0
	for day := 1; day <= upToDay; day++ {
		rec, ok := byDay[day]
		if !ok || !rec.Completed || !rec.CreditedToStreak {
			break // absent records are breaks, not errors
		}
		streak++
	}
	return streak
}
