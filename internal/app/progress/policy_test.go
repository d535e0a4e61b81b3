package progress_test

import (
	"errors"
	"testing"

	"github.com/momentum-app/momentum/internal/domain"
)

func TestCompleteDay_OnTime(t *testing.T) {
	e, _ := newTestEngine(t, 3)

	result, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !result.OK {
		t.Fatal("expected ok result")
	}
	if result.Policy.Reason != domain.ReasonOnTime {
		t.Errorf("reason = %s, want on_time", result.Policy.Reason)
	}
	if result.Policy.XPMult != 1.0 || !result.Policy.CountsForStreak {
		t.Errorf("unexpected policy: %+v", result.Policy)
	}
	// Days 1–2 incomplete: streak stays 0, so base only.
	if result.Award.Gained != 50 {
		t.Errorf("gained = %d, want 50", result.Award.Gained)
	}
}

func TestCompleteDay_GraceThenLate1(t *testing.T) {
	e, c := newTestEngine(t, 3)

	// First 1-day-late completion this week gets the grace.
	first, err := e.CompleteDay(2)
	if err != nil {
		t.Fatalf("complete day 2: %v", err)
	}
	if first.Policy.Reason != domain.ReasonGrace {
		t.Errorf("first reason = %s, want grace", first.Policy.Reason)
	}
	if first.Policy.XPMult != 1.0 || !first.Policy.UsedGrace || !first.Policy.CountsForStreak {
		t.Errorf("unexpected grace policy: %+v", first.Policy)
	}

	// Second 1-day-late completion in the same week pays the penalty.
	c.advanceDays(1) // today is now day 4
	second, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("complete day 3: %v", err)
	}
	if second.Policy.Reason != domain.ReasonLate1 {
		t.Errorf("second reason = %s, want late_1", second.Policy.Reason)
	}
	if second.Policy.XPMult != 0.7 || second.Policy.CountsForStreak {
		t.Errorf("unexpected late_1 policy: %+v", second.Policy)
	}
	// Not credited: base 50 × 0.7 = 35.
	if second.Award.Gained != 35 {
		t.Errorf("gained = %d, want 35", second.Award.Gained)
	}
}

func TestCompleteDay_GraceResetsNextWeek(t *testing.T) {
	e, c := newTestEngine(t, 3)

	if r, _ := e.CompleteDay(2); r.Policy.Reason != domain.ReasonGrace {
		t.Fatalf("week 1 grace not granted: %+v", r.Policy)
	}

	// Week 2: the rolling budget resets lazily.
	c.advanceDays(5) // today is now day 8
	r, err := e.CompleteDay(7)
	if err != nil {
		t.Fatalf("complete day 7: %v", err)
	}
	if r.Policy.Reason != domain.ReasonGrace {
		t.Errorf("week 2 reason = %s, want grace", r.Policy.Reason)
	}
}

func TestCompleteDay_LateTiers(t *testing.T) {
	cases := []struct {
		name       string
		targetDay  int
		wantReason domain.AwardReason
		wantMult   float64
		wantGained int64
	}{
		{"five late", 5, domain.ReasonLate7, 0.5, 25},
		{"seven late", 3, domain.ReasonLate7, 0.5, 25},
		{"eight late", 2, domain.ReasonLate8Plus, 0.3, 15},
		{"nine late", 1, domain.ReasonLate8Plus, 0.3, 15},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(t, 10)
			result, err := e.CompleteDay(tc.targetDay)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			if result.Policy.Reason != tc.wantReason {
				t.Errorf("reason = %s, want %s", result.Policy.Reason, tc.wantReason)
			}
			if result.Policy.XPMult != tc.wantMult {
				t.Errorf("mult = %v, want %v", result.Policy.XPMult, tc.wantMult)
			}
			if result.Policy.CountsForStreak {
				t.Error("late tiers must not credit the streak")
			}
			if result.Award.Gained != tc.wantGained {
				t.Errorf("gained = %d, want %d", result.Award.Gained, tc.wantGained)
			}
		})
	}
}

func TestCompleteDay_RejectsFutureDay(t *testing.T) {
	e, _ := newTestEngine(t, 10)

	if _, err := e.CompleteDay(11); !errors.Is(err, domain.ErrFutureDay) {
		t.Errorf("expected ErrFutureDay, got %v", err)
	}
}

func TestCompleteDay_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t, 3)

	first, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.Award.Gained == 0 {
		t.Fatal("first completion gained nothing")
	}

	second, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if !second.OK || second.Award.Gained != 0 {
		t.Errorf("expected ok zero-effect repeat, got %+v", second)
	}

	state, _ := e.Store().Load()
	if n := len(state.XPLog); n != 1 {
		t.Errorf("expected 1 ledger entry, got %d", n)
	}
}

func TestCompleteDay_RepeatReportsAppliedTier(t *testing.T) {
	e, c := newTestEngine(t, 3)

	first, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.Policy.Reason != domain.ReasonOnTime {
		t.Fatalf("first tier = %s, want on_time", first.Policy.Reason)
	}

	// A day later the same call would land on the grace tier. The repeat
	// must still report the on-time grant and touch nothing.
	c.advanceDays(1)
	repeat, err := e.CompleteDay(3)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if repeat.Policy.Reason != domain.ReasonOnTime || repeat.Policy.UsedGrace {
		t.Errorf("repeat reported %+v, want the applied on_time tier", repeat.Policy)
	}
	if !repeat.Policy.CountsForStreak {
		t.Error("repeat lost the streak credit of the applied tier")
	}

	// The repeat consumed nothing: the week's grace is still unspent.
	state, _ := e.Store().Load()
	if state.GraceUsedThisWeek != 0 {
		t.Error("repeat completion consumed grace")
	}
	if n := len(state.XPLog); n != 1 {
		t.Errorf("expected 1 ledger entry, got %d", n)
	}
}

func TestCompleteDay_StreakBonusAfterTwoWeeks(t *testing.T) {
	e, c := newTestEngine(t, 1)

	// Complete days 1–14 each on time.
	for day := 1; day <= 14; day++ {
		result, err := e.CompleteDay(day)
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
		if result.Policy.Reason != domain.ReasonOnTime {
			t.Fatalf("day %d reason = %s, want on_time", day, result.Policy.Reason)
		}
		c.advanceDays(1)
	}

	// Day 15: streak reaches 15, bonus floor(15/7)·10 = 20.
	result, err := e.CompleteDay(15)
	if err != nil {
		t.Fatalf("complete day 15: %v", err)
	}
	if result.Award.Gained != 70 {
		t.Errorf("gained = %d, want 70 (50 base + 20 streak bonus)", result.Award.Gained)
	}

	state, _ := e.Store().Load()
	if state.Streak != 15 {
		t.Errorf("streak = %d, want 15", state.Streak)
	}
}

func TestCompleteDay_LateBreaksStreakCredit(t *testing.T) {
	e, c := newTestEngine(t, 1)

	_, _ = e.CompleteDay(1)
	c.advanceDays(3) // today is day 4; days 2 and 3 missed

	if _, err := e.CompleteDay(2); err != nil { // 2 days late → late_7, not credited
		t.Fatalf("complete day 2: %v", err)
	}

	state, _ := e.Store().Load()
	if state.Streak != 1 {
		t.Errorf("streak = %d, want 1 (day 2 not credited)", state.Streak)
	}
	rec := state.Day(2)
	if rec == nil || !rec.Completed || rec.CreditedToStreak {
		t.Errorf("day 2 record = %+v, want completed but uncredited", rec)
	}
}

func TestPreviewMakeup_DoesNotConsumeGrace(t *testing.T) {
	e, _ := newTestEngine(t, 3)

	for i := 0; i < 2; i++ {
		decision, err := e.PreviewMakeup(2)
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if decision.Reason != domain.ReasonGrace {
			t.Errorf("preview %d reason = %s, want grace", i, decision.Reason)
		}
	}

	// The real completion still finds the grace untouched.
	result, _ := e.CompleteDay(2)
	if result.Policy.Reason != domain.ReasonGrace {
		t.Errorf("completion reason = %s, want grace", result.Policy.Reason)
	}

	// With grace spent, the preview prices the penalty tier.
	decision, _ := e.PreviewMakeup(1)
	if decision.Reason != domain.ReasonLate7 {
		t.Errorf("post-grace preview reason = %s, want late_7", decision.Reason)
	}
}

func TestPreviewMakeup_FutureDay(t *testing.T) {
	e, _ := newTestEngine(t, 3)

	if _, err := e.PreviewMakeup(4); !errors.Is(err, domain.ErrFutureDay) {
		t.Errorf("expected ErrFutureDay, got %v", err)
	}
}
