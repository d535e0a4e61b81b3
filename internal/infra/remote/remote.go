// Package remote defines the boundary to the authoritative backend and its
// HTTP implementation. The backend owns per-day completion rows, an
// aggregate XP total, and enrollment start dates; the engine mirrors its
// snapshot outward and treats remote values as authoritative on refresh.
package remote

import (
	"context"
	"time"
)

// ProfileSummary is the aggregate upsert a snapshot push sends.
type ProfileSummary struct {
	UserID   string `json:"user_id"`
	Level    int    `json:"level"`
	XP       int64  `json:"xp"`
	Streak   int    `json:"streak"`
	TodayDay int    `json:"today_day"`
}

// DayRow is one per-day record in the remote table, keyed by (user, day).
type DayRow struct {
	UserID           string    `json:"user_id"`
	Day              int       `json:"day"`
	DateISO          string    `json:"date_iso"`
	Completed        bool      `json:"completed"`
	CreditedToStreak bool      `json:"credited_to_streak"`
	UsedGrace        bool      `json:"used_grace"`
	HabitMinutes     int       `json:"habit_minutes,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// Backend is the narrow surface the reconciliation service consumes.
// Implementations must make UpsertDayRow idempotent per (user, day).
type Backend interface {
	UpsertProfileSummary(ctx context.Context, summary ProfileSummary) error
	UpsertDayRow(ctx context.Context, row DayRow) error
	FetchDayRows(ctx context.Context, userID string) ([]DayRow, error)

	// FetchAggregateXP returns (xp, true) when the backend has an
	// aggregate total for the user, (0, false) when it has none.
	FetchAggregateXP(ctx context.Context, userID string) (int64, bool, error)

	// FetchEnrollmentStartDate returns the authoritative enrollment start
	// date ("2006-01-02") for a journey, or ("", false) when unknown.
	FetchEnrollmentStartDate(ctx context.Context, userID, journey string) (string, bool, error)
}
