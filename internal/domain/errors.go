package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// ErrFutureDay is returned when a completion targets a day beyond the
	// current challenge day. The engine enforces this invariant itself
	// rather than trusting every caller to gate it.
	ErrFutureDay = errors.New("cannot complete a future day")

	// ErrInvalidDay is returned for day indexes below 1.
	ErrInvalidDay = errors.New("day index must be >= 1")

	// ErrNoState indicates no snapshot exists for the session. Award
	// operations absorb this into a zero-effect result; it surfaces only
	// from explicit loads.
	ErrNoState = errors.New("no progress state for user")
)
