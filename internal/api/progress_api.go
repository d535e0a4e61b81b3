package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/domain"
)

// --- /api/progress/summary ---

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Store().Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, domain.ErrNoState.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"start_date_iso":       state.StartDateISO,
		"today_day":            state.TodayDay,
		"streak":               state.Streak,
		"grace_used_this_week": state.GraceUsedThisWeek,
		"xp":                   state.XP,
		"level":                progress.Progress(state.XP),
		"days_completed":       countCompleted(state),
	})
}

func countCompleted(state *domain.ProgressState) int {
	n := 0
	for i := range state.Days {
		if state.Days[i].Completed {
			n++
		}
	}
	return n
}

// --- /api/progress/days ---

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Store().Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, domain.ErrNoState.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days": state.Days,
	})
}

// --- /api/progress/days/{day}/complete ---

func (s *Server) handleCompleteDay(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.engine.CompleteDay(day)
	switch {
	case errors.Is(err, domain.ErrFutureDay), errors.Is(err, domain.ErrInvalidDay):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- /api/progress/days/{day}/preview ---

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := s.engine.PreviewMakeup(day)
	switch {
	case errors.Is(err, domain.ErrNoState):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrFutureDay), errors.Is(err, domain.ErrInvalidDay):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// --- /api/progress/awards/* ---

type awardRequest struct {
	Day  int `json:"day,omitempty"`
	Week int `json:"week,omitempty"`
}

func (s *Server) handleAwardRetro(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.engine.AwardForWeeklyRetro(req.Week)
	s.writeAwardResult(w, result, err)
}

func (s *Server) handleAwardMood(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.engine.AwardForMoodCheckin(req.Day)
	s.writeAwardResult(w, result, err)
}

func (s *Server) handleAwardTiny(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.engine.AwardForTinyHabit(req.Day)
	s.writeAwardResult(w, result, err)
}

func (s *Server) writeAwardResult(w http.ResponseWriter, result domain.AwardResult, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDay):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// --- /api/progress/refresh ---

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "remote sync disabled")
		return
	}
	state, err := s.sync.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"today_day": state.TodayDay,
		"streak":    state.Streak,
		"xp":        state.XP,
		"level":     state.Level,
	})
}

// --- /api/progress/sync/stats ---

func (s *Server) handleSyncStats(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "remote sync disabled")
		return
	}
	recent, err := s.db.RecentSyncLog(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  s.sync.Stats(),
		"recent": recent,
	})
}

// dayParam parses the {day} route parameter.
func dayParam(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, errors.New("day must be an integer")
	}
	return day, nil
}
