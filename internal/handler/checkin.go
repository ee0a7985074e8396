package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/model"
)

// CheckInHandler serves the signed-in user's own records. Every route sits
// behind RequireAuth.
type CheckInHandler struct {
	checkins CheckIns
	logger   *slog.Logger
}

func NewCheckInHandler(checkins CheckIns, logger *slog.Logger) *CheckInHandler {
	return &CheckInHandler{checkins: checkins, logger: logger}
}

type markRequest struct {
	Outcome string `json:"outcome"`
}

// HandleToday returns today's record, creating a blank one if needed.
//
// HTTP: GET /api/checkins/today
func (h *CheckInHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.checkins.Today(r.Context(), userID)
	if err != nil {
		logAndWriteError(h.logger, w, "loading today's check-in", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleMark records one period of today.
//
// HTTP: POST /api/checkins/today/{period} {"outcome": "safe" | "failed"}
//
// 409 already_marked when the period is set, 403 forbidden once eliminated.
func (h *CheckInHandler) HandleMark(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("period", "period must be morning, afternoon or evening"))
		return
	}

	var req markRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	outcome, err := model.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, apperror.ValidationFailed("outcome", `outcome must be "safe" or "failed"`))
		return
	}

	rec, err := h.checkins.Mark(r.Context(), userID, period, outcome)
	if err != nil {
		logAndWriteError(h.logger, w, "marking period", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleMonth lists the records of one month.
//
// HTTP: GET /api/checkins?year=2025&month=11
// Both parameters default to the current challenge month.
func (h *CheckInHandler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	year, month, err := h.yearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.checkins.Month(r.Context(), userID, year, month)
	if err != nil {
		logAndWriteError(h.logger, w, "listing check-ins", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleCalendar returns the month grid.
//
// HTTP: GET /api/calendar?year=2025&month=11
func (h *CheckInHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	year, month, err := h.yearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cal, err := h.checkins.Calendar(r.Context(), userID, year, month)
	if err != nil {
		logAndWriteError(h.logger, w, "building calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// HandleProfile returns the profile summary.
//
// HTTP: GET /api/profile
func (h *CheckInHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.checkins.Summary(r.Context(), userID)
	if err != nil {
		logAndWriteError(h.logger, w, "building profile", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *CheckInHandler) yearMonth(r *http.Request) (int, time.Month, error) {
	year, month := h.checkins.CurrentMonth()
	q := r.URL.Query()

	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperror.ValidationFailed("year", "year must be a number")
		}
		year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperror.ValidationFailed("month", "month must be a number")
		}
		month = time.Month(m)
	}
	return year, month, nil
}
