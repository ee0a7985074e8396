package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/handler"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// checkInRouter mounts the handler the way the server does, with the user
// already authenticated.
func checkInRouter(stub *stubCheckIns, userID string) http.Handler {
	h := handler.NewCheckInHandler(stub, testLogger)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(auth.WithUserID(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/checkins/today", h.HandleToday)
	r.Post("/api/checkins/today/{period}", h.HandleMark)
	r.Get("/api/checkins", h.HandleMonth)
	r.Get("/api/calendar", h.HandleCalendar)
	r.Get("/api/profile", h.HandleProfile)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorKind(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestCheckInHandler_Today(t *testing.T) {
	stub := &stubCheckIns{record: &model.CheckIn{ID: "c1", UserID: "u1", Date: model.NewDate(2025, 11, 10)}}

	rr := serve(checkInRouter(stub, "u1"), http.MethodGet, "/api/checkins/today", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", stub.gotUser)
	assert.Contains(t, rr.Body.String(), `"date":"2025-11-10"`)
}

func TestCheckInHandler_RequiresUser(t *testing.T) {
	router := checkInRouter(&stubCheckIns{}, "")

	for _, path := range []string{"/api/checkins/today", "/api/checkins", "/api/calendar", "/api/profile"} {
		rr := serve(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
	rr := serve(router, http.MethodPost, "/api/checkins/today/morning", `{"outcome":"safe"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCheckInHandler_Mark(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := &stubCheckIns{record: &model.CheckIn{ID: "c1", Morning: model.OutcomeSafe}}

		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/Morning", `{"outcome":"safe"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.PeriodMorning, stub.gotPeriod)
		assert.Equal(t, model.OutcomeSafe, stub.gotOutcome)
	})

	t.Run("unknown period", func(t *testing.T) {
		stub := &stubCheckIns{}
		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/night", `{"outcome":"safe"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, stub.gotUser, "service must not be called")
	})

	t.Run("unknown outcome", func(t *testing.T) {
		stub := &stubCheckIns{}
		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/evening", `{"outcome":"maybe"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, stub.gotUser)
	})

	t.Run("already marked", func(t *testing.T) {
		stub := &stubCheckIns{err: apperror.AlreadyMarked("evening", "2025-11-10")}
		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/evening", `{"outcome":"failed"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "already_marked", errorKind(t, rr))
	})

	t.Run("eliminated", func(t *testing.T) {
		stub := &stubCheckIns{err: apperror.Forbidden("you have been eliminated")}
		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/afternoon", `{"outcome":"safe"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "forbidden", errorKind(t, rr))
	})

	t.Run("store failure", func(t *testing.T) {
		stub := &stubCheckIns{err: errors.New("sqlite: disk I/O error")}
		rr := serve(checkInRouter(stub, "u1"), http.MethodPost, "/api/checkins/today/afternoon", `{"outcome":"safe"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "internal_error", errorKind(t, rr))
	})
}

func TestCheckInHandler_MonthQuery(t *testing.T) {
	t.Run("defaults to the current challenge month", func(t *testing.T) {
		stub := &stubCheckIns{records: []model.CheckIn{}}
		rr := serve(checkInRouter(stub, "u1"), http.MethodGet, "/api/checkins", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2025, stub.gotYear)
		assert.Equal(t, time.November, stub.gotMonth)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("explicit month", func(t *testing.T) {
		stub := &stubCheckIns{records: []model.CheckIn{}}
		rr := serve(checkInRouter(stub, "u1"), http.MethodGet, "/api/checkins?year=2024&month=2", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2024, stub.gotYear)
		assert.Equal(t, time.February, stub.gotMonth)
	})

	t.Run("non-numeric", func(t *testing.T) {
		stub := &stubCheckIns{}
		rr := serve(checkInRouter(stub, "u1"), http.MethodGet, "/api/calendar?month=nov", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCheckInHandler_CalendarAndProfile(t *testing.T) {
	stub := &stubCheckIns{
		calendar: tracker.Calendar{Year: 2025, Month: time.November, LeadingBlanks: 6},
		summary:  tracker.Summary{UserID: "u1", DaysSurvived: 10, TodayStatus: tracker.TodayStrong},
	}
	router := checkInRouter(stub, "u1")

	rr := serve(router, http.MethodGet, "/api/calendar?year=2025&month=11", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"leadingBlanks":6`)

	rr = serve(router, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"daysSurvived":10`)
	assert.Contains(t, rr.Body.String(), `"todayStatus":"strong"`)
}
