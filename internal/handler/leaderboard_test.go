package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/handler"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

type row struct {
	Rank         int     `json:"rank"`
	UserID       string  `json:"userId"`
	Username     string  `json:"username"`
	DaysSurvived int     `json:"daysSurvived"`
	FailedAt     *string `json:"failedAt"`
	IsMe         bool    `json:"isMe"`
}

func TestLeaderboardHandler(t *testing.T) {
	ghID := int64(4242)
	failedAt := model.NewDate(2025, 11, 4)
	stub := &stubStandings{lb: tracker.Leaderboard{
		Active: []tracker.Standing{
			{User: model.User{ID: "u1", Username: "alice", GitHubID: &ghID}, DaysSurvived: 10},
			{User: model.User{ID: "u2", Username: "bob"}, DaysSurvived: 10},
		},
		Fallen: []tracker.Standing{
			{User: model.User{ID: "u3", Username: "carol", FailedAt: &failedAt}, DaysSurvived: 3},
		},
	}}
	h := handler.NewLeaderboardHandler(stub, testLogger)

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLeaderboard(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "4242", "account details must not leak")

		var body struct {
			Active []row `json:"active"`
			Fallen []row `json:"fallen"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Active, 2)
		require.Len(t, body.Fallen, 1)
		assert.Equal(t, 1, body.Active[0].Rank)
		assert.Equal(t, 2, body.Active[1].Rank)
		assert.False(t, body.Active[0].IsMe)
		require.NotNil(t, body.Fallen[0].FailedAt)
		assert.Equal(t, "2025-11-04", *body.Fallen[0].FailedAt)
	})

	t.Run("signed in flags own row", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), "u2"))
		rr := httptest.NewRecorder()
		h.HandleLeaderboard(rr, req)

		var body struct {
			Active []row `json:"active"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.False(t, body.Active[0].IsMe)
		assert.True(t, body.Active[1].IsMe)
	})

	t.Run("empty lists encode as arrays", func(t *testing.T) {
		h := handler.NewLeaderboardHandler(&stubStandings{}, testLogger)
		rr := httptest.NewRecorder()
		h.HandleLeaderboard(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

		assert.JSONEq(t, `{"active":[],"fallen":[]}`, rr.Body.String())
	})

	t.Run("service failure", func(t *testing.T) {
		h := handler.NewLeaderboardHandler(&stubStandings{err: errors.New("boom")}, testLogger)
		rr := httptest.NewRecorder()
		h.HandleLeaderboard(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestChallengeHandler(t *testing.T) {
	challenge := tracker.NewChallenge(time.November, time.UTC)

	tests := []struct {
		now   time.Time
		phase string
	}{
		{time.Date(2025, time.October, 31, 12, 0, 0, 0, time.UTC), "upcoming"},
		{time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC), "active"},
		{time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), "over"},
	}
	for _, tc := range tests {
		h := handler.NewChallengeHandler(challenge, func() time.Time { return tc.now })
		rr := httptest.NewRecorder()
		h.HandleChallenge(rr, httptest.NewRequest(http.MethodGet, "/api/challenge", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Month     int    `json:"month"`
			Start     string `json:"start"`
			End       string `json:"end"`
			Phase     string `json:"phase"`
			Countdown struct {
				Days int `json:"days"`
			} `json:"countdown"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.phase, body.Phase, tc.now)
		assert.Equal(t, 11, body.Month)
		assert.Equal(t, "2025-11-01", body.Start)
		assert.Equal(t, "2025-11-30", body.End)
	}

	// Nov 10 12:00 to Nov 30 23:59:59 is 20 days and change.
	h := handler.NewChallengeHandler(challenge, func() time.Time { return tests[1].now })
	rr := httptest.NewRecorder()
	h.HandleChallenge(rr, httptest.NewRequest(http.MethodGet, "/api/challenge", nil))
	assert.Contains(t, rr.Body.String(), `"days":20`)
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.NewHealthHandler(stubPinger{}, testLogger).HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.NewHealthHandler(stubPinger{err: errors.New("closed")}, testLogger).HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
