package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

type LeaderboardHandler struct {
	standings Standings
	logger    *slog.Logger
}

func NewLeaderboardHandler(standings Standings, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{standings: standings, logger: logger}
}

// leaderboardRow is the public view of a participant. Account details such
// as the GitHub ID stay out of it.
type leaderboardRow struct {
	Rank         int         `json:"rank"`
	UserID       string      `json:"userId"`
	Username     string      `json:"username"`
	AvatarURL    string      `json:"avatarUrl,omitempty"`
	DaysSurvived int         `json:"daysSurvived"`
	FailedAt     *model.Date `json:"failedAt,omitempty"`
	IsMe         bool        `json:"isMe"`
}

type leaderboardResponse struct {
	Active []leaderboardRow `json:"active"`
	Fallen []leaderboardRow `json:"fallen"`
}

// HandleLeaderboard returns the still-in list and the hall of the fallen.
//
// HTTP: GET /api/leaderboard (OptionalAuth)
// When the caller is signed in, their own row carries "isMe": true.
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.standings.Standings(r.Context())
	if err != nil {
		logAndWriteError(h.logger, w, "building leaderboard", err)
		return
	}

	me, _ := auth.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Active: toRows(lb.Active, me),
		Fallen: toRows(lb.Fallen, me),
	})
}

func toRows(standings []tracker.Standing, me string) []leaderboardRow {
	rows := make([]leaderboardRow, 0, len(standings))
	for i, s := range standings {
		rows = append(rows, leaderboardRow{
			Rank:         i + 1,
			UserID:       s.User.ID,
			Username:     s.User.Username,
			AvatarURL:    s.User.AvatarURL,
			DaysSurvived: s.DaysSurvived,
			FailedAt:     s.User.FailedAt,
			IsMe:         me != "" && s.User.ID == me,
		})
	}
	return rows
}
