package handler

import (
	"net/http"
	"time"

	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// ChallengeHandler reports where the calendar stands relative to the
// challenge month. It is public and reads no storage.
type ChallengeHandler struct {
	challenge tracker.Challenge
	now       func() time.Time
}

func NewChallengeHandler(challenge tracker.Challenge, now func() time.Time) *ChallengeHandler {
	if now == nil {
		now = time.Now
	}
	return &ChallengeHandler{challenge: challenge, now: now}
}

type challengeResponse struct {
	Month     time.Month        `json:"month"`
	Start     model.Date        `json:"start"`
	End       model.Date        `json:"end"`
	Today     model.Date        `json:"today"`
	Phase     tracker.Phase     `json:"phase"`
	Countdown tracker.Countdown `json:"countdown"`
}

// HandleChallenge returns the phase and a countdown to the next boundary.
//
// HTTP: GET /api/challenge
func (h *ChallengeHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	today := h.challenge.Today(now)
	cd := h.challenge.Countdown(now)

	writeJSON(w, http.StatusOK, challengeResponse{
		Month:     h.challenge.Month,
		Start:     h.challenge.Start(today.Year),
		End:       h.challenge.End(today.Year),
		Today:     today,
		Phase:     cd.Phase,
		Countdown: cd,
	})
}
