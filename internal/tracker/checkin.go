// Package tracker holds the rules of the challenge: how a day's record may
// change, and how a pile of records turns into strikes, survival days and a
// leaderboard.
//
// Everything here is a pure function of its arguments. Nothing reads the
// clock or the database; callers pass in "now" and the records they loaded.
package tracker

import (
	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/model"
)

// Elimination tells the caller that a user must be marked as failed.
// MarkPeriod never touches the user itself; the storage layer persists the
// period and users.failed_at together.
type Elimination struct {
	UserID   string     `json:"userId"`
	FailedAt model.Date `json:"failedAt"`
}

// Mark is the result of a successful MarkPeriod.
type Mark struct {
	Record      model.CheckIn
	Period      model.Period
	Outcome     model.Outcome
	Elimination *Elimination // non-nil only when Outcome is OutcomeFailed
}

// MarkPeriod applies one transition to a day's record.
//
// Each period moves Unset → Safe or Unset → Failed exactly once. Marking a
// period that already has an outcome fails with apperror.ErrAlreadyMarked;
// it never overwrites. The input record is not modified.
func MarkPeriod(record model.CheckIn, period model.Period, outcome model.Outcome) (Mark, error) {
	if !period.Valid() {
		return Mark{}, apperror.ValidationFailed("period", "period must be morning, afternoon or evening")
	}
	if outcome != model.OutcomeSafe && outcome != model.OutcomeFailed {
		return Mark{}, apperror.ValidationFailed("outcome", "outcome must be safe or failed")
	}
	if record.Outcome(period) != model.OutcomeUnset {
		return Mark{}, apperror.AlreadyMarked(string(period), record.Date.String())
	}

	m := Mark{
		Record:  record.With(period, outcome),
		Period:  period,
		Outcome: outcome,
	}
	if outcome == model.OutcomeFailed {
		m.Elimination = &Elimination{UserID: record.UserID, FailedAt: record.Date}
	}
	return m, nil
}
