package tracker

import (
	"sort"

	"github.com/sakif/checkin-tracker/internal/model"
)

// FailureThreshold is the number of strikes that ends a user's challenge.
const FailureThreshold = 3

// SafePeriodsForDay counts the periods of record marked safe (0..3).
func SafePeriodsForDay(record model.CheckIn) int {
	return countOutcome(record, model.OutcomeSafe)
}

// FailedPeriodForDay returns the first failed period in morning, afternoon,
// evening order. When more than one period failed only the first is
// reported; use CountFailures for the tally.
func FailedPeriodForDay(record model.CheckIn) (model.Period, bool) {
	for _, p := range model.Periods {
		if record.Outcome(p) == model.OutcomeFailed {
			return p, true
		}
	}
	return "", false
}

// CountFailures sums failed periods over all records. Two failed periods on
// one day are two strikes.
func CountFailures(records []model.CheckIn) int {
	n := 0
	for _, r := range records {
		n += countOutcome(r, model.OutcomeFailed)
	}
	return n
}

// CountSafe sums safe periods over all records.
func CountSafe(records []model.CheckIn) int {
	n := 0
	for _, r := range records {
		n += countOutcome(r, model.OutcomeSafe)
	}
	return n
}

func countOutcome(record model.CheckIn, want model.Outcome) int {
	n := 0
	for _, p := range model.Periods {
		if record.Outcome(p) == want {
			n++
		}
	}
	return n
}

// IsEliminated reports whether the user is out of the challenge.
//
// Two signals are accepted, either one sufficient: the strike count reaching
// FailureThreshold, or users.failed_at being set. They are written by
// different statements and may disagree; disagreement is tolerated, never
// reported as an error.
func IsEliminated(user model.User, failureCount int) bool {
	return failureCount >= FailureThreshold || user.HasFailed()
}

// InCycle returns user as seen by the challenge of the given year. A failure
// recorded in an earlier year belongs to a finished challenge and is
// cleared; one from this year or later is kept.
func InCycle(user model.User, year int) model.User {
	if user.HasFailed() && user.FailedAt.Year < year {
		user.FailedAt = nil
	}
	return user
}

// DaysSurvived is the number shown next to a user on the leaderboard.
//
// The two branches use different offsets:
//   - failed users: days from periodStart to failedAt, no +1
//     (failing on Nov 10 with a Nov 1 start gives 9);
//   - active users: days from periodStart to referenceDate, +1
//     (Nov 10 with a Nov 1 start gives 10).
//
// So a user shown at 10 on the morning of Nov 10 drops to 9 if they fail
// that day. Both results are clamped at 0.
func DaysSurvived(user model.User, periodStart, referenceDate model.Date) int {
	var days int
	if user.HasFailed() {
		days = user.FailedAt.DaysSince(periodStart)
	} else {
		days = referenceDate.DaysSince(periodStart) + 1
	}
	if days < 0 {
		return 0
	}
	return days
}

// Standing is one leaderboard row.
type Standing struct {
	User         model.User `json:"user"`
	DaysSurvived int        `json:"daysSurvived"`
}

// Leaderboard splits participants into those still in and those who fell.
type Leaderboard struct {
	Active []Standing `json:"active"`
	Fallen []Standing `json:"fallen"`
}

// RankParticipants partitions users by FailedAt and orders each side by
// DaysSurvived, highest first. Every user lands in exactly one list.
func RankParticipants(users []model.User, periodStart, referenceDate model.Date) Leaderboard {
	standings := make([]Standing, 0, len(users))
	for _, u := range users {
		standings = append(standings, Standing{User: u, DaysSurvived: DaysSurvived(u, periodStart, referenceDate)})
	}
	return RankStandings(standings)
}

// RankStandings is RankParticipants for rows whose DaysSurvived is already
// known. Ties keep their input order, but callers must not rely on that.
func RankStandings(standings []Standing) Leaderboard {
	lb := Leaderboard{
		Active: make([]Standing, 0, len(standings)),
		Fallen: make([]Standing, 0),
	}
	for _, s := range standings {
		if s.User.HasFailed() {
			lb.Fallen = append(lb.Fallen, s)
		} else {
			lb.Active = append(lb.Active, s)
		}
	}
	byDaysDesc(lb.Active)
	byDaysDesc(lb.Fallen)
	return lb
}

func byDaysDesc(s []Standing) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].DaysSurvived > s[j].DaysSurvived
	})
}
