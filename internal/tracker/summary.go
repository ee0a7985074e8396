package tracker

import (
	"math"

	"github.com/sakif/checkin-tracker/internal/model"
)

// TodayStatus is the one-word state shown on the dashboard.
type TodayStatus string

const (
	TodayEliminated TodayStatus = "eliminated"
	TodayStrong     TodayStatus = "strong"
	TodayNotChecked TodayStatus = "not_checked"
)

// Summary aggregates a user's records for the profile page.
type Summary struct {
	UserID       string      `json:"userId"`
	Username     string      `json:"username"`
	JoinedOn     model.Date  `json:"joinedOn"`
	TotalSafe    int         `json:"totalSafe"`
	TotalFailed  int         `json:"totalFailed"`
	DaysChecked  int         `json:"daysChecked"`
	Failures     int         `json:"failures"`
	StrikesLeft  int         `json:"strikesLeft"`
	Eliminated   bool        `json:"eliminated"`
	DaysSurvived int         `json:"daysSurvived"`
	TodayStatus  TodayStatus `json:"todayStatus"`

	// AverageSafePerDay is TotalSafe / DaysChecked to two decimals.
	AverageSafePerDay float64 `json:"averageSafePerDay"`
	// SuccessRate is the share of answered periods marked safe, as a whole
	// percentage. Zero when nothing has been answered.
	SuccessRate int `json:"successRate"`
}

// Summarize folds records (normally the current challenge month) into a
// Summary as of today.
func Summarize(user model.User, records []model.CheckIn, periodStart, today model.Date) Summary {
	failures := CountFailures(records)
	eliminated := IsEliminated(user, failures)

	s := Summary{
		UserID:       user.ID,
		Username:     user.Username,
		JoinedOn:     model.DateOf(user.CreatedAt.UTC()),
		TotalSafe:    CountSafe(records),
		TotalFailed:  failures,
		DaysChecked:  len(records),
		Failures:     failures,
		StrikesLeft:  max(0, FailureThreshold-failures),
		Eliminated:   eliminated,
		DaysSurvived: DaysSurvived(user, periodStart, today),
		TodayStatus:  TodayNotChecked,
	}
	if s.DaysChecked > 0 {
		s.AverageSafePerDay = math.Round(float64(s.TotalSafe)/float64(s.DaysChecked)*100) / 100
	}
	if answered := s.TotalSafe + s.TotalFailed; answered > 0 {
		s.SuccessRate = int(math.Round(float64(s.TotalSafe) / float64(answered) * 100))
	}
	if user.CreatedAt.IsZero() {
		s.JoinedOn = model.Date{}
	}

	switch {
	case eliminated:
		s.TodayStatus = TodayEliminated
	default:
		for _, r := range records {
			if r.Date == today && SafePeriodsForDay(r) > 0 {
				s.TodayStatus = TodayStrong
				break
			}
		}
	}
	return s
}
