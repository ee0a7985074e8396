package tracker

import (
	"time"

	"github.com/sakif/checkin-tracker/internal/model"
)

// DayStatus classifies a calendar cell.
type DayStatus string

const (
	DayEmpty   DayStatus = "empty"
	DayOneSafe DayStatus = "one_safe"
	DayTwoSafe DayStatus = "two_safe"
	DayAllSafe DayStatus = "all_safe"
	DayFailed  DayStatus = "failed"
)

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Day       int        `json:"day"`
	Date      model.Date `json:"date"`
	SafeCount int        `json:"safeCount"`
	Failed    bool       `json:"failed"`
	Status    DayStatus  `json:"status"`
}

// Calendar is a month grid. LeadingBlanks is the weekday of the 1st
// (Sunday = 0), i.e. how many empty cells precede it in a Sunday-first grid.
type Calendar struct {
	Year          int           `json:"year"`
	Month         time.Month    `json:"month"`
	LeadingBlanks int           `json:"leadingBlanks"`
	Days          []CalendarDay `json:"days"`
}

// BuildCalendar lays out one month and classifies each day from records.
// Records for other months are ignored.
func BuildCalendar(year int, month time.Month, records []model.CheckIn) Calendar {
	first := model.NewDate(year, month, 1)
	last := model.NewDate(year, month+1, 0)

	byDate := make(map[model.Date]model.CheckIn, len(records))
	for _, r := range records {
		if r.Date.Year == year && r.Date.Month == month {
			byDate[r.Date] = r
		}
	}

	cal := Calendar{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Time().Weekday()),
		Days:          make([]CalendarDay, 0, last.Day),
	}
	for day := 1; day <= last.Day; day++ {
		d := model.NewDate(year, month, day)
		rec, ok := byDate[d]
		cell := CalendarDay{Day: day, Date: d, Status: DayEmpty}
		if ok {
			cell.SafeCount = SafePeriodsForDay(rec)
			_, cell.Failed = FailedPeriodForDay(rec)
			cell.Status = classifyDay(cell.SafeCount, cell.Failed)
		}
		cal.Days = append(cal.Days, cell)
	}
	return cal
}

// classifyDay: any failure wins over safe periods on the same day.
func classifyDay(safe int, failed bool) DayStatus {
	switch {
	case failed:
		return DayFailed
	case safe >= 3:
		return DayAllSafe
	case safe == 2:
		return DayTwoSafe
	case safe == 1:
		return DayOneSafe
	default:
		return DayEmpty
	}
}
