package tracker

import (
	"time"

	"github.com/sakif/checkin-tracker/internal/model"
)

// Phase is where "now" sits relative to this year's challenge month.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseActive   Phase = "active"
	PhaseOver     Phase = "over"
)

// Challenge describes the yearly challenge month and the time zone in which
// a "day" is counted.
type Challenge struct {
	Month    time.Month
	Location *time.Location
}

// NewChallenge returns a Challenge for month in loc. A nil loc means UTC.
func NewChallenge(month time.Month, loc *time.Location) Challenge {
	if loc == nil {
		loc = time.UTC
	}
	return Challenge{Month: month, Location: loc}
}

func (c Challenge) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Today is the calendar date of now in the challenge time zone.
func (c Challenge) Today(now time.Time) model.Date {
	return model.DateOf(now.In(c.loc()))
}

// Start is the first day of the challenge month of year.
func (c Challenge) Start(year int) model.Date {
	return model.NewDate(year, c.Month, 1)
}

// End is the last day of the challenge month of year.
func (c Challenge) End(year int) model.Date {
	// Day 0 of the next month normalises to the last day of this one.
	return model.NewDate(year, c.Month+1, 0)
}

// PeriodStart is the first day of the challenge month in now's year.
func (c Challenge) PeriodStart(now time.Time) model.Date {
	return c.Start(c.Today(now).Year)
}

// Contains reports whether d falls inside the challenge month of its year.
func (c Challenge) Contains(d model.Date) bool {
	return d.Month == c.Month
}

// Phase reports whether the challenge of now's year has not started yet,
// is running, or is finished.
func (c Challenge) Phase(now time.Time) Phase {
	today := c.Today(now)
	switch {
	case today.Month < c.Month:
		return PhaseUpcoming
	case today.Month == c.Month:
		return PhaseActive
	default:
		return PhaseOver
	}
}

// Countdown is the time left until the next challenge boundary.
type Countdown struct {
	Phase     Phase         `json:"phase"`
	Target    time.Time     `json:"target"`
	Remaining time.Duration `json:"-"`
	Days      int           `json:"days"`
	Hours     int           `json:"hours"`
	Minutes   int           `json:"minutes"`
	Seconds   int           `json:"seconds"`
}

// Countdown computes the time from now to the next boundary:
//   - upcoming: the first instant of this year's challenge month;
//   - active:   23:59:59 on the last day of the month;
//   - over:     the first instant of next year's challenge month.
//
// Remaining never goes negative. Clients poll this; the server keeps no timer.
func (c Challenge) Countdown(now time.Time) Countdown {
	loc := c.loc()
	year := c.Today(now).Year
	phase := c.Phase(now)

	var target time.Time
	switch phase {
	case PhaseUpcoming:
		target = c.Start(year).In(loc)
	case PhaseActive:
		target = c.End(year).In(loc).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	default:
		target = c.Start(year + 1).In(loc)
	}

	remaining := target.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return Countdown{
		Phase:     phase,
		Target:    target,
		Remaining: remaining,
		Days:      int(remaining / (24 * time.Hour)),
		Hours:     int(remaining/time.Hour) % 24,
		Minutes:   int(remaining/time.Minute) % 60,
		Seconds:   int(remaining/time.Second) % 60,
	}
}
