// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Outcome is the self-reported status of one period of one day.
//
// WHY AN ENUM AND NOT *bool?
// A nullable boolean (true=safe, false=failed, nil=unset) makes it far too
// easy to write `if !v` and treat "not answered yet" as "failed". With a
// distinct type the compiler forces every caller to name the state it means.
// The zero value is OutcomeUnset, so a freshly declared CheckIn is blank.
type Outcome int8

const (
	OutcomeUnset Outcome = iota
	OutcomeSafe
	OutcomeFailed
)

// ParseOutcome accepts the request spelling of a marking: "safe" or "failed".
// Unset is not something a caller can ask for.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return OutcomeSafe, nil
	case "failed":
		return OutcomeFailed, nil
	default:
		return OutcomeUnset, fmt.Errorf("model: unknown outcome %q", s)
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSafe:
		return "safe"
	case OutcomeFailed:
		return "failed"
	default:
		return "unset"
	}
}

// MarshalJSON keeps the external shape of a record: true, false or null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o {
	case OutcomeSafe:
		return []byte("true"), nil
	case OutcomeFailed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads true, false or null.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*o = OutcomeSafe
	case "false":
		*o = OutcomeFailed
	case "null":
		*o = OutcomeUnset
	default:
		return fmt.Errorf("model: outcome must be true, false or null, got %s", b)
	}
	return nil
}

// Value implements driver.Valuer: NULL for unset, 1 for safe, 0 for failed.
func (o Outcome) Value() (driver.Value, error) {
	switch o {
	case OutcomeSafe:
		return int64(1), nil
	case OutcomeFailed:
		return int64(0), nil
	default:
		return nil, nil
	}
}

// Scan implements sql.Scanner for the nullable integer column.
func (o *Outcome) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = OutcomeUnset
	case int64:
		*o = outcomeFromBool(v != 0)
	case bool:
		*o = outcomeFromBool(v)
	default:
		return fmt.Errorf("model: cannot scan %T into Outcome", src)
	}
	return nil
}

func outcomeFromBool(safe bool) Outcome {
	if safe {
		return OutcomeSafe
	}
	return OutcomeFailed
}

// Period is one of the three fixed daily windows.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// Periods lists the periods in their fixed daily order.
// Anything that scans "the first failed period" walks this slice.
var Periods = []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}

// ParsePeriod validates a period name taken from a URL or form.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("model: unknown period %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the three known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening:
		return true
	}
	return false
}

// CheckIn is one user's record for one calendar day.
//
// There is at most one CheckIn per (UserID, Date); the sqlite schema enforces
// that with a UNIQUE index. Periods move from Unset to Safe or Failed once and
// never back; the tracker package enforces that.
type CheckIn struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Date      Date    `json:"date"`
	Morning   Outcome `json:"morning"`
	Afternoon Outcome `json:"afternoon"`
	Evening   Outcome `json:"evening"`
}

// Outcome returns the outcome recorded for p. Unknown periods read as unset.
func (c CheckIn) Outcome(p Period) Outcome {
	switch p {
	case PeriodMorning:
		return c.Morning
	case PeriodAfternoon:
		return c.Afternoon
	case PeriodEvening:
		return c.Evening
	}
	return OutcomeUnset
}

// With returns a copy of c with period p set to o.
// Value receiver: the original record is left untouched.
func (c CheckIn) With(p Period, o Outcome) CheckIn {
	switch p {
	case PeriodMorning:
		c.Morning = o
	case PeriodAfternoon:
		c.Afternoon = o
	case PeriodEvening:
		c.Evening = o
	}
	return c
}
