// Package events publishes domain events for consumers outside this
// service, such as a notifier that congratulates survivors or announces
// who fell.
//
// Publishing is fire and forget from the request's point of view: the
// check-in is already committed when an event goes out, and a broker outage
// only costs the event, never the request.
package events

import (
	"context"
	"time"
)

// Queue names. Each event type has its own durable queue.
const (
	QueuePeriodMarked   = "checkin.period_marked"
	QueueUserEliminated = "checkin.user_eliminated"
)

// PeriodMarked is published after every successful mark.
type PeriodMarked struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Date       string    `json:"date"`
	Period     string    `json:"period"`
	Outcome    string    `json:"outcome"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserEliminated is published once, when a user's first failure is recorded.
type UserEliminated struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	FailedAt     string    `json:"failed_at"`
	Failures     int       `json:"failures"`
	DaysSurvived int       `json:"days_survived"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishPeriodMarked(ctx context.Context, e PeriodMarked) error
	PublishUserEliminated(ctx context.Context, e UserEliminated) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishPeriodMarked(context.Context, PeriodMarked) error     { return nil }
func (Nop) PublishUserEliminated(context.Context, UserEliminated) error { return nil }
func (Nop) Close() error                                                { return nil }
