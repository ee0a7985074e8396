package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/events"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/repository"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// Invalidator drops cached views that a mark may have made stale.
// LeaderboardService satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// CheckInService reads and writes a user's daily records.
//
// All "today" decisions go through the challenge's time zone, so a mark made
// at 23:30 local time lands on the local day even when UTC has rolled over.
type CheckInService struct {
	users       repository.UserRepository
	checkins    repository.CheckInRepository
	challenge   tracker.Challenge
	publisher   events.Publisher
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewCheckInService wires the service. A nil publisher discards events, a
// nil invalidator skips cache invalidation and a nil clock means time.Now.
func NewCheckInService(
	users repository.UserRepository,
	checkins repository.CheckInRepository,
	challenge tracker.Challenge,
	publisher events.Publisher,
	invalidator Invalidator,
	logger *slog.Logger,
	now func() time.Time,
) *CheckInService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &CheckInService{
		users:       users,
		checkins:    checkins,
		challenge:   challenge,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
		now:         now,
	}
}

// Today returns the user's record for today, creating a blank one on first
// access.
func (s *CheckInService) Today(ctx context.Context, userID string) (*model.CheckIn, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	today := s.challenge.Today(s.now())
	rec, err := s.checkins.EnsureCheckIn(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("service/checkin: loading today for %s: %w", userID, err)
	}
	return rec, nil
}

// Mark records outcome for one period of today's record.
//
// Eliminated users are refused with apperror.ErrForbidden. A period that is
// already set, whether by an earlier request or by a concurrent one that
// committed first, yields apperror.ErrAlreadyMarked. After the write
// commits, events are published and the leaderboard is invalidated; neither
// can fail the request.
func (s *CheckInService) Mark(ctx context.Context, userID string, period model.Period, outcome model.Outcome) (*model.CheckIn, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := s.challenge.Today(now)
	periodStart := s.challenge.Start(today.Year)
	*user = tracker.InCycle(*user, today.Year)

	records, err := s.checkins.ListCheckIns(ctx, userID, periodStart, s.challenge.End(today.Year))
	if err != nil {
		return nil, fmt.Errorf("service/checkin: listing records for %s: %w", userID, err)
	}
	if tracker.IsEliminated(*user, tracker.CountFailures(records)) {
		return nil, apperror.Forbidden("you have been eliminated and can no longer check in")
	}

	rec, err := s.checkins.EnsureCheckIn(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("service/checkin: loading today for %s: %w", userID, err)
	}

	mark, err := tracker.MarkPeriod(*rec, period, outcome)
	if err != nil {
		return nil, err
	}
	if err := s.checkins.ApplyMark(ctx, mark); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("service/checkin: saving %s of %s: %w", period, today, err)
	}

	s.logger.Info("period marked",
		slog.String("userID", userID),
		slog.String("date", today.String()),
		slog.String("period", string(period)),
		slog.String("outcome", outcome.String()),
	)

	s.publish(ctx, user, mark, replaceRecord(records, mark.Record), periodStart, now)
	return &mark.Record, nil
}

// publish sends the events for a committed mark. Failures are logged only.
func (s *CheckInService) publish(ctx context.Context, user *model.User, mark tracker.Mark, records []model.CheckIn, periodStart model.Date, now time.Time) {
	err := s.publisher.PublishPeriodMarked(ctx, events.PeriodMarked{
		UserID:     user.ID,
		Username:   user.Username,
		Date:       mark.Record.Date.String(),
		Period:     string(mark.Period),
		Outcome:    mark.Outcome.String(),
		OccurredAt: now.UTC(),
	})
	if err != nil {
		s.logger.Warn("publishing period marked", slog.String("error", err.Error()))
	}

	// Only the first failure eliminates; failed_at never moves after that.
	if mark.Elimination == nil || user.HasFailed() {
		return
	}

	failedAt := mark.Elimination.FailedAt
	eliminated := *user
	eliminated.FailedAt = &failedAt

	s.logger.Info("user eliminated",
		slog.String("userID", user.ID),
		slog.String("failedAt", failedAt.String()),
	)

	err = s.publisher.PublishUserEliminated(ctx, events.UserEliminated{
		UserID:       user.ID,
		Username:     user.Username,
		FailedAt:     failedAt.String(),
		Failures:     tracker.CountFailures(records),
		DaysSurvived: tracker.DaysSurvived(eliminated, periodStart, failedAt),
		OccurredAt:   now.UTC(),
	})
	if err != nil {
		s.logger.Warn("publishing user eliminated", slog.String("error", err.Error()))
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// Month returns the user's records for one calendar month, oldest first.
func (s *CheckInService) Month(ctx context.Context, userID string, year int, month time.Month) ([]model.CheckIn, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	from := model.NewDate(year, month, 1)
	to := model.NewDate(year, month+1, 0)

	records, err := s.checkins.ListCheckIns(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service/checkin: listing %d-%02d for %s: %w", year, month, userID, err)
	}
	return records, nil
}

// Calendar returns the month grid for the calendar page.
func (s *CheckInService) Calendar(ctx context.Context, userID string, year int, month time.Month) (tracker.Calendar, error) {
	records, err := s.Month(ctx, userID, year, month)
	if err != nil {
		return tracker.Calendar{}, err
	}
	return tracker.BuildCalendar(year, month, records), nil
}

// Summary returns the profile numbers for the current challenge period.
func (s *CheckInService) Summary(ctx context.Context, userID string) (tracker.Summary, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return tracker.Summary{}, err
	}

	today := s.challenge.Today(s.now())
	start, end := s.challenge.Start(today.Year), s.challenge.End(today.Year)
	records, err := s.checkins.ListCheckIns(ctx, userID, start, end)
	if err != nil {
		return tracker.Summary{}, fmt.Errorf("service/checkin: listing records for %s: %w", userID, err)
	}
	return tracker.Summarize(tracker.InCycle(*user, today.Year), records, start, today), nil
}

// CurrentMonth is the year and month a client should show by default.
func (s *CheckInService) CurrentMonth() (int, time.Month) {
	today := s.challenge.Today(s.now())
	return today.Year, s.challenge.Month
}

func (s *CheckInService) user(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("not signed in")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/checkin: fetching user %s: %w", userID, err)
	}
	return user, nil
}

func validateMonth(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return apperror.ValidationFailed("month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return apperror.ValidationFailed("year", "year must be between 2000 and 9999")
	}
	return nil
}

// replaceRecord returns records with the entry for r's date swapped for r,
// or r appended when no entry for that date exists.
func replaceRecord(records []model.CheckIn, r model.CheckIn) []model.CheckIn {
	out := make([]model.CheckIn, 0, len(records)+1)
	found := false
	for _, c := range records {
		if c.Date == r.Date {
			out = append(out, r)
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, r)
	}
	return out
}
