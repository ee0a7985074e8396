package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/checkin-tracker/internal/model"
)

func TestSummarize(t *testing.T) {
	start := model.NewDate(2025, 11, 1)
	today := model.NewDate(2025, 11, 3)
	user := model.User{
		ID:        "user1",
		Username:  "alice",
		CreatedAt: time.Date(2025, 10, 28, 15, 4, 5, 0, time.UTC),
	}

	t.Run("strong today", func(t *testing.T) {
		records := []model.CheckIn{
			record(1, safe, safe, safe),
			record(2, safe, failed, unset),
			record(3, safe, unset, unset),
		}
		s := Summarize(user, records, start, today)

		assert.Equal(t, "user1", s.UserID)
		assert.Equal(t, "alice", s.Username)
		assert.Equal(t, model.NewDate(2025, 10, 28), s.JoinedOn)
		assert.Equal(t, 5, s.TotalSafe)
		assert.Equal(t, 1, s.TotalFailed)
		assert.Equal(t, 1, s.Failures)
		assert.Equal(t, 3, s.DaysChecked)
		assert.Equal(t, 2, s.StrikesLeft)
		assert.False(t, s.Eliminated)
		assert.Equal(t, 3, s.DaysSurvived)
		assert.Equal(t, TodayStrong, s.TodayStatus)
		assert.Equal(t, 1.67, s.AverageSafePerDay)
		assert.Equal(t, 83, s.SuccessRate)
	})

	t.Run("not checked today", func(t *testing.T) {
		records := []model.CheckIn{record(1, safe, unset, unset), record(3, unset, unset, unset)}
		s := Summarize(user, records, start, today)
		assert.Equal(t, TodayNotChecked, s.TodayStatus)
	})

	t.Run("three strikes", func(t *testing.T) {
		records := []model.CheckIn{
			record(1, failed, failed, unset),
			record(2, failed, safe, safe),
		}
		s := Summarize(user, records, start, today)

		assert.True(t, s.Eliminated)
		assert.Equal(t, 0, s.StrikesLeft)
		assert.Equal(t, TodayEliminated, s.TodayStatus)
	})

	t.Run("failed_at set", func(t *testing.T) {
		fallen := user
		fallen.FailedAt = datePtr(2025, 11, 2)
		s := Summarize(fallen, []model.CheckIn{record(2, failed, unset, unset)}, start, today)

		assert.True(t, s.Eliminated)
		assert.Equal(t, 1, s.DaysSurvived)
		assert.Equal(t, TodayEliminated, s.TodayStatus)
	})

	t.Run("more strikes than threshold", func(t *testing.T) {
		records := []model.CheckIn{record(1, failed, failed, failed), record(2, failed, unset, unset)}
		s := Summarize(user, records, start, today)
		assert.Equal(t, 4, s.Failures)
		assert.Equal(t, 0, s.StrikesLeft)
	})

	t.Run("unknown join date", func(t *testing.T) {
		s := Summarize(model.User{ID: "x"}, nil, start, today)
		assert.True(t, s.JoinedOn.IsZero())
	})

	t.Run("rates with nothing answered", func(t *testing.T) {
		s := Summarize(user, nil, start, today)
		assert.Zero(t, s.AverageSafePerDay)
		assert.Zero(t, s.SuccessRate)

		s = Summarize(user, []model.CheckIn{record(3, unset, unset, unset)}, start, today)
		assert.Equal(t, 1, s.DaysChecked)
		assert.Zero(t, s.AverageSafePerDay)
		assert.Zero(t, s.SuccessRate)
	})
}
