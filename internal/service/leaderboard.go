package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/checkin-tracker/internal/cache"
	"github.com/sakif/checkin-tracker/internal/repository"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// DefaultLeaderboardTTL bounds how stale a cached leaderboard can get when
// nothing invalidates it.
const DefaultLeaderboardTTL = 30 * time.Second

const leaderboardKeyPrefix = "leaderboard:"

// LeaderboardService ranks every participant for the current challenge.
//
// Rankings are cached as JSON under a key that includes today's date, so
// the active users' day counts roll over at local midnight without an
// explicit purge.
type LeaderboardService struct {
	users     repository.UserRepository
	cache     cache.Cache
	ttl       time.Duration
	challenge tracker.Challenge
	logger    *slog.Logger
	now       func() time.Time
}

func NewLeaderboardService(
	users repository.UserRepository,
	c cache.Cache,
	ttl time.Duration,
	challenge tracker.Challenge,
	logger *slog.Logger,
	now func() time.Time,
) *LeaderboardService {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	if now == nil {
		now = time.Now
	}
	return &LeaderboardService{
		users:     users,
		cache:     c,
		ttl:       ttl,
		challenge: challenge,
		logger:    logger,
		now:       now,
	}
}

var _ Invalidator = (*LeaderboardService)(nil)

func (s *LeaderboardService) key() string {
	return leaderboardKeyPrefix + s.challenge.Today(s.now()).String()
}

// Standings returns the current leaderboard, from cache when possible.
func (s *LeaderboardService) Standings(ctx context.Context) (tracker.Leaderboard, error) {
	key := s.key()

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var lb tracker.Leaderboard
			if err := json.Unmarshal(raw, &lb); err == nil {
				return lb, nil
			}
			s.logger.Warn("discarding unreadable cached leaderboard", slog.String("key", key))
		}
	}

	users, err := s.users.ListUsers(ctx, repository.ListOptions{})
	if err != nil {
		return tracker.Leaderboard{}, fmt.Errorf("service/leaderboard: listing users: %w", err)
	}

	today := s.challenge.Today(s.now())
	for i := range users {
		users[i] = tracker.InCycle(users[i], today.Year)
	}
	lb := tracker.RankParticipants(users, s.challenge.Start(today.Year), today)

	if s.cache != nil {
		raw, err := json.Marshal(lb)
		if err != nil {
			return lb, nil
		}
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("caching leaderboard", slog.String("error", err.Error()))
		}
	}
	return lb, nil
}

// Invalidate drops today's cached leaderboard. Errors are logged only.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.key()); err != nil {
		s.logger.Warn("invalidating leaderboard", slog.String("error", err.Error()))
	}
}
