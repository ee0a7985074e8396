package handler_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/service"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

// stubAccounts returns canned results and records the last call.
type stubAccounts struct {
	result  *service.AuthResult
	user    *model.User
	err     error
	gotName string
	gotPass string
	gotGHID int64
}

func (s *stubAccounts) Register(_ context.Context, username, password string) (*service.AuthResult, error) {
	s.gotName, s.gotPass = username, password
	return s.result, s.err
}

func (s *stubAccounts) Login(_ context.Context, username, password string) (*service.AuthResult, error) {
	s.gotName, s.gotPass = username, password
	return s.result, s.err
}

func (s *stubAccounts) LoginOrRegisterGitHub(_ context.Context, gh *auth.GitHubUser) (*service.AuthResult, error) {
	s.gotGHID = gh.ID
	return s.result, s.err
}

func (s *stubAccounts) GetUserByID(_ context.Context, _ string) (*model.User, error) {
	return s.user, s.err
}

func (s *stubAccounts) TokenTTL() time.Duration { return time.Hour }

type stubProvider struct {
	user    *auth.GitHubUser
	err     error
	gotCode string
}

func (p *stubProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	p.gotCode = code
	return p.user, p.err
}

// stubCheckIns records the arguments of the last call.
type stubCheckIns struct {
	record   *model.CheckIn
	records  []model.CheckIn
	calendar tracker.Calendar
	summary  tracker.Summary
	err      error

	gotUser    string
	gotPeriod  model.Period
	gotOutcome model.Outcome
	gotYear    int
	gotMonth   time.Month
}

func (s *stubCheckIns) Today(_ context.Context, userID string) (*model.CheckIn, error) {
	s.gotUser = userID
	return s.record, s.err
}

func (s *stubCheckIns) Mark(_ context.Context, userID string, p model.Period, o model.Outcome) (*model.CheckIn, error) {
	s.gotUser, s.gotPeriod, s.gotOutcome = userID, p, o
	return s.record, s.err
}

func (s *stubCheckIns) Month(_ context.Context, userID string, year int, month time.Month) ([]model.CheckIn, error) {
	s.gotUser, s.gotYear, s.gotMonth = userID, year, month
	return s.records, s.err
}

func (s *stubCheckIns) Calendar(_ context.Context, userID string, year int, month time.Month) (tracker.Calendar, error) {
	s.gotUser, s.gotYear, s.gotMonth = userID, year, month
	return s.calendar, s.err
}

func (s *stubCheckIns) Summary(_ context.Context, userID string) (tracker.Summary, error) {
	s.gotUser = userID
	return s.summary, s.err
}

func (s *stubCheckIns) CurrentMonth() (int, time.Month) { return 2025, time.November }

type stubStandings struct {
	lb  tracker.Leaderboard
	err error
}

func (s *stubStandings) Standings(context.Context) (tracker.Leaderboard, error) {
	return s.lb, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
