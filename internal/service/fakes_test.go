package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/events"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/repository"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo is an in-memory repository.UserRepository. Getters return
// copies, the way a database would.
type fakeUserRepo struct {
	mu     sync.Mutex
	order  []string
	users  map[string]*model.User
	nextID int

	// set to a non-nil error to simulate a database failure
	createErr error
	listErr   error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return apperror.Conflict("username", user.Username)
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return apperror.ValidationFailed("githubId", "github id is required")
	}
	existing, err := f.GetByGitHubID(ctx, *user.GitHubID)
	if err == nil {
		f.mu.Lock()
		f.users[existing.ID].AvatarURL = user.AvatarURL
		*user = *f.users[existing.ID]
		f.mu.Unlock()
		return nil
	}
	return f.Create(ctx, user)
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if u := f.users[id]; match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, id)
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return strings.EqualFold(u.Username, username) }, username)
}

func (f *fakeUserRepo) GetByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.GitHubID != nil && *u.GitHubID == githubID },
		fmt.Sprintf("github:%d", githubID))
}

func (f *fakeUserRepo) ListUsers(_ context.Context, _ repository.ListOptions) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.User, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.users[id])
	}
	return out, nil
}

// add stores a user directly, bypassing validation.
func (f *fakeUserRepo) add(u model.User) *model.User {
	if err := f.Create(context.Background(), &u); err != nil {
		panic(err)
	}
	return &u
}

// fakeCheckInRepo is an in-memory repository.CheckInRepository with the
// same first-write-wins rule as the SQLite store.
type fakeCheckInRepo struct {
	mu      sync.Mutex
	users   *fakeUserRepo
	records map[string]*model.CheckIn

	applyErr error
}

var _ repository.CheckInRepository = (*fakeCheckInRepo)(nil)

func newFakeCheckInRepo(users *fakeUserRepo) *fakeCheckInRepo {
	return &fakeCheckInRepo{users: users, records: make(map[string]*model.CheckIn)}
}

func recordKey(userID string, d model.Date) string { return userID + "/" + d.String() }

func (f *fakeCheckInRepo) GetCheckIn(_ context.Context, userID string, date model.Date) (*model.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[recordKey(userID, date)]
	if !ok {
		return nil, apperror.NotFound("check-in", recordKey(userID, date))
	}
	c := *r
	return &c, nil
}

func (f *fakeCheckInRepo) EnsureCheckIn(ctx context.Context, userID string, date model.Date) (*model.CheckIn, error) {
	f.mu.Lock()
	key := recordKey(userID, date)
	if _, ok := f.records[key]; !ok {
		f.records[key] = &model.CheckIn{ID: "ci-" + key, UserID: userID, Date: date}
	}
	f.mu.Unlock()
	return f.GetCheckIn(ctx, userID, date)
}

func (f *fakeCheckInRepo) ListCheckIns(_ context.Context, userID string, from, to model.Date) ([]model.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CheckIn, 0)
	for d := from; !d.After(to); d = d.AddDays(1) {
		if r, ok := f.records[recordKey(userID, d)]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeCheckInRepo) ApplyMark(_ context.Context, m tracker.Mark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	r, ok := f.records[recordKey(m.Record.UserID, m.Record.Date)]
	if !ok {
		return apperror.NotFound("check-in", recordKey(m.Record.UserID, m.Record.Date))
	}
	if r.Outcome(m.Period) != model.OutcomeUnset {
		return apperror.AlreadyMarked(string(m.Period), m.Record.Date.String())
	}
	*r = m.Record
	if e := m.Elimination; e != nil {
		f.users.mu.Lock()
		if u := f.users.users[e.UserID]; u != nil && (u.FailedAt == nil || u.FailedAt.Year < e.FailedAt.Year) {
			d := e.FailedAt
			u.FailedAt = &d
		}
		f.users.mu.Unlock()
	}
	return nil
}

// seed stores a record as-is.
func (f *fakeCheckInRepo) seed(c model.CheckIn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[recordKey(c.UserID, c.Date)] = &c
}

// fakePublisher records events and can be told to fail.
type fakePublisher struct {
	mu         sync.Mutex
	marked     []events.PeriodMarked
	eliminated []events.UserEliminated
	err        error
}

var _ events.Publisher = (*fakePublisher)(nil)

func (p *fakePublisher) PublishPeriodMarked(_ context.Context, e events.PeriodMarked) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.marked = append(p.marked, e)
	return nil
}

func (p *fakePublisher) PublishUserEliminated(_ context.Context, e events.UserEliminated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.eliminated = append(p.eliminated, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fixedClock returns a clock stuck at the given instant.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
