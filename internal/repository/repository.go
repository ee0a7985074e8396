// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only implementation; services are tested
// against hand-written fakes of these interfaces.
package repository

import (
	"context"

	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// ListOptions pages a listing. A zero Limit means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores challenge participants.
type UserRepository interface {
	// Create inserts a password account. A taken username (case-insensitive)
	// or GitHub ID returns apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	// UpsertGitHub inserts or refreshes the account linked to user.GitHubID.
	// An existing account keeps its ID, username and failed_at.
	UpsertGitHub(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
}

// CheckInRepository stores one record per user per day.
type CheckInRepository interface {
	GetCheckIn(ctx context.Context, userID string, date model.Date) (*model.CheckIn, error)
	// EnsureCheckIn returns the record for (userID, date), creating a blank
	// one if none exists. Safe to call concurrently for the same key.
	EnsureCheckIn(ctx context.Context, userID string, date model.Date) (*model.CheckIn, error)
	// ListCheckIns returns records with from <= date <= to, oldest first.
	ListCheckIns(ctx context.Context, userID string, from, to model.Date) ([]model.CheckIn, error)
	// ApplyMark persists one period transition, and the user's elimination
	// when present, atomically. If the period was set by a concurrent
	// writer in the meantime it returns apperror.ErrAlreadyMarked and
	// writes nothing.
	ApplyMark(ctx context.Context, mark tracker.Mark) error
}
