// Package handler contains the HTTP handlers of the JSON API.
//
// Handlers parse the request, call a service and write the response. They
// hold no business rules. Each handler depends on a small interface declared
// here rather than on a concrete service, so tests can swap in a stub.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/service"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

// maxBodyBytes caps request bodies. Every request body here is a couple of
// short strings.
const maxBodyBytes = 1 << 16

// Accounts is the part of service.AuthService the auth handler needs.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	TokenTTL() time.Duration
}

// OAuthProvider is the external identity provider. *auth.GitHubProvider
// satisfies it.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// CheckIns is the part of service.CheckInService the check-in handler needs.
type CheckIns interface {
	Today(ctx context.Context, userID string) (*model.CheckIn, error)
	Mark(ctx context.Context, userID string, period model.Period, outcome model.Outcome) (*model.CheckIn, error)
	Month(ctx context.Context, userID string, year int, month time.Month) ([]model.CheckIn, error)
	Calendar(ctx context.Context, userID string, year int, month time.Month) (tracker.Calendar, error)
	Summary(ctx context.Context, userID string) (tracker.Summary, error)
	CurrentMonth() (int, time.Month)
}

// Standings produces the leaderboard.
type Standings interface {
	Standings(ctx context.Context) (tracker.Leaderboard, error)
}

var (
	_ Accounts      = (*service.AuthService)(nil)
	_ OAuthProvider = (*auth.GitHubProvider)(nil)
	_ CheckIns      = (*service.CheckInService)(nil)
	_ Standings     = (*service.LeaderboardService)(nil)
)

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies become a validation error naming "body".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is empty")
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	return nil
}

// requireUser returns the user ID that RequireAuth stored in the context.
func requireUser(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("valid authentication required")
	}
	return userID, nil
}
