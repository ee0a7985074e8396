// Package service holds the business rules that sit between the HTTP
// handlers and the repositories:
//
//	handler (HTTP) → service (rules) → repository (DB)
//	                        ↘ tracker (pure check-in logic)
//
// Services never read requests or write responses. They take plain values,
// return model types, and report failures as *apperror.AppError so the
// handler layer can pick a status code without knowing the rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/auth"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/repository"
)

// invalidCredentials is returned for every failed login so the response
// never reveals whether the username exists.
const invalidCredentials = "invalid username or password"

// AuthService registers accounts, checks credentials and issues session
// tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// TokenTTL is the lifetime of issued tokens, used for the cookie Max-Age.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Username: name, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", name, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// Login checks a username and password.
//
// An unknown name, a GitHub-only account and a wrong password all produce
// the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("username", user.Username))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user)
}

// LoginOrRegisterGitHub signs in the account linked to a GitHub profile,
// creating one on first sign-in.
//
// The GitHub login becomes the username. When that name is already taken by
// another account the service tries "login-2" through "login-9" and then a
// random suffix, so a GitHub sign-in never fails on a name clash.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	githubID := ghUser.ID
	base := usernameFromLogin(ghUser.Login)
	candidates := []string{base}
	for i := 2; i <= 9; i++ {
		candidates = append(candidates, withSuffix(base, strconv.Itoa(i)))
	}
	candidates = append(candidates, withSuffix(base, xid.New().String()))

	var user *model.User
	for _, name := range candidates {
		u := &model.User{
			Username:  name,
			GitHubID:  &githubID,
			AvatarURL: ghUser.AvatarURL,
		}
		err := s.users.UpsertGitHub(ctx, u)
		if err == nil {
			user = u
			break
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", githubID, err)
		}
	}
	if user == nil {
		return nil, fmt.Errorf("service/auth: no free username for GitHub login %q", ghUser.Login)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// GetUserByID returns the user for the given internal ID. The /api/me
// handler uses it after RequireAuth has put the ID into the context.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("not signed in")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// ValidateToken validates a JWT string and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
