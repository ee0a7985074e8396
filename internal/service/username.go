package service

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sakif/checkin-tracker/internal/apperror"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	usernameInvalid = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

	// StrictPolicy strips every tag. Usernames are shown on a public
	// leaderboard, so markup never makes it into the database.
	usernamePolicy = bluemonday.StrictPolicy()
)

// NormalizeUsername trims and validates a username typed by a user.
// Input containing markup is rejected outright rather than silently cleaned,
// so "<b>bob</b>" does not quietly become "bob".
func NormalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if usernamePolicy.Sanitize(name) != name {
		return "", apperror.ValidationFailed("username", "username must not contain HTML")
	}
	if len(name) < MinUsernameLength || len(name) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username", "username must be between 3 and 32 characters")
	}
	if !usernamePattern.MatchString(name) {
		return "", apperror.ValidationFailed("username", "username may only contain letters, digits, '_', '-' and '.'")
	}
	return name, nil
}

// ValidatePassword checks length only; bcrypt handles the rest.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return apperror.ValidationFailed("password", "password must be at least 8 characters")
	}
	if len(pw) > MaxPasswordLength {
		return apperror.ValidationFailed("password", "password must be at most 72 bytes")
	}
	return nil
}

// usernameFromLogin turns an external login into a valid username: markup
// is stripped, invalid runs become '_', and the result is padded or cut to
// fit the length limits.
func usernameFromLogin(login string) string {
	name := usernamePolicy.Sanitize(strings.TrimSpace(login))
	name = usernameInvalid.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	for len(name) < MinUsernameLength {
		name += "_"
	}
	if len(name) > MaxUsernameLength {
		name = name[:MaxUsernameLength]
	}
	return name
}

// withSuffix appends "-suffix", cutting the base so the result still fits.
func withSuffix(base, suffix string) string {
	room := MaxUsernameLength - len(suffix) - 1
	if len(base) > room {
		base = base[:room]
	}
	return base + "-" + suffix
}
