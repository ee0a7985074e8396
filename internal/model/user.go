package model

import "time"

// User is a challenge participant.
//
// A user signs in either with a username/password pair or through GitHub.
// Username is UNIQUE in the database; the server, not the browser, is the
// source of truth for who exists.
//
// WHY FailedAt *Date?
// nil means "still in the challenge". Once set, it is never cleared for the
// rest of the challenge month: elimination is permanent. The repository only
// ever writes it with "WHERE failed_at IS NULL".
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`                  // bcrypt hash, empty for GitHub-only accounts
	GitHubID     *int64    `json:"githubId,omitempty"` // nil for password accounts
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	FailedAt     *Date     `json:"failedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasFailed reports whether the user's elimination date is recorded.
func (u User) HasFailed() bool {
	return u.FailedAt != nil && !u.FailedAt.IsZero()
}
