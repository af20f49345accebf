// Package user defines the player identity record shared by the HTTP auth
// surface and the realtime arena.
package user

import (
	"errors"
	"time"
)

var (
	// ErrUsernameLength indicates a username outside the allowed length.
	ErrUsernameLength = errors.New("username must be between 3 and 15 characters")
	// ErrPasswordLength indicates a password outside the allowed length.
	ErrPasswordLength = errors.New("password must be between 3 and 250 characters")
)

// DefaultRating is the rating assigned to freshly registered players.
const DefaultRating = 1000

// User represents a registered player.
//
// PasswordHash holds a bcrypt digest and must never leave the process; wire
// payloads use Profile instead.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Rating       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the wire-safe view of a user.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// Profile strips credential material from the record.
func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		Rating:   u.Rating,
	}
}

// ValidateUsername enforces the registration username constraints.
func ValidateUsername(s string) error {
	if len(s) < 3 || len(s) > 15 {
		return ErrUsernameLength
	}
	return nil
}

// ValidatePassword enforces the registration password constraints.
func ValidatePassword(s string) error {
	if len(s) < 3 || len(s) > 250 {
		return ErrPasswordLength
	}
	return nil
}
