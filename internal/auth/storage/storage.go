// Package storage declares the persistence contract for player identities.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/skirmish.cards/internal/auth/user"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrUsernameTaken indicates a registration collides with an existing name.
var ErrUsernameTaken = errors.New("username already exists")

// UserStore persists player records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	// AdjustRating applies a signed delta to the player's rating.
	AdjustRating(ctx context.Context, username string, delta int) error
	// ListTopUsers returns up to limit users ordered by rating, descending.
	ListTopUsers(ctx context.Context, limit int) ([]user.User, error)
}
