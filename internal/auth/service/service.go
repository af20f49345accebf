// Package service implements player registration, credential checks and
// rating maintenance on top of the identity store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/skirmish.cards/internal/auth/storage"
	"github.com/louisbranch/skirmish.cards/internal/auth/user"
)

// ErrInvalidCredentials indicates a failed username/password check. The same
// error covers unknown usernames so the API does not leak which accounts
// exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// LeaderboardSize caps how many players the leaderboard returns.
const LeaderboardSize = 100

// Service coordinates identity operations for the HTTP surface and the
// realtime arena.
type Service struct {
	store storage.UserStore
	now   func() time.Time
	newID func() string
}

// New builds an identity service over the given store.
func New(store storage.UserStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Register validates and creates a new player with the default rating.
func (s *Service) Register(ctx context.Context, username, password string) (user.User, error) {
	if err := user.ValidateUsername(username); err != nil {
		return user.User{}, err
	}
	if err := user.ValidatePassword(password); err != nil {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := user.User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: string(hash),
		Rating:       user.DefaultRating,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup fetches a player by username.
func (s *Service) Lookup(ctx context.Context, username string) (user.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

// AdjustRating applies a signed delta to the player's rating.
func (s *Service) AdjustRating(ctx context.Context, username string, delta int) error {
	return s.store.AdjustRating(ctx, username, delta)
}

// Leaderboard returns the top players by rating, credential-free.
func (s *Service) Leaderboard(ctx context.Context) ([]user.Profile, error) {
	users, err := s.store.ListTopUsers(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}
