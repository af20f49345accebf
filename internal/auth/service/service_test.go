package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/louisbranch/skirmish.cards/internal/auth/storage"
	"github.com/louisbranch/skirmish.cards/internal/auth/user"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]user.User)}
}

func (m *memoryStore) CreateUser(_ context.Context, u user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return storage.ErrUsernameTaken
	}
	m.users[u.Username] = u
	return nil
}

func (m *memoryStore) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) AdjustRating(_ context.Context, username string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return storage.ErrNotFound
	}
	u.Rating += delta
	m.users[username] = u
	return nil
}

func (m *memoryStore) ListTopUsers(_ context.Context, limit int) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Rating > users[j].Rating })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func TestRegisterHashesPasswordAndDefaultsRating(t *testing.T) {
	svc := New(newMemoryStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated id")
	}
	if u.Rating != user.DefaultRating {
		t.Fatalf("expected default rating %d, got %d", user.DefaultRating, u.Rating)
	}
	if u.PasswordHash == "hunter2" || u.PasswordHash == "" {
		t.Fatalf("expected hashed password, got %q", u.PasswordHash)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := New(newMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		expected error
	}{
		{name: "short username", username: "ab", password: "hunter2", expected: user.ErrUsernameLength},
		{name: "long username", username: "abcdefghijklmnop", password: "hunter2", expected: user.ErrUsernameLength},
		{name: "short password", username: "alice", password: "ab", expected: user.ErrPasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.password); !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := New(newMemoryStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "hunter2"); !errors.Is(err, storage.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := New(newMemoryStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Authenticate(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("expected alice, got %q", u.Username)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLeaderboardStripsCredentials(t *testing.T) {
	store := newMemoryStore()
	svc := New(store)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		if _, err := svc.Register(ctx, name, "hunter2"); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := svc.AdjustRating(ctx, "bob", 50); err != nil {
		t.Fatalf("adjust rating: %v", err)
	}

	top, err := svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Username != "bob" {
		t.Fatalf("expected bob first, got %q", top[0].Username)
	}
	if top[0].Rating != user.DefaultRating+50 {
		t.Fatalf("expected rating %d, got %d", user.DefaultRating+50, top[0].Rating)
	}
}
