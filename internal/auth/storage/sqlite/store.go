// Package sqlite implements identity persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/skirmish.cards/internal/auth/storage"
	"github.com/louisbranch/skirmish.cards/internal/auth/storage/sqlite/migrations"
	"github.com/louisbranch/skirmish.cards/internal/auth/user"
	"github.com/louisbranch/skirmish.cards/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements storage.UserStore over a single SQLite file.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the identity SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a new player record.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}

	const query = `
INSERT INTO users (id, username, password_hash, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`
	_, err := s.sqlDB.ExecContext(ctx, query,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.Rating,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByUsername fetches a player record by display name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	const query = `
SELECT id, username, password_hash, rating, created_at, updated_at
FROM users
WHERE username = ?
`
	var (
		u         user.User
		createdAt int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Rating,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// AdjustRating applies a signed delta to the player's rating.
func (s *Store) AdjustRating(ctx context.Context, username string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	const query = `
UPDATE users
SET rating = rating + ?, updated_at = ?
WHERE username = ?
`
	result, err := s.sqlDB.ExecContext(ctx, query, delta, toMillis(time.Now()), username)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rating rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTopUsers returns up to limit users ordered by rating, descending.
func (s *Store) ListTopUsers(ctx context.Context, limit int) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	const query = `
SELECT id, username, password_hash, rating, created_at, updated_at
FROM users
ORDER BY rating DESC, username ASC
LIMIT ?
`
	rows, err := s.sqlDB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select top users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var (
			u         user.User
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Rating, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.CreatedAt = fromMillis(createdAt)
		u.UpdatedAt = fromMillis(updatedAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// isUniqueViolation detects SQLite unique-constraint failures.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
