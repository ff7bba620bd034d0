package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a password account.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Email, passwordHash, toUnix(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserCredentials returns the user registered with email and their password
// hash. The hash is empty for accounts created through Google sign-in.
func (s *Store) UserCredentials(ctx context.Context, email string) (*domain.User, string, error) {
	var (
		u       domain.User
		hash    string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`),
		NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = fromUnix(created)
	return &u, hash, nil
}

// UserByID looks a user up by id.
func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.queryUser(ctx, `SELECT id, email, created_at FROM users WHERE id = ?`, id)
}

// UserByEmail looks a user up by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryUser(ctx, `SELECT id, email, created_at FROM users WHERE email = ?`, NormalizeEmail(email))
}

func (s *Store) queryUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		u       domain.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(&u.ID, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = fromUnix(created)
	return &u, nil
}

// UpsertGoogleUser returns the account bound to a Google subject. An existing
// password account with the same email gets linked; otherwise a new account
// without password is created.
func (s *Store) UpsertGoogleUser(ctx context.Context, subject, email string) (*domain.User, error) {
	u, err := s.queryUser(ctx, `SELECT id, email, created_at FROM users WHERE google_sub = ?`, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u, err = s.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx,
			s.rebind(`UPDATE users SET google_sub = ? WHERE id = ?`), subject, u.ID); err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		return u, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	u = &domain.User{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO users (id, email, google_sub, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Email, subject, toUnix(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
