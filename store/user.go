package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// User is one account. The password hash never leaves the store layer
// except through GetUserByEmail for credential checks.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateUser inserts a new account. Returns ErrEmailTaken when the email
// is already registered.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	if role == "" {
		role = "user"
	}
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	u := &User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       "active",
		CreatedAt:    time.Now(),
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser retrieves an active user by ID, or nil if absent.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, status, created_at
		FROM users WHERE id = ? AND status = 'active'`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves an active user by email, or nil if absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, status, created_at
		FROM users WHERE email = ? AND status = 'active'`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return &u, nil
}
