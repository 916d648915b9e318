package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Simplici0/buffet/internal/domain"
	"github.com/Simplici0/buffet/internal/storage"
)

// GetUserByEmail retrieves an operator by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash
		FROM users
		WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new operator.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES (?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
