package repository

import (
	"context"

	"github.com/altenshop/backend/domain"
)

// UserRepository is the credential store. It is the only write path for
// User and Role rows.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists a new user with its roles. Returns
	// domain.ErrUserAlreadyExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}
