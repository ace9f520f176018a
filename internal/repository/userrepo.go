// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/quill/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to active (not soft-deleted) users.
type UserRepository interface {
	// Create inserts a new user. A taken username yields errs.ErrDuplicateUsername.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionRepository stores issued access/refresh pairs.
type SessionRepository interface {
	// Create persists a freshly issued session.
	Create(ctx context.Context, s *model.Session) error
	// Rotate atomically consumes the active session holding refreshToken and stores the
	// session returned by next. An error from next aborts the rotation unchanged.
	// Unknown or already consumed tokens yield errs.ErrInvalidToken.
	Rotate(ctx context.Context, refreshToken string, next func(prev model.Session) (model.Session, error)) (model.Session, error)
	// Terminate soft-deletes the active session of userID issued with accessToken.
	// Nothing matching yields errs.ErrAuthNotFound.
	Terminate(ctx context.Context, userID uuid.UUID, accessToken string) error
}
