package users

import (
	"context"
	"time"
)

// Repository is the persistence contract for user records. Implementations
// report common.ErrNotFound for absent records and common.ErrEmailTaken when
// a create collides with an existing email.
type Repository interface {
	// Create inserts a new record. The store's uniqueness primitive guards
	// the email index, so a concurrent duplicate registration loses with
	// common.ErrEmailTaken rather than silently overwriting.
	Create(ctx context.Context, user *User) (*User, error)

	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetTokenHash resolves the user holding an outstanding reset
	// secret by its deterministic hash. Expiry is not checked here.
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*User, error)

	// UpdatePassword replaces only the password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// SetResetToken stores both reset fields together.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error

	// ClearResetToken removes both reset fields together.
	ClearResetToken(ctx context.Context, userID string) error

	// List returns a page of records ordered by creation time.
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
