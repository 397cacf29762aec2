package account

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists accounts. Create returns an apperr conflict when
// the username is taken; lookups of a missing user wrap apperr.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPending(ctx context.Context) ([]*User, error)
}
