package auth

import "context"

// Store persists users. Email is unique; Create returns
// sentinel.ErrDuplicate on a conflict and lookups return
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) error
}
