package auth

import (
	"context"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/vote"
)

// Directory adapts the user store to the admission engine's voter lookup.
type Directory struct {
	users Store
}

func NewDirectory(users Store) *Directory {
	return &Directory{users: users}
}

func (d *Directory) FindVoter(ctx context.Context, id string) (vote.Voter, error) {
	u, err := d.users.GetByID(ctx, id)
	if err != nil {
		return vote.Voter{}, err
	}
	return vote.Voter{ID: u.ID, Name: u.Name, Location: u.Location()}, nil
}
